package pipeline

import (
	"github.com/p16sim/p16sim/emu"
	"github.com/p16sim/p16sim/insts"
)

// FetchStage reads the instruction word at the current PC. Instruction
// memory is separate from data memory and owned by the Pipeline, so the
// stage itself carries no state.
type FetchStage struct{}

// NewFetchStage creates a new fetch stage.
func NewFetchStage() *FetchStage {
	return &FetchStage{}
}

// Fetch reads the instruction memory word at index pc. Unlike data memory,
// instruction memory is not wrapped modulo its length; running off the
// end produces bubbles, handled by the caller.
func (s *FetchStage) Fetch(instrMem []uint16, pc uint16) (word uint16, ok bool) {
	if int(pc) >= len(instrMem) {
		return 0, false
	}
	return instrMem[pc], true
}

// DecodeStage decodes a fetched word and reads its source operands from
// the register file.
type DecodeStage struct {
	regFile *emu.RegFile
	decoder *insts.Decoder
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(regFile *emu.RegFile) *DecodeStage {
	return &DecodeStage{regFile: regFile, decoder: insts.NewDecoder()}
}

// Decode decodes word and reads rs/rt from the register file. Operand
// forwarding happens later, in EX, not here.
func (s *DecodeStage) Decode(word uint16) IDEXRegister {
	inst := s.decoder.Decode(word)
	return IDEXRegister{
		Valid:    true,
		Op:       inst.Op,
		Rs:       inst.Rs,
		Rt:       inst.Rt,
		Rd:       inst.Rd,
		RsValue:  s.regFile.ReadReg(inst.Rs),
		RtValue:  s.regFile.ReadReg(inst.Rt),
		Imm6:     inst.Imm6,
		Addr:     inst.Addr,
	}
}

// ExecuteResult is everything the EX stage produces in a cycle: the
// EX/MEM latch contents plus any control-flow redirect.
type ExecuteResult struct {
	EXMEM EXMEMRegister

	// Redirect is true if a branch or jump resolved taken this cycle.
	Redirect bool
	// Target is the new PC when Redirect is true.
	Target uint16

	// LinkWrite is true for JAL, whose return-address write happens
	// directly against the register file in EX rather than through the
	// normal EX/MEM/WB register-write path (JAL writes R7 unconditionally
	// and has no other destination to carry through the latches).
	LinkWrite bool
	LinkValue uint16
}

// ExecuteStage performs ALU computation, address calculation, and
// branch/jump resolution.
type ExecuteStage struct{}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{}
}

// Execute dispatches idex by opcode using the already-forwarded operand
// values rsValue/rtValue.
func (s *ExecuteStage) Execute(idex *IDEXRegister, rsValue, rtValue uint16) ExecuteResult {
	result := ExecuteResult{
		EXMEM: EXMEMRegister{
			Valid: true,
			PC:    idex.PC,
			Op:    idex.Op,
		},
	}

	switch idex.Op {
	case insts.OpADD:
		result.EXMEM.ALUResult = rsValue + rtValue
		result.EXMEM.Rd = idex.Rd
		result.EXMEM.RegWrite = true

	case insts.OpSUB:
		result.EXMEM.ALUResult = rsValue - rtValue
		result.EXMEM.Rd = idex.Rd
		result.EXMEM.RegWrite = true

	case insts.OpAND:
		result.EXMEM.ALUResult = rsValue & rtValue
		result.EXMEM.Rd = idex.Rd
		result.EXMEM.RegWrite = true

	case insts.OpOR:
		result.EXMEM.ALUResult = rsValue | rtValue
		result.EXMEM.Rd = idex.Rd
		result.EXMEM.RegWrite = true

	case insts.OpSLT:
		if rsValue < rtValue {
			result.EXMEM.ALUResult = 1
		}
		result.EXMEM.Rd = idex.Rd
		result.EXMEM.RegWrite = true

	case insts.OpADDI:
		result.EXMEM.ALUResult = rsValue + uint16(idex.Imm6)
		result.EXMEM.Rd = idex.Rt
		result.EXMEM.RegWrite = true

	case insts.OpANDI:
		result.EXMEM.ALUResult = rsValue & uint16(idex.Imm6)
		result.EXMEM.Rd = idex.Rt
		result.EXMEM.RegWrite = true

	case insts.OpORI:
		result.EXMEM.ALUResult = rsValue | uint16(idex.Imm6)
		result.EXMEM.Rd = idex.Rt
		result.EXMEM.RegWrite = true

	case insts.OpLW:
		result.EXMEM.ALUResult = rsValue + insts.SignExtend6(idex.Imm6)
		result.EXMEM.Rd = idex.Rt
		result.EXMEM.RegWrite = true

	case insts.OpSW:
		result.EXMEM.ALUResult = rsValue + insts.SignExtend6(idex.Imm6)
		result.EXMEM.StoreValue = rtValue

	case insts.OpBEQ:
		if rsValue == rtValue {
			result.Redirect = true
			result.Target = branchTarget(idex.PC, idex.Imm6)
		}

	case insts.OpBNE:
		if rsValue != rtValue {
			result.Redirect = true
			result.Target = branchTarget(idex.PC, idex.Imm6)
		}

	case insts.OpJ:
		result.Redirect = true
		result.Target = idex.Addr

	case insts.OpJAL:
		result.Redirect = true
		result.Target = idex.Addr
		result.LinkWrite = true
		result.LinkValue = (idex.PC + 1) & 0x0FFF

	case insts.OpJR:
		result.Redirect = true
		result.Target = rsValue & 0x0FFF

	case insts.OpNOP:
		// no-op
	}

	return result
}

// branchTarget computes a branch's target address: the instruction after
// the branch, plus the sign-extended displacement.
func branchTarget(branchPC uint16, imm6 uint8) uint16 {
	return (branchPC + 1 + insts.SignExtend6(imm6)) & 0x0FFF
}

// MemoryStage performs the MEM-stage data-memory access.
type MemoryStage struct {
	memory *emu.Memory
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(memory *emu.Memory) *MemoryStage {
	return &MemoryStage{memory: memory}
}

// Access consumes exmem and produces the MEM/WB latch. For LW it reads
// memory and routes the loaded word as the write-back value; for SW it
// writes memory and carries no write-back value; every other opcode
// passes its ALU result through unchanged.
func (s *MemoryStage) Access(exmem *EXMEMRegister) MEMWBRegister {
	memwb := MEMWBRegister{
		Valid:    true,
		PC:       exmem.PC,
		Op:       exmem.Op,
		Value:    exmem.ALUResult,
		Rd:       exmem.Rd,
		RegWrite: exmem.RegWrite,
	}

	switch exmem.Op {
	case insts.OpLW:
		memwb.Value = s.memory.Read(exmem.ALUResult)
	case insts.OpSW:
		s.memory.Write(exmem.ALUResult, exmem.StoreValue)
	}

	return memwb
}

// WritebackStage commits a MEM/WB latch to the register file.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// Writeback commits memwb's value if it is valid, write-enabled, and
// targets a non-zero register. RegFile.WriteReg would drop an R0 write on
// its own; the check here keeps the stage self-describing.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) {
	if !memwb.Valid || !memwb.RegWrite || memwb.Rd == 0 {
		return
	}
	s.regFile.WriteReg(memwb.Rd, memwb.Value)
}
