// Package pipeline implements the P16 five-stage pipeline: fetch, decode,
// execute, memory, writeback, connected by four inter-stage latches and a
// hazard unit that stalls on load-use conflicts and forwards operands
// around the register file.
package pipeline

import "github.com/p16sim/p16sim/insts"

// IFIDRegister holds the IF→ID latch: a raw fetched word plus the PC it
// was fetched from.
type IFIDRegister struct {
	// Valid is false for a bubble.
	Valid bool

	// PC is the address the word was fetched from.
	PC uint16

	// Word is the raw 16-bit instruction as fetched.
	Word uint16
}

// Clear empties the latch.
func (r *IFIDRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.Word = 0
}

// IDEXRegister holds the ID→EX latch: the decoded instruction plus the
// operand values read from the register file at decode time.
type IDEXRegister struct {
	// Valid is false for a bubble.
	Valid bool

	// PC is the address the instruction was fetched from.
	PC uint16

	// Op is the decoded opcode.
	Op insts.Op

	// Rs and Rt are the source register indices as they appear in the
	// encoding (hazard detection and forwarding key off these).
	Rs, Rt uint8

	// Rd is the R-type destination register index.
	Rd uint8

	// RsValue and RtValue are the values read from the register file
	// during decode, before any forwarding.
	RsValue, RtValue uint16

	// Imm6 is the raw unsigned 6-bit immediate field.
	Imm6 uint8

	// Addr is the 12-bit jump address field.
	Addr uint16
}

// Clear empties the latch.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// EXMEMRegister holds the EX→MEM latch: the ALU result (or branch/jump
// side effect already applied) and the write-back destination.
type EXMEMRegister struct {
	// Valid is false for a bubble.
	Valid bool

	// PC is the address of the instruction.
	PC uint16

	// Op is the opcode, needed by MEM to distinguish LW/SW from
	// everything else.
	Op insts.Op

	// ALUResult is the address for LW/SW, or the computed result for
	// every ALU opcode.
	ALUResult uint16

	// StoreValue is rt's forwarded value, used by SW.
	StoreValue uint16

	// Rd is the destination register index (rt for I-type writers, rd
	// for R-type writers; the execute stage resolves which).
	Rd uint8

	// RegWrite is the write-enable flag propagated to MEM/WB.
	RegWrite bool
}

// Clear empties the latch.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// MEMWBRegister holds the MEM→WB latch: the value to commit to the
// register file.
type MEMWBRegister struct {
	// Valid is false for a bubble.
	Valid bool

	// PC is the address of the instruction.
	PC uint16

	// Op is the opcode, retained for observation only.
	Op insts.Op

	// Value is the data to write back: the loaded word for LW, the ALU
	// result for everything else that writes a register.
	Value uint16

	// Rd is the destination register index.
	Rd uint8

	// RegWrite is the write-enable flag.
	RegWrite bool
}

// Clear empties the latch.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}
