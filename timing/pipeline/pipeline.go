package pipeline

import (
	"github.com/p16sim/p16sim/emu"
)

// instrMemLimit is the address space of the program counter: 12 bits.
const instrMemLimit = 1 << 12

// Statistics holds the bookkeeping counters a front end displays alongside
// the architectural state.
type Statistics struct {
	// Cycles is the total number of cycles stepped.
	Cycles uint64
	// Instructions is the number of instructions that reached decode.
	Instructions uint64
	// Stalls is the number of load-use stall cycles.
	Stalls uint64
	// Flushes is the number of control-hazard flush events.
	Flushes uint64
	// ForwardsEXMEM is the number of operands forwarded from EX/MEM.
	ForwardsEXMEM uint64
	// ForwardsMEMWB is the number of operands forwarded from MEM/WB.
	ForwardsMEMWB uint64
}

// CPI returns cycles per retired instruction, or 0 before any instruction
// has reached decode.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Pipeline is the single-issue, in-order P16 pipeline: four inter-stage
// latches plus the architectural state they feed and drain.
type Pipeline struct {
	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage
	hazardUnit     *HazardUnit

	regFile *emu.RegFile
	memory  *emu.Memory

	instrMem []uint16
	pc       uint16

	stats Statistics

	// HazardMessage and ForwardingMessage summarize the most recently
	// stepped cycle; both are reset at the start of every Step.
	HazardMessage     string
	ForwardingMessage string
}

// NewPipeline wires a Pipeline to the given register file and data memory.
// The two are shared with the owning Engine so that register/memory
// observation stays current between steps.
func NewPipeline(regFile *emu.RegFile, memory *emu.Memory) *Pipeline {
	return &Pipeline{
		fetchStage:     NewFetchStage(),
		decodeStage:    NewDecodeStage(regFile),
		executeStage:   NewExecuteStage(),
		memoryStage:    NewMemoryStage(memory),
		writebackStage: NewWritebackStage(regFile),
		hazardUnit:     NewHazardUnit(),
		regFile:        regFile,
		memory:         memory,
	}
}

// PC returns the current program counter.
func (p *Pipeline) PC() uint16 { return p.pc }

// IFID returns the IF/ID latch.
func (p *Pipeline) IFID() *IFIDRegister { return &p.ifid }

// IDEX returns the ID/EX latch.
func (p *Pipeline) IDEX() *IDEXRegister { return &p.idex }

// EXMEM returns the EX/MEM latch.
func (p *Pipeline) EXMEM() *EXMEMRegister { return &p.exmem }

// MEMWB returns the MEM/WB latch.
func (p *Pipeline) MEMWB() *MEMWBRegister { return &p.memwb }

// Stats returns a copy of the current bookkeeping counters.
func (p *Pipeline) Stats() Statistics { return p.stats }

// RegFile returns the register file backing this pipeline.
func (p *Pipeline) RegFile() *emu.RegFile { return p.regFile }

// Memory returns the data memory backing this pipeline.
func (p *Pipeline) Memory() *emu.Memory { return p.memory }

// InstructionMemory returns the currently loaded program.
func (p *Pipeline) InstructionMemory() []uint16 { return p.instrMem }

// LoadProgram replaces instruction memory and resets all other state.
func (p *Pipeline) LoadProgram(words []uint16) {
	p.instrMem = words
	p.Reset()
}

// Reset zeroes registers, memory, PC, counters, and empties every latch.
// Instruction memory is left untouched.
func (p *Pipeline) Reset() {
	*p.regFile = emu.RegFile{}
	p.memory.Reset()
	p.pc = 0
	p.stats = Statistics{}
	p.ifid.Clear()
	p.idex.Clear()
	p.exmem.Clear()
	p.memwb.Clear()
	p.HazardMessage = ""
	p.ForwardingMessage = ""
}

// ProgramComplete reports whether the program has finished: the PC has run
// past the end of instruction memory and every latch has drained.
func (p *Pipeline) ProgramComplete() bool {
	return int(p.pc) >= len(p.instrMem) &&
		!p.ifid.Valid && !p.idex.Valid && !p.exmem.Valid && !p.memwb.Valid
}

// Step advances the pipeline by exactly one cycle, evaluating stages in
// reverse order (WB, MEM, EX, ID, IF). Every stage reads the latches as they
// stood at the end of the previous cycle; the new latches are built
// separately and committed together at the end of the cycle.
func (p *Pipeline) Step() {
	p.stats.Cycles++
	p.HazardMessage = "no hazard"
	p.ForwardingMessage = "no forwarding"

	if p.hazardUnit.DetectLoadUseStall(&p.exmem, &p.idex) {
		p.stats.Stalls++
		p.HazardMessage = "load-use hazard"

		p.writebackStage.Writeback(&p.memwb)
		p.memwb = p.memoryStageAccess()
		p.exmem.Clear()
		// idex and ifid are frozen; pc does not advance.
		return
	}

	p.writebackStage.Writeback(&p.memwb)
	newMEMWB := p.memoryStageAccess()

	newEXMEM, redirect, target := p.executeIDEX()

	flush := redirect
	if flush {
		p.stats.Flushes++
		p.HazardMessage = "control hazard"
		p.pc = target
	}

	newIDEX := p.decodeIFID(flush)
	newIFID := p.fetchPC(flush)

	p.memwb = newMEMWB
	p.exmem = newEXMEM
	p.idex = newIDEX
	p.ifid = newIFID
}

// memoryStageAccess runs MEM against the current EX/MEM latch, returning
// an empty latch when EX/MEM is itself empty.
func (p *Pipeline) memoryStageAccess() MEMWBRegister {
	if !p.exmem.Valid {
		return MEMWBRegister{}
	}
	return p.memoryStage.Access(&p.exmem)
}

// executeIDEX runs EX against the current ID/EX latch, resolving operand
// forwarding first. It returns the new EX/MEM latch plus any control-flow
// redirect.
func (p *Pipeline) executeIDEX() (newEXMEM EXMEMRegister, redirect bool, target uint16) {
	if !p.idex.Valid {
		return EXMEMRegister{}, false, 0
	}

	rsValue, rsSrc := p.hazardUnit.ForwardOperand(p.idex.Rs, p.idex.RsValue, &p.exmem, &p.memwb)
	rtValue, rtSrc := p.hazardUnit.ForwardOperand(p.idex.Rt, p.idex.RtValue, &p.exmem, &p.memwb)
	p.noteForwarding(rsSrc, rtSrc)

	result := p.executeStage.Execute(&p.idex, rsValue, rtValue)

	if result.LinkWrite {
		p.regFile.WriteReg(7, result.LinkValue)
	}

	return result.EXMEM, result.Redirect, result.Target
}

// noteForwarding updates counters and the forwarding status message for
// the sources resolved this cycle.
func (p *Pipeline) noteForwarding(rsSrc, rtSrc ForwardSource) {
	switch rsSrc {
	case ForwardFromEXMEM:
		p.stats.ForwardsEXMEM++
		p.ForwardingMessage = "forwarded rs from EX/MEM"
	case ForwardFromMEMWB:
		p.stats.ForwardsMEMWB++
		p.ForwardingMessage = "forwarded rs from MEM/WB"
	}
	switch rtSrc {
	case ForwardFromEXMEM:
		p.stats.ForwardsEXMEM++
		if rsSrc == ForwardNone {
			p.ForwardingMessage = "forwarded rt from EX/MEM"
		} else {
			p.ForwardingMessage = "forwarded rs and rt"
		}
	case ForwardFromMEMWB:
		p.stats.ForwardsMEMWB++
		if rsSrc == ForwardNone {
			p.ForwardingMessage = "forwarded rt from MEM/WB"
		} else {
			p.ForwardingMessage = "forwarded rs and rt"
		}
	}
}

// decodeIFID runs ID against the current IF/ID latch. A flushed or empty
// IF/ID produces an empty ID/EX; otherwise the instruction counter is
// incremented.
func (p *Pipeline) decodeIFID(flush bool) IDEXRegister {
	if flush || !p.ifid.Valid {
		return IDEXRegister{}
	}
	idex := p.decodeStage.Decode(p.ifid.Word)
	idex.PC = p.ifid.PC
	p.stats.Instructions++
	return idex
}

// fetchPC runs IF against the current PC. A flush or an exhausted
// instruction memory produces an empty IF/ID and leaves the PC untouched;
// otherwise the PC advances by one word, wrapping at the 12-bit address
// space.
func (p *Pipeline) fetchPC(flush bool) IFIDRegister {
	if flush {
		return IFIDRegister{}
	}
	word, ok := p.fetchStage.Fetch(p.instrMem, p.pc)
	if !ok {
		return IFIDRegister{}
	}
	ifid := IFIDRegister{Valid: true, PC: p.pc, Word: word}
	p.pc = (p.pc + 1) % instrMemLimit
	return ifid
}

// Run steps the pipeline until the program completes or cycleCap cycles
// have elapsed, whichever comes first. It returns false if the cap was
// reached before completion, which a caller can treat as an infinite-loop
// suspicion.
func (p *Pipeline) Run(cycleCap uint64) bool {
	for i := uint64(0); i < cycleCap; i++ {
		if p.ProgramComplete() {
			return true
		}
		p.Step()
	}
	return p.ProgramComplete()
}

// RunCycles steps the pipeline for the specified number of cycles, stopping
// early if the program completes. It returns true if the program is still
// running afterwards, false if it has completed.
func (p *Pipeline) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles; i++ {
		if p.ProgramComplete() {
			return false
		}
		p.Step()
	}
	return !p.ProgramComplete()
}
