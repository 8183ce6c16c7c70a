// Package core provides the P16 engine facade. It ties the assembler, the
// five-stage pipeline, and the architectural state into one value exposing
// the control surface (LoadProgram, Reset, Step) and a read-only Snapshot
// that a front end renders between cycles.
package core

import (
	"strconv"

	"github.com/p16sim/p16sim/assembler"
	"github.com/p16sim/p16sim/emu"
	"github.com/p16sim/p16sim/timing/pipeline"
)

// DefaultCycleCap is the Run bound used when the caller does not supply
// one. A 64-word data memory and 4096-word address space finish real
// programs in far fewer cycles; hitting the cap is an infinite-loop
// suspicion, not a semantic event.
const DefaultCycleCap = 10000

// nopWord is the machine encoding of NOP, substituted for any program word
// that is not a well-formed 16-bit binary string.
const nopWord = uint16(0xF000)

// Engine is a P16 simulator instance. It owns no goroutines and no
// external resources; Step is the sole mutator and is not reentrant.
type Engine struct {
	// Pipeline is the underlying five-stage pipeline.
	Pipeline *pipeline.Pipeline

	assembler *assembler.Assembler

	// Shared resources
	regFile *emu.RegFile
	memory  *emu.Memory

	// program is the loaded instruction memory in its serialized form,
	// retained for observation.
	program []string
}

// NewEngine creates a new Engine with the given register file and memory.
func NewEngine(regFile *emu.RegFile, memory *emu.Memory) *Engine {
	return &Engine{
		Pipeline:  pipeline.NewPipeline(regFile, memory),
		assembler: assembler.New(),
		regFile:   regFile,
		memory:    memory,
	}
}

// LoadProgram replaces instruction memory with the given 16-bit binary word
// strings and resets all other state. A word that is not exactly sixteen
// '0'/'1' characters loads as a NOP, mirroring the assembler's
// absorb-as-NOP contract.
func (e *Engine) LoadProgram(words []string) {
	e.program = append([]string(nil), words...)

	parsed := make([]uint16, len(words))
	for i, w := range words {
		parsed[i] = parseWord(w)
	}
	e.Pipeline.LoadProgram(parsed)
}

// LoadSource assembles P16 assembly text and loads the result. It returns
// the assembler's warnings; the program loads regardless, with warned lines
// holding NOPs.
func (e *Engine) LoadSource(source string) []assembler.Warning {
	words, warnings := e.assembler.Assemble(source)
	e.LoadProgram(words)
	return warnings
}

// Disassemble returns the canonical assembly form of one 16-bit binary word
// string, for front ends that label latch contents.
func (e *Engine) Disassemble(word string) string {
	return e.assembler.Disassemble(word)
}

// Reset clears registers, data memory, PC, counters, and latches.
// Instruction memory is left loaded.
func (e *Engine) Reset() {
	e.Pipeline.Reset()
}

// Step advances the simulation by exactly one cycle.
func (e *Engine) Step() {
	e.Pipeline.Step()
}

// Run steps until the program completes or cycleCap cycles have elapsed. A
// cycleCap of zero means DefaultCycleCap. It returns false if the cap fired
// first.
func (e *Engine) Run(cycleCap uint64) bool {
	if cycleCap == 0 {
		cycleCap = DefaultCycleCap
	}
	return e.Pipeline.Run(cycleCap)
}

// RunCycles steps for the specified number of cycles, stopping early on
// completion. It returns true if the program is still running.
func (e *Engine) RunCycles(cycles uint64) bool {
	return e.Pipeline.RunCycles(cycles)
}

// ProgramComplete reports whether the PC has run past the end of
// instruction memory and every latch has drained.
func (e *Engine) ProgramComplete() bool {
	return e.Pipeline.ProgramComplete()
}

// Stats returns a copy of the bookkeeping counters.
func (e *Engine) Stats() pipeline.Statistics {
	return e.Pipeline.Stats()
}

// Snapshot is a copy of everything a front end displays. No field aliases
// engine internals, so a caller may retain it; it describes the state as of
// the most recent Step and goes stale at the next one.
type Snapshot struct {
	// Registers is the register file, R0 included (and always zero).
	Registers [8]uint16

	// Memory is the 64-word data memory.
	Memory [64]uint16

	// InstructionMemory is the loaded program in serialized form.
	InstructionMemory []string

	// PC is the address of the next word to fetch.
	PC uint16

	// The four inter-stage latches, each either empty (Valid false) or
	// fully populated.
	IFID  pipeline.IFIDRegister
	IDEX  pipeline.IDEXRegister
	EXMEM pipeline.EXMEMRegister
	MEMWB pipeline.MEMWBRegister

	// Stats holds the bookkeeping counters.
	Stats pipeline.Statistics

	// HazardMessage and ForwardingMessage summarize the most recent cycle.
	HazardMessage     string
	ForwardingMessage string

	// Complete reports whether the program has finished.
	Complete bool
}

// Snapshot captures the current architectural and pipeline state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Registers:         e.regFile.Snapshot(),
		Memory:            e.memory.Snapshot(),
		InstructionMemory: append([]string(nil), e.program...),
		PC:                e.Pipeline.PC(),
		IFID:              *e.Pipeline.IFID(),
		IDEX:              *e.Pipeline.IDEX(),
		EXMEM:             *e.Pipeline.EXMEM(),
		MEMWB:             *e.Pipeline.MEMWB(),
		Stats:             e.Pipeline.Stats(),
		HazardMessage:     e.Pipeline.HazardMessage,
		ForwardingMessage: e.Pipeline.ForwardingMessage,
		Complete:          e.Pipeline.ProgramComplete(),
	}
}

// parseWord parses a 16-character binary string into a machine word,
// substituting NOP for anything malformed.
func parseWord(bits string) uint16 {
	if len(bits) != 16 {
		return nopWord
	}
	v, err := strconv.ParseUint(bits, 2, 16)
	if err != nil {
		return nopWord
	}
	return uint16(v)
}
