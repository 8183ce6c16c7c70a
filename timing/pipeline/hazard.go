package pipeline

import "github.com/p16sim/p16sim/insts"

// ForwardSource identifies where an EX-stage operand should come from.
type ForwardSource int

const (
	// ForwardNone means use the value captured in ID/EX at decode time.
	ForwardNone ForwardSource = iota
	// ForwardFromEXMEM means forward the EX/MEM ALU result.
	ForwardFromEXMEM
	// ForwardFromMEMWB means forward the MEM/WB write-back value.
	ForwardFromMEMWB
)

// HazardUnit detects the load-use stall and resolves operand forwarding.
// It is stateless.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// DetectLoadUseStall reports whether the instruction waiting in ID/EX must
// be held for a cycle because the LW in EX/MEM writes a register it reads.
// The loaded word is not available until the LW finishes MEM, so a
// dependent one instruction behind cannot be served by the EX/MEM bypass;
// one stall cycle moves the load's result into MEM/WB, where forwarding
// picks it up. The check consumes itself: the stall drains the LW out of
// EX/MEM, so the same pair never stalls twice.
func (h *HazardUnit) DetectLoadUseStall(exmem *EXMEMRegister, idex *IDEXRegister) bool {
	if !exmem.Valid || exmem.Op != insts.OpLW {
		return false
	}
	if !idex.Valid {
		return false
	}

	// Unlike forwarding, the stall check does not special-case register 0:
	// a load targeting r0 still stalls its dependent. The dead stall costs
	// a cycle, never correctness, since r0 reads as zero either way.
	loadDest := exmem.Rd

	if idex.Op.ReadsRs() && idex.Rs == loadDest {
		return true
	}
	if idex.Op.ReadsRt() && idex.Rt == loadDest {
		return true
	}
	return false
}

// ForwardOperand resolves the effective value of a source register index
// reg, given the value captured at decode (original) and the two
// downstream latches. EX/MEM takes priority over MEM/WB.
func (h *HazardUnit) ForwardOperand(
	reg uint8,
	original uint16,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) (value uint16, source ForwardSource) {
	if reg == 0 {
		return original, ForwardNone
	}

	if exmem.Valid && exmem.RegWrite && exmem.Rd == reg {
		return exmem.ALUResult, ForwardFromEXMEM
	}
	if memwb.Valid && memwb.RegWrite && memwb.Rd == reg {
		return memwb.Value, ForwardFromMEMWB
	}
	return original, ForwardNone
}
