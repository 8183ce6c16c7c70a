package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/p16sim/p16sim/emu"
)

var _ = Describe("RegFile", func() {
	var rf *emu.RegFile

	BeforeEach(func() {
		rf = &emu.RegFile{}
	})

	It("reads back a written register", func() {
		rf.WriteReg(3, 0x1234)
		Expect(rf.ReadReg(3)).To(Equal(uint16(0x1234)))
	})

	It("always reads R0 as zero", func() {
		Expect(rf.ReadReg(0)).To(Equal(uint16(0)))
	})

	It("silently drops writes to R0", func() {
		rf.WriteReg(0, 0xFFFF)
		Expect(rf.ReadReg(0)).To(Equal(uint16(0)))
	})

	It("reduces out-of-range register numbers modulo 8", func() {
		rf.WriteReg(3, 0x42)
		Expect(rf.ReadReg(11)).To(Equal(uint16(0x42)))
	})

	It("reports R0 as zero in Snapshot even if the backing slot was poked", func() {
		rf.R[0] = 0xBEEF
		snap := rf.Snapshot()
		Expect(snap[0]).To(Equal(uint16(0)))
	})
})
