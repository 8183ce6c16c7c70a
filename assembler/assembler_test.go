package assembler_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/p16sim/p16sim/assembler"
)

var _ = Describe("Assembler", func() {
	var a *assembler.Assembler

	BeforeEach(func() {
		a = assembler.New()
	})

	Describe("Assemble", func() {
		It("encodes an R-type instruction, destination first", func() {
			words, warnings := a.Assemble("ADD r3, r1, r2")
			Expect(warnings).To(BeEmpty())
			Expect(words).To(Equal([]string{"0000001010011000"}))
		})

		It("encodes an arithmetic-immediate instruction", func() {
			words, warnings := a.Assemble("ADDI r2, r1, 5")
			Expect(warnings).To(BeEmpty())
			Expect(words).To(Equal([]string{"0101001010000101"}))
		})

		It("encodes LW with the imm(rs) addressing form", func() {
			words, warnings := a.Assemble("LW r2, 4(r1)")
			Expect(warnings).To(BeEmpty())
			Expect(words).To(Equal([]string{"1000001010000100"}))
		})

		It("encodes SW with the imm(rs) addressing form", func() {
			words, warnings := a.Assemble("SW r2, 4(r1)")
			Expect(warnings).To(BeEmpty())
			Expect(words).To(Equal([]string{"1001001010000100"}))
		})

		It("encodes a branch as rs, rt, imm", func() {
			words, warnings := a.Assemble("BEQ r1, r2, 3")
			Expect(warnings).To(BeEmpty())
			Expect(words).To(Equal([]string{"1010001010000011"}))
		})

		It("encodes J with a bare address literal", func() {
			words, warnings := a.Assemble("J 10")
			Expect(warnings).To(BeEmpty())
			Expect(words).To(Equal([]string{"1100000000001010"}))
		})

		It("encodes JR with a single register operand", func() {
			words, warnings := a.Assemble("JR r4")
			Expect(warnings).To(BeEmpty())
			Expect(words).To(Equal([]string{"1110100000000000"}))
		})

		It("encodes NOP with no operands", func() {
			words, warnings := a.Assemble("NOP")
			Expect(warnings).To(BeEmpty())
			Expect(words).To(Equal([]string{"1111000000000000"}))
		})

		It("strips trailing comments", func() {
			words, warnings := a.Assemble("ADD r1, r0, r0 # set r1 to zero")
			Expect(warnings).To(BeEmpty())
			Expect(words).To(Equal([]string{"0000000000001000"}))
		})

		It("skips blank and comment-only lines without emitting an instruction", func() {
			words, warnings := a.Assemble("\n# just a comment\n   \nNOP\n")
			Expect(warnings).To(BeEmpty())
			Expect(words).To(Equal([]string{"1111000000000000"}))
		})

		It("accepts $ and r/R register prefixes, reduced modulo 8", func() {
			words, _ := a.Assemble("ADD $3, R9, r2")
			Expect(words).To(Equal([]string{"0000001010011000"}))
		})

		It("emits a NOP with a warning for an unknown mnemonic", func() {
			words, warnings := a.Assemble("HALT")
			Expect(words).To(Equal([]string{"1111000000000000"}))
			Expect(warnings).To(HaveLen(1))
			Expect(warnings[0].Line).To(Equal(1))
		})

		It("emits a NOP with a warning for a malformed immediate", func() {
			words, warnings := a.Assemble("ADDI r1, r0, banana")
			Expect(words).To(Equal([]string{"1111000000000000"}))
			Expect(warnings).To(HaveLen(1))
		})

		It("emits a NOP with a warning for a malformed register", func() {
			words, warnings := a.Assemble("ADD r1, rX, r2")
			Expect(words).To(Equal([]string{"1111000000000000"}))
			Expect(warnings).To(HaveLen(1))

			words, warnings = a.Assemble("JR $abc")
			Expect(words).To(Equal([]string{"1111000000000000"}))
			Expect(warnings).To(HaveLen(1))
		})

		It("silently truncates an out-of-range immediate rather than diagnosing it", func() {
			words, warnings := a.Assemble("ADDI r1, r0, 100")
			Expect(warnings).To(BeEmpty())
			Expect(words).To(Equal([]string{"0101000001100100"}))
		})

		It("tracks line numbers across multiple lines", func() {
			_, warnings := a.Assemble("NOP\nBOGUS\nNOP")
			Expect(warnings).To(HaveLen(1))
			Expect(warnings[0].Line).To(Equal(2))
		})
	})

	Describe("Disassemble", func() {
		It("is the inverse of Assemble for a canonically formatted line", func() {
			line := "ADD r3, r1, r2"
			words, _ := a.Assemble(line)
			Expect(a.Disassemble(words[0])).To(Equal(line))
		})

		It("reproduces the imm(rs) spelling for LW/SW", func() {
			Expect(a.Disassemble("1000001010000100")).To(Equal("LW r2, 4(r1)"))
			Expect(a.Disassemble("1001001010000100")).To(Equal("SW r2, 4(r1)"))
		})

		It("returns the distinguished invalid token for the wrong length", func() {
			Expect(a.Disassemble("101")).To(Equal(assembler.InvalidDisassembly))
			Expect(a.Disassemble("")).To(Equal(assembler.InvalidDisassembly))
		})

		It("round-trips a non-NOP word through assemble(disassemble(word))", func() {
			word := "0101001010000101"
			text := a.Disassemble(word)
			words, warnings := a.Assemble(text)
			Expect(warnings).To(BeEmpty())
			Expect(words).To(Equal([]string{word}))
		})
	})
})
