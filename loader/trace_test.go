package loader_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/loader"
)

func parse(text string) ([]insts.Instruction, error) {
	return loader.Parse(strings.NewReader(text))
}

var _ = Describe("Parse", func() {
	It("should parse every instruction form", func() {
		prog, err := parse(`
			ADD  r1 r2 r3
			SUB  r4 r5 r6
			LOAD r1 [r0+4]
			STORE r7 [r0-8]
			BEQ  r1 r2 3
			BNE  r1 r2 -1
			NOP
			HALT
		`)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog).To(HaveLen(8))

		Expect(prog[0].Op).To(Equal(insts.OpADD))
		Expect(prog[0].Rd).To(Equal(1))
		Expect(prog[0].Rs1).To(Equal(2))
		Expect(prog[0].Rs2).To(Equal(3))

		Expect(prog[2].Op).To(Equal(insts.OpLOAD))
		Expect(prog[2].Rd).To(Equal(1))
		Expect(prog[2].Rs1).To(Equal(0))
		Expect(prog[2].Imm).To(Equal(4))
		Expect(prog[2].Rs2).To(Equal(insts.RegNone))

		Expect(prog[3].Op).To(Equal(insts.OpSTORE))
		Expect(prog[3].Rs2).To(Equal(7))
		Expect(prog[3].Rs1).To(Equal(0))
		Expect(prog[3].Imm).To(Equal(-8))
		Expect(prog[3].Rd).To(Equal(insts.RegNone))

		Expect(prog[4].Op).To(Equal(insts.OpBEQ))
		Expect(prog[4].Imm).To(Equal(3))
		Expect(prog[5].Op).To(Equal(insts.OpBNE))
		Expect(prog[5].Imm).To(Equal(-1))

		Expect(prog[6].Op).To(Equal(insts.OpNOP))
		Expect(prog[7].Op).To(Equal(insts.OpHALT))
	})

	It("should assign sequential IDs and PCs", func() {
		prog, err := parse("NOP\nNOP\nHALT\n")
		Expect(err).NotTo(HaveOccurred())
		for i, ins := range prog {
			Expect(ins.ID).To(Equal(i))
			Expect(ins.PC).To(Equal(i))
		}
	})

	It("should skip comments and blank lines", func() {
		prog, err := parse(`
			# full comment line

			NOP   # trailing comment
			HALT
		`)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog).To(HaveLen(2))
		Expect(prog[0].Op).To(Equal(insts.OpNOP))
	})

	It("should accept r/R/x/X prefixes and bare indices", func() {
		prog, err := parse("ADD r1 X2 3\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(prog[0].Rd).To(Equal(1))
		Expect(prog[0].Rs1).To(Equal(2))
		Expect(prog[0].Rs2).To(Equal(3))
	})

	It("should accept case-insensitive opcodes", func() {
		prog, err := parse("add r1 r2 r3\nhalt\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(prog[0].Op).To(Equal(insts.OpADD))
		Expect(prog[1].Op).To(Equal(insts.OpHALT))
	})

	It("should treat [rX] as zero displacement", func() {
		prog, err := parse("LOAD r1 [r0]\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(prog[0].Rs1).To(Equal(0))
		Expect(prog[0].Imm).To(Equal(0))
	})

	DescribeTable("rejecting malformed lines",
		func(line string) {
			_, err := parse(line)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("line 1"))
		},
		Entry("unknown opcode", "FOO r1 r2 r3"),
		Entry("missing operand", "ADD r1 r2"),
		Entry("bad register token", "ADD r1 rX r3"),
		Entry("register out of range", "ADD r1 r32 r3"),
		Entry("negative register", "ADD r1 r-1 r3"),
		Entry("malformed memory operand", "LOAD r1 r0+4"),
		Entry("bad displacement", "LOAD r1 [r0+x]"),
		Entry("bad branch immediate", "BEQ r1 r2 seven"),
	)

	It("should return no partial program on failure", func() {
		prog, err := parse("NOP\nNOP\nBROKEN\n")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("line 3"))
		Expect(prog).To(BeNil())
	})
})

var _ = Describe("Load", func() {
	It("should load a trace from disk", func() {
		dir, err := os.MkdirTemp("", "pipesim-trace")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "sample.trace")
		err = os.WriteFile(path, []byte("LOAD r1 [r0+0]\nADD r2 r1 r0\nHALT\n"), 0644)
		Expect(err).NotTo(HaveOccurred())

		prog, err := loader.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog).To(HaveLen(3))
	})

	It("should fail for a missing file", func() {
		_, err := loader.Load("no/such/trace.txt")
		Expect(err).To(HaveOccurred())
	})
})
