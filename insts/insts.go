// Package insts provides the instruction descriptors that flow through the
// pipeline and the parser that builds them from trace lines.
//
// A trace line names an instruction that has already executed: its
// instruction address, its mnemonic, its register operands and, for loads
// and stores, the effective data address. The descriptors carry no
// architectural state; they only tell the timing model which stage
// resources an instruction touches.
//
// Usage:
//
//	parser := insts.NewParser()
//	inst, err := parser.Parse("400018 lw $8, 0($29) 7fffefe0")
//	fmt.Printf("Kind: %v, Addr: 0x%x\n", inst.Kind, inst.Addr)
package insts
