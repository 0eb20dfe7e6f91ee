package insts

// Kind represents the class of an instruction descriptor.
type Kind uint8

// Instruction kinds. KindNOP is the zero value so that an empty pipeline
// slot is a NOP.
const (
	KindNOP Kind = iota
	KindRType
	KindLW
	KindSW
	KindBranch
	KindJump
	KindJAL
	KindSyscall
)

var kindNames = [...]string{
	KindNOP:     "NOP",
	KindRType:   "RTYPE",
	KindLW:      "LW",
	KindSW:      "SW",
	KindBranch:  "BRANCH",
	KindJump:    "JUMP",
	KindJAL:     "JAL",
	KindSyscall: "SYSCALL",
}

// String returns the upper-case name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// IsMemory reports whether the kind accesses data memory in the MEM stage.
func (k Kind) IsMemory() bool {
	return k == KindLW || k == KindSW
}

// NoReg marks a register operand that the trace does not provide.
const NoReg = -1

// Payload is the kind-specific part of an instruction. The set of payloads
// is closed: RType, Load, Store, Branch and Jump.
type Payload interface {
	payload()
}

// RType is the payload of register-type instructions (add, sll, ori, lui).
type RType struct {
	Mnemonic string
	Rd       int // Destination register
	Rs       int // First source register
	Rt       int // Second source register or constant
}

// Load is the payload of a load word.
type Load struct {
	Rt       int    // Destination register
	Base     int    // Base register
	DataAddr uint32 // Effective data address
}

// Store is the payload of a store word.
type Store struct {
	Rt       int    // Source register
	Base     int    // Base register
	DataAddr uint32 // Effective data address
}

// Branch is the payload of a conditional branch. The registers are kept
// for dumps only; the timing model never reads them.
type Branch struct {
	Rs int
	Rt int
}

// Jump is the payload of j, jr and jal.
type Jump struct {
	Mnemonic string
}

func (RType) payload()  {}
func (Load) payload()   {}
func (Store) payload()  {}
func (Branch) payload() {}
func (Jump) payload()   {}

// Instruction is one trace instruction as it occupies a pipeline slot.
// The zero value is an empty slot: a NOP at address 0.
type Instruction struct {
	Kind    Kind    // Instruction class
	Addr    uint32  // Instruction address
	Payload Payload // Kind-specific operands, nil for NOP and SYSCALL
}

// DataAddress returns the effective data address of a load or store.
func (i Instruction) DataAddress() (uint32, bool) {
	switch p := i.Payload.(type) {
	case Load:
		return p.DataAddr, i.Kind == KindLW
	case Store:
		return p.DataAddr, i.Kind == KindSW
	}
	return 0, false
}

// Mnemonic returns the mnemonic recorded in the payload, or the kind name
// for kinds that do not record one.
func (i Instruction) Mnemonic() string {
	switch p := i.Payload.(type) {
	case RType:
		return p.Mnemonic
	case Jump:
		return p.Mnemonic
	}
	switch i.Kind {
	case KindLW:
		return "lw"
	case KindSW:
		return "sw"
	case KindBranch:
		return "beq"
	case KindSyscall:
		return "syscall"
	}
	return "nop"
}

// IsEmpty reports whether the slot holds no instruction at all.
func (i Instruction) IsEmpty() bool {
	return i.Kind == KindNOP && i.Addr == 0
}
