package insts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxLineLength is the longest trace line accepted, excluding the newline.
const MaxLineLength = 79

var (
	// ErrMalformed reports a trace line that does not fit the grammar of
	// its mnemonic.
	ErrMalformed = errors.New("malformed instruction")

	// ErrUnknownInstruction reports a mnemonic the simulator cannot model.
	ErrUnknownInstruction = errors.New("unknown instruction")
)

// Parser turns trace lines into instruction descriptors.
type Parser struct{}

// NewParser creates a new trace line parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses one trace line of the form
//
//	<hex_iaddr> <mnemonic> [operands...]
//
// Mnemonics are matched by prefix, longest first where two prefixes
// overlap (jal before j).
func (p *Parser) Parse(line string) (Instruction, error) {
	if len(line) > MaxLineLength {
		return Instruction{}, fmt.Errorf("%w: line is %d bytes, limit is %d",
			ErrMalformed, len(line), MaxLineLength)
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Instruction{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}

	addr, err := parseHex(fields[0])
	if err != nil {
		return Instruction{}, fmt.Errorf("%w: bad address %q", ErrMalformed, fields[0])
	}

	mnemonic := fields[1]
	operands := fields[2:]

	switch {
	case hasAnyPrefix(mnemonic, "add", "sll", "ori"):
		return p.parseRType(addr, mnemonic, operands)
	case strings.HasPrefix(mnemonic, "lui"):
		return p.parseLUI(addr, mnemonic, operands)
	case hasAnyPrefix(mnemonic, "lw", "sw"):
		return p.parseMemory(addr, mnemonic, operands)
	case strings.HasPrefix(mnemonic, "beq"):
		return Instruction{
			Kind:    KindBranch,
			Addr:    addr,
			Payload: Branch{Rs: NoReg, Rt: NoReg},
		}, nil
	case strings.HasPrefix(mnemonic, "jal"):
		return Instruction{Kind: KindJAL, Addr: addr, Payload: Jump{Mnemonic: mnemonic}}, nil
	case strings.HasPrefix(mnemonic, "j"):
		// Covers jr as well.
		return Instruction{Kind: KindJump, Addr: addr, Payload: Jump{Mnemonic: mnemonic}}, nil
	case strings.HasPrefix(mnemonic, "syscall"):
		return Instruction{Kind: KindSyscall, Addr: addr}, nil
	case strings.HasPrefix(mnemonic, "nop"):
		return Instruction{Kind: KindNOP, Addr: addr}, nil
	}

	return Instruction{}, fmt.Errorf("%w: %s at address 0x%x",
		ErrUnknownInstruction, mnemonic, addr)
}

// parseRType handles add, sll and ori: a destination and two sources.
func (p *Parser) parseRType(addr uint32, mnemonic string, operands []string) (Instruction, error) {
	if len(operands) < 3 {
		return Instruction{}, fmt.Errorf("%w: RTYPE instruction (%s) at address 0x%x",
			ErrMalformed, mnemonic, addr)
	}

	return Instruction{
		Kind: KindRType,
		Addr: addr,
		Payload: RType{
			Mnemonic: mnemonic,
			Rd:       ParseReg(operands[0]),
			Rs:       ParseReg(operands[1]),
			Rt:       ParseReg(operands[2]),
		},
	}, nil
}

// parseLUI handles lui: a destination and a constant that is not kept.
func (p *Parser) parseLUI(addr uint32, mnemonic string, operands []string) (Instruction, error) {
	if len(operands) < 2 {
		return Instruction{}, fmt.Errorf("%w: RTYPE instruction (%s) at address 0x%x",
			ErrMalformed, mnemonic, addr)
	}

	return Instruction{
		Kind: KindRType,
		Addr: addr,
		Payload: RType{
			Mnemonic: mnemonic,
			Rd:       ParseReg(operands[0]),
			Rs:       NoReg,
			Rt:       NoReg,
		},
	}, nil
}

// parseMemory handles lw and sw. The operands are the data register, the
// offset(base) token and the effective data address in hex. The base
// register is not tracked.
func (p *Parser) parseMemory(addr uint32, mnemonic string, operands []string) (Instruction, error) {
	if len(operands) < 3 {
		return Instruction{}, fmt.Errorf("%w: %s at address 0x%x", ErrMalformed, mnemonic, addr)
	}

	dataAddr, err := parseHex(operands[2])
	if err != nil {
		return Instruction{}, fmt.Errorf("%w: %s at address 0x%x has bad data address %q",
			ErrMalformed, mnemonic, addr, operands[2])
	}

	reg := ParseReg(operands[0])
	if strings.HasPrefix(mnemonic, "lw") {
		return Instruction{
			Kind:    KindLW,
			Addr:    addr,
			Payload: Load{Rt: reg, Base: NoReg, DataAddr: dataAddr},
		}, nil
	}

	return Instruction{
		Kind:    KindSW,
		Addr:    addr,
		Payload: Store{Rt: reg, Base: NoReg, DataAddr: dataAddr},
	}, nil
}

// ParseReg parses a register token such as "$8," or "12". The leading $
// and a trailing comma are dropped and the leading decimal digits are
// converted; a token without digits yields 0.
func ParseReg(token string) int {
	token = strings.TrimSuffix(token, ",")
	token = strings.TrimPrefix(token, "$")

	end := 0
	if end < len(token) && (token[end] == '-' || token[end] == '+') {
		end++
	}
	for end < len(token) && token[end] >= '0' && token[end] <= '9' {
		end++
	}

	n, err := strconv.Atoi(token[:end])
	if err != nil {
		return 0
	}
	return n
}

func parseHex(token string) (uint32, error) {
	token = strings.TrimPrefix(strings.TrimPrefix(token, "0x"), "0X")
	v, err := strconv.ParseUint(token, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
