package dispatch

import (
	"strconv"

	"github.com/jbweber/virtd/internal/virt"
)

// AcknowledgeMessage is the message returned for every Create and Control
// request that reaches the hypervisor layer, whatever its outcome.
const AcknowledgeMessage = "Success"

// Instruction is a lifecycle command for Control.
type Instruction int32

const (
	InstructionStart Instruction = iota
	InstructionShutdown
	InstructionReboot
)

// ParseInstruction maps a wire value to an Instruction. Values outside the
// known range select InstructionStart.
func ParseInstruction(v int32) Instruction {
	switch Instruction(v) {
	case InstructionShutdown:
		return InstructionShutdown
	case InstructionReboot:
		return InstructionReboot
	default:
		return InstructionStart
	}
}

func (i Instruction) String() string {
	switch i {
	case InstructionStart:
		return "start"
	case InstructionShutdown:
		return "shutdown"
	case InstructionReboot:
		return "reboot"
	default:
		return "instruction(" + strconv.Itoa(int(i)) + ")"
	}
}

// Outcome classifies how a request ended.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "OK"
	case OutcomeNotFound:
		return "NOT_FOUND"
	case OutcomeFailed:
		return "FAILED"
	default:
		return "Outcome(" + strconv.Itoa(int(o)) + ")"
	}
}

// Result is the outcome of Create or Control.
type Result struct {
	Outcome Outcome
	Message string
	// Err is the failure behind a non-OK outcome. It is set in both modes.
	Err error
}

// InfoResult is the outcome of Info. Info is the zero value unless Outcome
// is OutcomeOK.
type InfoResult struct {
	Outcome Outcome
	Info    virt.DomainInfo
	Err     error
}

// Mode selects how failures are reported to the caller.
type Mode int

const (
	// ModeAcknowledge reports failures only through the result's Outcome
	// and Err fields. Operations return a Go error only when the caller's
	// context ends first.
	ModeAcknowledge Mode = iota
	// ModeStrict additionally returns the failure as the Go error.
	ModeStrict
)

func (m Mode) String() string {
	if m == ModeStrict {
		return "strict"
	}
	return "acknowledge"
}
