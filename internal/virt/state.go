package virt

// DomainState is the run state of a domain as reported by the hypervisor.
type DomainState int

const (
	NoState DomainState = iota
	Running
	Blocked
	Paused
	Shutdown
	Shutoff
	Crashed
	PMSuspended
	Unknown
)

// DomainStateFromCode translates a native state code. Codes the hypervisor
// may add in the future map to Unknown.
func DomainStateFromCode(code int32) DomainState {
	if code < 0 || code >= int32(Unknown) {
		return Unknown
	}
	return DomainState(code)
}

func (s DomainState) String() string {
	switch s {
	case NoState:
		return "No State"
	case Running:
		return "Running"
	case Blocked:
		return "Blocked"
	case Paused:
		return "Paused"
	case Shutdown:
		return "Shutdown"
	case Shutoff:
		return "Shutoff"
	case Crashed:
		return "Crashed"
	case PMSuspended:
		return "Suspended Power Management"
	default:
		return "Unknown"
	}
}
