package hypervisor

import "fmt"

// ConnTag marks a handle as referring to a hypervisor session.
type ConnTag struct{}

// DomainTag marks a handle as referring to a single domain.
type DomainTag struct{}

// Tag is the set of resource kinds a Handle can refer to.
type Tag interface {
	ConnTag | DomainTag
}

// Handle is an opaque identifier for a native hypervisor resource. The zero
// value is the null handle. The type parameter keeps connection handles and
// domain handles from being mixed up at compile time.
//
// A Handle is a plain value; copying it does not take a reference. Only the
// surface that issued it can add references (Surface.ConnectRef) or release
// them.
type Handle[T Tag] struct {
	id uint64
}

// ConnHandle refers to an open hypervisor session.
type ConnHandle = Handle[ConnTag]

// DomainHandle refers to a domain object held by a session.
type DomainHandle = Handle[DomainTag]

// NewHandle wraps a raw identifier issued by a Surface implementation.
func NewHandle[T Tag](id uint64) Handle[T] {
	return Handle[T]{id: id}
}

// ID returns the raw identifier.
func (h Handle[T]) ID() uint64 {
	return h.id
}

// IsNull reports whether h is the null handle.
func (h Handle[T]) IsNull() bool {
	return h.id == 0
}

func (h Handle[T]) String() string {
	var tag T
	switch any(tag).(type) {
	case ConnTag:
		return fmt.Sprintf("conn#%d", h.id)
	default:
		return fmt.Sprintf("domain#%d", h.id)
	}
}
