package virt

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/jbweber/virtd/internal/hypervisor"
)

// DomainInfo is a snapshot of a domain's state and resource accounting.
type DomainInfo struct {
	State       DomainState
	MaxMemoryKB uint64
	MemoryKB    uint64
	VirtCPUs    uint32
	CPUTimeNS   uint64
}

// Domain owns one reference to a domain object. It cannot be cloned; look
// the domain up again to get another owner. Close releases the reference.
type Domain struct {
	surface  hypervisor.Surface
	handle   hypervisor.DomainHandle
	lock     sync.Locker
	released atomic.Bool
}

func (d *Domain) call(fn func()) {
	if d.lock != nil {
		d.lock.Lock()
		defer d.lock.Unlock()
	}
	fn()
}

// Name returns the domain name, or "" if it cannot be read.
func (d *Domain) Name() string {
	if d.released.Load() {
		return ""
	}

	var (
		name string
		err  error
	)
	d.call(func() { name, err = d.surface.DomainGetName(d.handle) })
	if err != nil {
		return ""
	}
	return name
}

func (d *Domain) lifecycle(verb string, fn func() error) error {
	if d.released.Load() {
		return opError(ErrClosed, nil, "%s domain", verb)
	}

	var err error
	d.call(func() { err = fn() })
	if err != nil {
		return opError(ErrLifecycle, err, "%s domain %s", verb, d.Name())
	}
	return nil
}

// Start boots a defined, inactive domain.
func (d *Domain) Start() error {
	return d.lifecycle("start", func() error { return d.surface.DomainCreate(d.handle) })
}

// Shutdown asks the guest to power off. It returns once the request is
// accepted; the domain may keep running for a while.
func (d *Domain) Shutdown() error {
	return d.lifecycle("shut down", func() error { return d.surface.DomainShutdown(d.handle) })
}

// Reboot asks the guest to reboot using the hypervisor's default method.
// Like Shutdown it does not wait for completion.
func (d *Domain) Reboot() error {
	return d.lifecycle("reboot", func() error { return d.surface.DomainReboot(d.handle, 0) })
}

// Info returns a snapshot of the domain's state and accounting.
func (d *Domain) Info() (DomainInfo, error) {
	if d.released.Load() {
		return DomainInfo{}, opError(ErrClosed, nil, "get domain info")
	}

	var (
		rec hypervisor.DomainInfoRecord
		err error
	)
	d.call(func() { rec, err = d.surface.DomainGetInfo(d.handle) })
	if err != nil {
		return DomainInfo{}, opError(ErrQuery, err, "get info for domain %s", d.Name())
	}

	return DomainInfo{
		State:       DomainStateFromCode(int32(rec.State)),
		MaxMemoryKB: rec.MaxMem,
		MemoryKB:    rec.Memory,
		VirtCPUs:    uint32(rec.NrVirtCPU),
		CPUTimeNS:   rec.CPUTime,
	}, nil
}

// State returns the current run state.
func (d *Domain) State() (DomainState, error) {
	if d.released.Load() {
		return Unknown, opError(ErrClosed, nil, "get domain state")
	}

	var (
		code int32
		err  error
	)
	d.call(func() { code, _, err = d.surface.DomainGetState(d.handle, 0) })
	if err != nil {
		return Unknown, opError(ErrQuery, err, "get state for domain %s", d.Name())
	}
	return DomainStateFromCode(code), nil
}

// Close releases the domain reference. Only the first call has an effect.
func (d *Domain) Close() error {
	if !d.released.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	d.call(func() { err = d.surface.DomainFree(d.handle) })
	if err != nil {
		return opError(ErrQuery, err, "release domain %s", d.handle)
	}
	return nil
}

// Domains is an owned list of domains, as returned by ListAllDomains.
type Domains []*Domain

// Lookup returns the first domain whose name equals name exactly, or nil.
// The returned domain is still owned by ds.
func (ds Domains) Lookup(name string) *Domain {
	for _, d := range ds {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

// Close releases every domain in the list.
func (ds Domains) Close() error {
	var errs []error
	for _, d := range ds {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
