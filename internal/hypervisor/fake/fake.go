// Package fake provides an in-memory hypervisor.Surface for tests.
//
// It keeps native-style reference counts for sessions and domain handles and
// counts every acquisition and release so tests can assert ownership rules
// (exactly one teardown per session, one free per domain handle).
package fake

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jbweber/virtd/internal/descriptor"
	"github.com/jbweber/virtd/internal/hypervisor"
)

// Native domain state codes.
const (
	StateNoState     int32 = 0
	StateRunning     int32 = 1
	StateBlocked     int32 = 2
	StatePaused      int32 = 3
	StateShutdown    int32 = 4
	StateShutoff     int32 = 5
	StateCrashed     int32 = 6
	StatePMSuspended int32 = 7
)

// DomainSpec describes a domain known to the fake hypervisor.
type DomainSpec struct {
	Name      string
	State     int32
	MaxMemKB  uint64
	MemoryKB  uint64
	VCPUs     uint16
	CPUTimeNS uint64
	XML       string
}

type session struct {
	refs int
}

type domainRef struct {
	conn uint64
	name string
}

// Hypervisor is an in-memory hypervisor. The exported fields configure
// fixtures and failure injection and must be set before use.
type Hypervisor struct {
	// Node is returned by NodeGetInfo.
	Node hypervisor.NodeInfoRecord
	// Capabilities is returned by ConnectGetCapabilities.
	Capabilities string
	// Version is returned by ConnectGetLibVersion.
	Version uint64
	// RejectURIs makes ConnectOpen return a null handle for these URIs.
	RejectURIs []string
	// NullListEntries replaces these positions in ConnectListAllDomains
	// results with null handles.
	NullListEntries []int
	// Fail maps a Surface method name to the error it should return.
	Fail map[string]error

	mu       sync.Mutex
	next     uint64
	sessions map[uint64]*session
	handles  map[uint64]domainRef
	domains  []*DomainSpec
	counts   Counts
	calls    []string
}

// Counts tracks acquisitions and releases.
type Counts struct {
	Opens      int // successful ConnectOpen calls
	Refs       int // successful ConnectRef calls
	Closes     int // ConnectClose calls that dropped a reference
	Teardowns  int // sessions whose last reference was dropped
	DomainRefs int // domain handles issued
	DomainFree int // domain handles released
}

// New returns a hypervisor holding the given domains.
func New(domains ...DomainSpec) *Hypervisor {
	h := &Hypervisor{
		Node: NodeInfo("fake-model", 16*1024*1024, 8, 2400, 1, 1, 4, 2),
		Capabilities: `<capabilities><host><uuid>00000000-0000-0000-0000-000000000001</uuid>` +
			`<cpu><arch>x86_64</arch><model>fake</model></cpu></host>` +
			`<guest><os_type>hvm</os_type><arch name="x86_64"></arch></guest></capabilities>`,
		Version:  10000000,
		sessions: make(map[uint64]*session),
		handles:  make(map[uint64]domainRef),
	}
	for i := range domains {
		d := domains[i]
		h.domains = append(h.domains, &d)
	}
	return h
}

// NodeInfo builds a NodeInfoRecord with a NUL padded model.
func NodeInfo(model string, memoryKB uint64, cpus, mhz, nodes, sockets, cores, threads int32) hypervisor.NodeInfoRecord {
	rec := hypervisor.NodeInfoRecord{
		Memory:  memoryKB,
		CPUs:    cpus,
		MHz:     mhz,
		Nodes:   nodes,
		Sockets: sockets,
		Cores:   cores,
		Threads: threads,
	}
	copy(rec.Model[:], model)
	return rec
}

// Counts returns a snapshot of the acquisition counters.
func (h *Hypervisor) Counts() Counts {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts
}

// Calls returns the recorded lifecycle calls as "Method:domain".
func (h *Hypervisor) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// LiveSessions returns the number of sessions with outstanding references.
func (h *Hypervisor) LiveSessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// LiveDomainHandles returns the number of domain handles not yet freed.
func (h *Hypervisor) LiveDomainHandles() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handles)
}

// Domain returns a copy of the named domain's current spec.
func (h *Hypervisor) Domain(name string) (DomainSpec, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d := h.lookup(name); d != nil {
		return *d, true
	}
	return DomainSpec{}, false
}

func (h *Hypervisor) lookup(name string) *DomainSpec {
	for _, d := range h.domains {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func (h *Hypervisor) failure(method string) error {
	if h.Fail == nil {
		return nil
	}
	return h.Fail[method]
}

func (h *Hypervisor) session(conn hypervisor.ConnHandle) (*session, error) {
	s, ok := h.sessions[conn.ID()]
	if !ok {
		return nil, fmt.Errorf("%s: %w", conn, hypervisor.ErrUnknownHandle)
	}
	return s, nil
}

func (h *Hypervisor) domain(dom hypervisor.DomainHandle) (*DomainSpec, error) {
	ref, ok := h.handles[dom.ID()]
	if !ok {
		return nil, fmt.Errorf("%s: %w", dom, hypervisor.ErrUnknownHandle)
	}
	d := h.lookup(ref.name)
	if d == nil {
		return nil, fmt.Errorf("domain %q no longer exists", ref.name)
	}
	return d, nil
}

// unref drops one session reference; the caller holds h.mu.
func (h *Hypervisor) unref(id uint64) {
	s, ok := h.sessions[id]
	if !ok {
		return
	}
	s.refs--
	if s.refs <= 0 {
		delete(h.sessions, id)
		h.counts.Teardowns++
	}
}

// issueDomain allocates a domain handle holding a session reference; the
// caller holds h.mu.
func (h *Hypervisor) issueDomain(conn uint64, name string) hypervisor.DomainHandle {
	h.next++
	h.handles[h.next] = domainRef{conn: conn, name: name}
	h.sessions[conn].refs++
	h.counts.DomainRefs++
	return hypervisor.NewHandle[hypervisor.DomainTag](h.next)
}

func (h *Hypervisor) ConnectOpen(uri string) (hypervisor.ConnHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failure("ConnectOpen"); err != nil {
		return hypervisor.ConnHandle{}, err
	}
	if uri == "" {
		return hypervisor.ConnHandle{}, nil
	}
	for _, rejected := range h.RejectURIs {
		if rejected == uri {
			return hypervisor.ConnHandle{}, nil
		}
	}

	h.next++
	h.sessions[h.next] = &session{refs: 1}
	h.counts.Opens++
	return hypervisor.NewHandle[hypervisor.ConnTag](h.next), nil
}

func (h *Hypervisor) ConnectRef(conn hypervisor.ConnHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failure("ConnectRef"); err != nil {
		return err
	}
	s, err := h.session(conn)
	if err != nil {
		return err
	}
	s.refs++
	h.counts.Refs++
	return nil
}

func (h *Hypervisor) ConnectClose(conn hypervisor.ConnHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.session(conn); err != nil {
		return err
	}
	h.counts.Closes++
	h.unref(conn.ID())
	return nil
}

func (h *Hypervisor) ConnectGetLibVersion(conn hypervisor.ConnHandle) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failure("ConnectGetLibVersion"); err != nil {
		return 0, err
	}
	if _, err := h.session(conn); err != nil {
		return 0, err
	}
	return h.Version, nil
}

func (h *Hypervisor) ConnectGetCapabilities(conn hypervisor.ConnHandle) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failure("ConnectGetCapabilities"); err != nil {
		return "", err
	}
	if _, err := h.session(conn); err != nil {
		return "", err
	}
	return h.Capabilities, nil
}

func (h *Hypervisor) NodeGetInfo(conn hypervisor.ConnHandle) (hypervisor.NodeInfoRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failure("NodeGetInfo"); err != nil {
		return hypervisor.NodeInfoRecord{}, err
	}
	if _, err := h.session(conn); err != nil {
		return hypervisor.NodeInfoRecord{}, err
	}
	return h.Node, nil
}

func (h *Hypervisor) ConnectListAllDomains(conn hypervisor.ConnHandle, _ uint32) ([]hypervisor.DomainHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failure("ConnectListAllDomains"); err != nil {
		return nil, err
	}
	if _, err := h.session(conn); err != nil {
		return nil, err
	}

	nulls := make(map[int]bool, len(h.NullListEntries))
	for _, i := range h.NullListEntries {
		nulls[i] = true
	}

	out := make([]hypervisor.DomainHandle, 0, len(h.domains))
	for i, d := range h.domains {
		if nulls[i] {
			out = append(out, hypervisor.DomainHandle{})
			continue
		}
		out = append(out, h.issueDomain(conn.ID(), d.Name))
	}
	return out, nil
}

func (h *Hypervisor) DomainDefineXML(conn hypervisor.ConnHandle, xml string) (hypervisor.DomainHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failure("DomainDefineXML"); err != nil {
		return hypervisor.DomainHandle{}, err
	}
	if _, err := h.session(conn); err != nil {
		return hypervisor.DomainHandle{}, err
	}

	name, err := descriptor.Name(xml)
	if err != nil {
		return hypervisor.DomainHandle{}, fmt.Errorf("XML error: %w", err)
	}

	if d := h.lookup(name); d != nil {
		d.XML = xml
	} else {
		h.domains = append(h.domains, &DomainSpec{
			Name:     name,
			State:    StateShutoff,
			MaxMemKB: 1024 * 1024,
			VCPUs:    1,
			XML:      xml,
		})
	}
	return h.issueDomain(conn.ID(), name), nil
}

func (h *Hypervisor) DomainGetName(dom hypervisor.DomainHandle) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failure("DomainGetName"); err != nil {
		return "", err
	}
	d, err := h.domain(dom)
	if err != nil {
		return "", err
	}
	return d.Name, nil
}

func (h *Hypervisor) DomainGetInfo(dom hypervisor.DomainHandle) (hypervisor.DomainInfoRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failure("DomainGetInfo"); err != nil {
		return hypervisor.DomainInfoRecord{}, err
	}
	d, err := h.domain(dom)
	if err != nil {
		return hypervisor.DomainInfoRecord{}, err
	}
	return hypervisor.DomainInfoRecord{
		State:     uint8(d.State),
		MaxMem:    d.MaxMemKB,
		Memory:    d.MemoryKB,
		NrVirtCPU: d.VCPUs,
		CPUTime:   d.CPUTimeNS,
	}, nil
}

func (h *Hypervisor) DomainGetState(dom hypervisor.DomainHandle, _ uint32) (int32, int32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failure("DomainGetState"); err != nil {
		return 0, 0, err
	}
	d, err := h.domain(dom)
	if err != nil {
		return 0, 0, err
	}
	return d.State, 0, nil
}

var (
	errAlreadyRunning = errors.New("requested operation is not valid: domain is already running")
	errNotRunning     = errors.New("requested operation is not valid: domain is not running")
)

func (h *Hypervisor) DomainCreate(dom hypervisor.DomainHandle) error {
	return h.transition("DomainCreate", dom, func(d *DomainSpec) error {
		if d.State == StateRunning {
			return errAlreadyRunning
		}
		d.State = StateRunning
		d.MemoryKB = d.MaxMemKB
		return nil
	})
}

func (h *Hypervisor) DomainShutdown(dom hypervisor.DomainHandle) error {
	return h.transition("DomainShutdown", dom, func(d *DomainSpec) error {
		if d.State != StateRunning {
			return errNotRunning
		}
		d.State = StateShutoff
		d.MemoryKB = 0
		return nil
	})
}

func (h *Hypervisor) DomainReboot(dom hypervisor.DomainHandle, _ uint32) error {
	return h.transition("DomainReboot", dom, func(d *DomainSpec) error {
		if d.State != StateRunning {
			return errNotRunning
		}
		return nil
	})
}

func (h *Hypervisor) transition(method string, dom hypervisor.DomainHandle, apply func(*DomainSpec) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	d, err := h.domain(dom)
	if err != nil {
		return err
	}
	h.calls = append(h.calls, method+":"+d.Name)
	if err := h.failure(method); err != nil {
		return err
	}
	return apply(d)
}

func (h *Hypervisor) DomainFree(dom hypervisor.DomainHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ref, ok := h.handles[dom.ID()]
	if !ok {
		return fmt.Errorf("%s: %w", dom, hypervisor.ErrUnknownHandle)
	}
	delete(h.handles, dom.ID())
	h.counts.DomainFree++
	h.unref(ref.conn)
	return nil
}

var _ hypervisor.Surface = (*Hypervisor)(nil)
