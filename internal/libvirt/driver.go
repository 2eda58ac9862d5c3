package libvirt

import (
	"fmt"
	"sync"
	"time"

	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/virtd/internal/hypervisor"
)

// connSlot is one open libvirtd session and its reference count.
type connSlot struct {
	client client
	refs   int
}

// domainSlot is one issued domain handle. It holds a reference on its
// session, like virDomain does on virConnect.
type domainSlot struct {
	conn uint64
	dom  libvirt.Domain
}

// Driver implements hypervisor.Surface over go-libvirt.
//
// go-libvirt speaks the libvirtd RPC protocol and has no notion of native
// handles, so the driver keeps a handle table: every session and every
// domain it hands out gets a slot, and slots are freed when their reference
// count drops to zero. Each ConnectOpen dials its own session.
type Driver struct {
	socketPath string
	timeout    time.Duration
	dial       func(uri string) (client, error)

	mu      sync.Mutex
	next    uint64
	conns   map[uint64]*connSlot
	domains map[uint64]domainSlot
}

// NewDriver returns a driver that dials libvirtd. An empty socketPath means
// DefaultSocketPath and a zero timeout means DefaultTimeout.
func NewDriver(socketPath string, timeout time.Duration) *Driver {
	d := newDriver(nil)
	d.socketPath = socketPath
	d.timeout = timeout
	d.dial = func(uri string) (client, error) {
		return connect(uri, d.socketPath, d.timeout)
	}
	return d
}

func newDriver(dial func(uri string) (client, error)) *Driver {
	return &Driver{
		dial:    dial,
		conns:   make(map[uint64]*connSlot),
		domains: make(map[uint64]domainSlot),
	}
}

func (d *Driver) conn(h hypervisor.ConnHandle) (client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.conns[h.ID()]
	if !ok {
		return nil, fmt.Errorf("%s: %w", h, hypervisor.ErrUnknownHandle)
	}
	return slot.client, nil
}

func (d *Driver) domain(h hypervisor.DomainHandle) (client, libvirt.Domain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.domains[h.ID()]
	if !ok {
		return nil, libvirt.Domain{}, fmt.Errorf("%s: %w", h, hypervisor.ErrUnknownHandle)
	}
	return d.conns[slot.conn].client, slot.dom, nil
}

// issueDomain allocates a slot for dom and takes a session reference.
// The caller holds d.mu.
func (d *Driver) issueDomain(conn uint64, dom libvirt.Domain) hypervisor.DomainHandle {
	d.next++
	d.domains[d.next] = domainSlot{conn: conn, dom: dom}
	d.conns[conn].refs++
	return hypervisor.NewHandle[hypervisor.DomainTag](d.next)
}

// release drops one session reference and returns the client to disconnect
// if it was the last one. The caller holds d.mu.
func (d *Driver) release(conn uint64) client {
	slot, ok := d.conns[conn]
	if !ok {
		return nil
	}
	slot.refs--
	if slot.refs > 0 {
		return nil
	}
	delete(d.conns, conn)
	return slot.client
}

func (d *Driver) ConnectOpen(uri string) (hypervisor.ConnHandle, error) {
	c, err := d.dial(uri)
	if err != nil {
		return hypervisor.ConnHandle{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	d.conns[d.next] = &connSlot{client: c, refs: 1}
	return hypervisor.NewHandle[hypervisor.ConnTag](d.next), nil
}

func (d *Driver) ConnectRef(h hypervisor.ConnHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.conns[h.ID()]
	if !ok {
		return fmt.Errorf("%s: %w", h, hypervisor.ErrUnknownHandle)
	}
	slot.refs++
	return nil
}

func (d *Driver) ConnectClose(h hypervisor.ConnHandle) error {
	d.mu.Lock()
	if _, ok := d.conns[h.ID()]; !ok {
		d.mu.Unlock()
		return fmt.Errorf("%s: %w", h, hypervisor.ErrUnknownHandle)
	}
	last := d.release(h.ID())
	d.mu.Unlock()

	return disconnect(last)
}

func disconnect(c client) error {
	if c == nil {
		return nil
	}
	if err := c.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect from libvirt: %w", err)
	}
	return nil
}

func (d *Driver) ConnectGetLibVersion(h hypervisor.ConnHandle) (uint64, error) {
	c, err := d.conn(h)
	if err != nil {
		return 0, err
	}
	return c.ConnectGetLibVersion()
}

func (d *Driver) ConnectGetCapabilities(h hypervisor.ConnHandle) (string, error) {
	c, err := d.conn(h)
	if err != nil {
		return "", err
	}
	return c.ConnectGetCapabilities()
}

func (d *Driver) NodeGetInfo(h hypervisor.ConnHandle) (hypervisor.NodeInfoRecord, error) {
	c, err := d.conn(h)
	if err != nil {
		return hypervisor.NodeInfoRecord{}, err
	}

	model, memory, cpus, mhz, nodes, sockets, cores, threads, err := c.NodeGetInfo()
	if err != nil {
		return hypervisor.NodeInfoRecord{}, err
	}

	rec := hypervisor.NodeInfoRecord{
		Memory:  memory,
		CPUs:    cpus,
		MHz:     mhz,
		Nodes:   nodes,
		Sockets: sockets,
		Cores:   cores,
		Threads: threads,
	}
	for i, b := range model {
		rec.Model[i] = byte(b)
	}
	return rec, nil
}

func (d *Driver) ConnectListAllDomains(h hypervisor.ConnHandle, flags uint32) ([]hypervisor.DomainHandle, error) {
	c, err := d.conn(h)
	if err != nil {
		return nil, err
	}

	// NeedResults: 1 means populate the domains slice
	doms, _, err := c.ConnectListAllDomains(1, libvirt.ConnectListAllDomainsFlags(flags))
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.conns[h.ID()]; !ok {
		return nil, fmt.Errorf("%s: %w", h, hypervisor.ErrUnknownHandle)
	}

	handles := make([]hypervisor.DomainHandle, 0, len(doms))
	for _, dom := range doms {
		if dom.Name == "" {
			// Nothing to address the domain by; report a null entry.
			handles = append(handles, hypervisor.DomainHandle{})
			continue
		}
		handles = append(handles, d.issueDomain(h.ID(), dom))
	}
	return handles, nil
}

func (d *Driver) DomainDefineXML(h hypervisor.ConnHandle, xml string) (hypervisor.DomainHandle, error) {
	c, err := d.conn(h)
	if err != nil {
		return hypervisor.DomainHandle{}, err
	}

	dom, err := c.DomainDefineXML(xml)
	if err != nil {
		return hypervisor.DomainHandle{}, err
	}
	if dom.Name == "" {
		return hypervisor.DomainHandle{}, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.conns[h.ID()]; !ok {
		return hypervisor.DomainHandle{}, fmt.Errorf("%s: %w", h, hypervisor.ErrUnknownHandle)
	}
	return d.issueDomain(h.ID(), dom), nil
}

func (d *Driver) DomainGetName(h hypervisor.DomainHandle) (string, error) {
	_, dom, err := d.domain(h)
	if err != nil {
		return "", err
	}
	return dom.Name, nil
}

func (d *Driver) DomainGetInfo(h hypervisor.DomainHandle) (hypervisor.DomainInfoRecord, error) {
	c, dom, err := d.domain(h)
	if err != nil {
		return hypervisor.DomainInfoRecord{}, err
	}

	state, maxMem, memory, nrVirtCPU, cpuTime, err := c.DomainGetInfo(dom)
	if err != nil {
		return hypervisor.DomainInfoRecord{}, err
	}
	return hypervisor.DomainInfoRecord{
		State:     state,
		MaxMem:    maxMem,
		Memory:    memory,
		NrVirtCPU: nrVirtCPU,
		CPUTime:   cpuTime,
	}, nil
}

func (d *Driver) DomainGetState(h hypervisor.DomainHandle, flags uint32) (int32, int32, error) {
	c, dom, err := d.domain(h)
	if err != nil {
		return 0, 0, err
	}
	return c.DomainGetState(dom, flags)
}

func (d *Driver) DomainCreate(h hypervisor.DomainHandle) error {
	c, dom, err := d.domain(h)
	if err != nil {
		return err
	}
	return c.DomainCreate(dom)
}

func (d *Driver) DomainShutdown(h hypervisor.DomainHandle) error {
	c, dom, err := d.domain(h)
	if err != nil {
		return err
	}
	return c.DomainShutdown(dom)
}

func (d *Driver) DomainReboot(h hypervisor.DomainHandle, flags uint32) error {
	c, dom, err := d.domain(h)
	if err != nil {
		return err
	}
	return c.DomainReboot(dom, libvirt.DomainRebootFlagValues(flags))
}

func (d *Driver) DomainFree(h hypervisor.DomainHandle) error {
	d.mu.Lock()
	slot, ok := d.domains[h.ID()]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%s: %w", h, hypervisor.ErrUnknownHandle)
	}
	delete(d.domains, h.ID())
	last := d.release(slot.conn)
	d.mu.Unlock()

	return disconnect(last)
}

var _ hypervisor.Surface = (*Driver)(nil)
