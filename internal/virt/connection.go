package virt

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jbweber/virtd/internal/hypervisor"
)

// listAllDomainsFlags requests the unfiltered set (active and inactive).
const listAllDomainsFlags = 0

// NodeInfo is a point-in-time snapshot of the host hardware.
type NodeInfo struct {
	Model    string
	MemoryKB uint64
	CPUs     uint32
	MHz      uint32
	Nodes    uint32
	Sockets  uint32
	Cores    uint32
	Threads  uint32
}

// Connection owns one reference to a hypervisor session.
//
// A Connection is safe for concurrent use. Clone hands out another owner of
// the same session; every owner must be closed. Methods called after Close
// return ErrClosed.
type Connection struct {
	surface hypervisor.Surface
	handle  hypervisor.ConnHandle
	uri     string
	lock    sync.Locker
	closed  atomic.Bool
}

// Option configures Open.
type Option func(*Connection)

// WithSerializedCalls funnels every native call made through the connection,
// its clones and its domains through a single mutex. Use it when the
// hypervisor binding is not known to tolerate concurrent calls.
func WithSerializedCalls() Option {
	return func(c *Connection) {
		c.lock = &sync.Mutex{}
	}
}

// Open establishes a session to the hypervisor at uri.
//
// The context bounds how long the caller waits; the native open itself cannot
// be interrupted. If ctx ends first, the session is closed once the native
// call returns.
func Open(ctx context.Context, surface hypervisor.Surface, uri string, opts ...Option) (*Connection, error) {
	type result struct {
		handle hypervisor.ConnHandle
		err    error
	}
	// Unbuffered: a result is either received here or cleaned up by the
	// opener after the caller has gone.
	resultCh := make(chan result)
	abandoned := make(chan struct{})

	go func() {
		h, err := surface.ConnectOpen(uri)
		select {
		case resultCh <- result{handle: h, err: err}:
		case <-abandoned:
			if err == nil && !h.IsNull() {
				_ = surface.ConnectClose(h)
			}
		}
	}()

	var res result
	select {
	case <-ctx.Done():
		close(abandoned)
		return nil, opError(ErrConnect, ctx.Err(), "open connection to %s", uri)
	case res = <-resultCh:
	}

	if res.err != nil {
		return nil, opError(ErrConnect, res.err, "open connection to %s", uri)
	}
	if res.handle.IsNull() {
		return nil, opError(ErrConnect, hypervisor.ErrNullHandle, "open connection to %s", uri)
	}

	c := &Connection{surface: surface, handle: res.handle, uri: uri}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URI returns the URI the session was opened with.
func (c *Connection) URI() string {
	return c.uri
}

// call runs fn under the serialization lock, if one is configured.
func (c *Connection) call(fn func()) {
	if c.lock != nil {
		c.lock.Lock()
		defer c.lock.Unlock()
	}
	fn()
}

func (c *Connection) check(op string) error {
	if c.closed.Load() {
		return opError(ErrClosed, nil, "%s", op)
	}
	return nil
}

// Clone returns a new owner of the same session by taking a native
// reference. The clone must be closed independently.
func (c *Connection) Clone() (*Connection, error) {
	if err := c.check("clone connection"); err != nil {
		return nil, err
	}

	var err error
	c.call(func() { err = c.surface.ConnectRef(c.handle) })
	if err != nil {
		return nil, opError(ErrRefFailed, err, "clone connection to %s", c.uri)
	}

	return &Connection{surface: c.surface, handle: c.handle, uri: c.uri, lock: c.lock}, nil
}

// Close drops this owner's reference. Only the first call has an effect.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	c.call(func() { err = c.surface.ConnectClose(c.handle) })
	if err != nil {
		return fmt.Errorf("failed to close connection to %s: %w", c.uri, err)
	}
	return nil
}

// Ping verifies the session is alive.
func (c *Connection) Ping() error {
	_, err := c.LibVersion()
	return err
}

// LibVersion returns the hypervisor library version, encoded as
// major*1,000,000 + minor*1,000 + release.
func (c *Connection) LibVersion() (uint64, error) {
	if err := c.check("get library version"); err != nil {
		return 0, err
	}

	var (
		version uint64
		err     error
	)
	c.call(func() { version, err = c.surface.ConnectGetLibVersion(c.handle) })
	if err != nil {
		return 0, opError(ErrQuery, err, "get library version")
	}
	return version, nil
}

// Capabilities returns the host capabilities XML document.
func (c *Connection) Capabilities() (string, error) {
	if err := c.check("get capabilities"); err != nil {
		return "", err
	}

	var (
		caps string
		err  error
	)
	c.call(func() { caps, err = c.surface.ConnectGetCapabilities(c.handle) })
	if err != nil {
		return "", opError(ErrQuery, err, "get capabilities")
	}
	if caps == "" {
		return "", opError(ErrQuery, hypervisor.ErrNullHandle, "get capabilities")
	}
	return caps, nil
}

// NodeInfo returns a snapshot of the host hardware.
func (c *Connection) NodeInfo() (NodeInfo, error) {
	if err := c.check("get node info"); err != nil {
		return NodeInfo{}, err
	}

	var (
		rec hypervisor.NodeInfoRecord
		err error
	)
	c.call(func() { rec, err = c.surface.NodeGetInfo(c.handle) })
	if err != nil {
		return NodeInfo{}, opError(ErrQuery, err, "get node info")
	}

	return NodeInfo{
		Model:    trimModel(rec.Model[:]),
		MemoryKB: rec.Memory,
		CPUs:     uint32(rec.CPUs),
		MHz:      uint32(rec.MHz),
		Nodes:    uint32(rec.Nodes),
		Sockets:  uint32(rec.Sockets),
		Cores:    uint32(rec.Cores),
		Threads:  uint32(rec.Threads),
	}, nil
}

func trimModel(raw []byte) string {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(string(raw))
}

// ListAllDomains returns every domain known to the session, active or not.
// The caller owns the result and must Close it. Null entries in the native
// result are skipped.
func (c *Connection) ListAllDomains() (Domains, error) {
	if err := c.check("list domains"); err != nil {
		return nil, err
	}

	var (
		handles []hypervisor.DomainHandle
		err     error
	)
	c.call(func() { handles, err = c.surface.ConnectListAllDomains(c.handle, listAllDomainsFlags) })
	if err != nil {
		return nil, opError(ErrQuery, err, "list domains")
	}

	domains := make(Domains, 0, len(handles))
	for _, h := range handles {
		if h.IsNull() {
			continue
		}
		domains = append(domains, c.adopt(h))
	}
	return domains, nil
}

// DefineDomain persists a domain from its XML descriptor without starting
// it. The caller owns the returned Domain.
func (c *Connection) DefineDomain(xml string) (*Domain, error) {
	if err := c.check("define domain"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(xml) == "" {
		return nil, opError(ErrDefine, fmt.Errorf("descriptor is empty"), "define domain")
	}
	if strings.IndexByte(xml, 0) >= 0 {
		return nil, opError(ErrDefine, fmt.Errorf("descriptor contains a NUL byte"), "define domain")
	}

	var (
		h   hypervisor.DomainHandle
		err error
	)
	c.call(func() { h, err = c.surface.DomainDefineXML(c.handle, xml) })
	if err != nil {
		return nil, opError(ErrDefine, err, "define domain")
	}
	if h.IsNull() {
		return nil, opError(ErrDefine, hypervisor.ErrNullHandle, "define domain")
	}
	return c.adopt(h), nil
}

// adopt transfers ownership of a freshly issued domain handle.
func (c *Connection) adopt(h hypervisor.DomainHandle) *Domain {
	return &Domain{surface: c.surface, handle: h, lock: c.lock}
}
