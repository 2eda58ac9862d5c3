package virt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jbweber/virtd/internal/hypervisor"
	"github.com/jbweber/virtd/internal/hypervisor/fake"
)

const testURI = "test:///default"

func openTest(t *testing.T, hv *fake.Hypervisor, opts ...Option) *Connection {
	t.Helper()
	conn, err := Open(context.Background(), hv, testURI, opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func domainXML(name string) string {
	return `<domain type="kvm"><name>` + name + `</name><memory unit="KiB">524288</memory><vcpu>1</vcpu></domain>`
}

func TestOpen_NodeInfoMatchesFixture(t *testing.T) {
	hv := fake.New()
	hv.Node = fake.NodeInfo("Intel(R) Xeon   ", 65843012, 32, 2900, 2, 2, 8, 2)

	conn := openTest(t, hv)

	got, err := conn.NodeInfo()
	if err != nil {
		t.Fatalf("NodeInfo() error = %v", err)
	}

	want := NodeInfo{
		Model:    "Intel(R) Xeon",
		MemoryKB: 65843012,
		CPUs:     32,
		MHz:      2900,
		Nodes:    2,
		Sockets:  2,
		Cores:    8,
		Threads:  2,
	}
	if got != want {
		t.Errorf("NodeInfo() = %+v, want %+v", got, want)
	}
	if conn.URI() != testURI {
		t.Errorf("URI() = %q, want %q", conn.URI(), testURI)
	}
}

func TestOpen_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(hv *fake.Hypervisor)
		uri   string
	}{
		{
			name:  "null handle",
			setup: func(hv *fake.Hypervisor) { hv.RejectURIs = []string{"qemu:///nope"} },
			uri:   "qemu:///nope",
		},
		{
			name:  "native error",
			setup: func(hv *fake.Hypervisor) { hv.Fail = map[string]error{"ConnectOpen": errors.New("socket refused")} },
			uri:   testURI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hv := fake.New()
			tt.setup(hv)

			conn, err := Open(context.Background(), hv, tt.uri)
			if err == nil {
				t.Fatal("Open() error = nil, want error")
			}
			if conn != nil {
				t.Error("Open() returned a connection on failure")
			}
			if !errors.Is(err, ErrConnect) {
				t.Errorf("Open() error = %v, want ErrConnect", err)
			}
			if hv.LiveSessions() != 0 {
				t.Errorf("LiveSessions() = %d, want 0", hv.LiveSessions())
			}
		})
	}
}

// blockingOpen delays ConnectOpen until release is closed.
type blockingOpen struct {
	*fake.Hypervisor
	release chan struct{}
}

func (b *blockingOpen) ConnectOpen(uri string) (hypervisor.ConnHandle, error) {
	<-b.release
	return b.Hypervisor.ConnectOpen(uri)
}

func TestOpen_CancelledReleasesLateSession(t *testing.T) {
	hv := fake.New()
	surface := &blockingOpen{Hypervisor: hv, release: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, surface, testURI)
	if !errors.Is(err, ErrConnect) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Open() error = %v, want ErrConnect wrapping context.Canceled", err)
	}

	close(surface.release)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c := hv.Counts()
		if c.Opens == 1 && c.Teardowns == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("late session was not released: %+v", hv.Counts())
}

func TestClone_ExactlyOneTeardown(t *testing.T) {
	const clones = 5

	hv := fake.New()
	conn, err := Open(context.Background(), hv, testURI)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	owners := []*Connection{conn}
	for i := 0; i < clones; i++ {
		c, err := conn.Clone()
		if err != nil {
			t.Fatalf("Clone() #%d error = %v", i, err)
		}
		owners = append(owners, c)
	}

	for i, c := range owners {
		if err := c.Close(); err != nil {
			t.Fatalf("Close() owner %d error = %v", i, err)
		}
		if i < len(owners)-1 && hv.Counts().Teardowns != 0 {
			t.Fatalf("session torn down after closing %d of %d owners", i+1, len(owners))
		}
	}

	// Closing again must not release anything further.
	for _, c := range owners {
		if err := c.Close(); err != nil {
			t.Fatalf("second Close() error = %v", err)
		}
	}

	counts := hv.Counts()
	if counts.Teardowns != 1 {
		t.Errorf("Teardowns = %d, want 1", counts.Teardowns)
	}
	if counts.Refs != clones {
		t.Errorf("Refs = %d, want %d", counts.Refs, clones)
	}
	if counts.Closes != clones+1 {
		t.Errorf("Closes = %d, want %d", counts.Closes, clones+1)
	}
}

func TestClone_ConcurrentOwners(t *testing.T) {
	hv := fake.New(fake.DomainSpec{Name: "vm-a", State: fake.StateShutoff})
	conn, err := Open(context.Background(), hv, testURI)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		clone, err := conn.Clone()
		if err != nil {
			t.Fatalf("Clone() error = %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { _ = clone.Close() }()
			domains, err := clone.ListAllDomains()
			if err != nil {
				t.Errorf("ListAllDomains() error = %v", err)
				return
			}
			_ = domains.Close()
		}()
	}
	wg.Wait()

	if err := conn.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := hv.Counts().Teardowns; got != 1 {
		t.Errorf("Teardowns = %d, want 1", got)
	}
	if hv.LiveDomainHandles() != 0 {
		t.Errorf("LiveDomainHandles() = %d, want 0", hv.LiveDomainHandles())
	}
}

func TestClone_RefFailure(t *testing.T) {
	hv := fake.New()
	conn := openTest(t, hv)
	hv.Fail = map[string]error{"ConnectRef": errors.New("invalid connection pointer")}

	clone, err := conn.Clone()
	if err == nil {
		t.Fatal("Clone() error = nil, want error")
	}
	if clone != nil {
		t.Error("Clone() returned a connection on failure")
	}
	if !errors.Is(err, ErrRefFailed) {
		t.Errorf("Clone() error = %v, want ErrRefFailed", err)
	}
	if errors.Is(err, ErrQuery) {
		t.Error("ref failure must not be reported as a query failure")
	}
}

func TestConnection_ClosedMethods(t *testing.T) {
	hv := fake.New()
	conn, err := Open(context.Background(), hv, testURI)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	checks := map[string]error{}
	_, checks["Clone"] = conn.Clone()
	_, checks["Capabilities"] = conn.Capabilities()
	_, checks["NodeInfo"] = conn.NodeInfo()
	_, checks["ListAllDomains"] = conn.ListAllDomains()
	_, checks["DefineDomain"] = conn.DefineDomain(domainXML("vm-a"))
	checks["Ping"] = conn.Ping()

	for name, err := range checks {
		if !errors.Is(err, ErrClosed) {
			t.Errorf("%s after Close: error = %v, want ErrClosed", name, err)
		}
	}
	if got := hv.Counts().Closes; got != 1 {
		t.Errorf("Closes = %d, want 1", got)
	}
}

func TestCapabilities(t *testing.T) {
	hv := fake.New()
	conn := openTest(t, hv)

	caps, err := conn.Capabilities()
	if err != nil {
		t.Fatalf("Capabilities() error = %v", err)
	}
	if caps != hv.Capabilities {
		t.Errorf("Capabilities() = %q, want fixture", caps)
	}

	hv.Capabilities = ""
	if _, err := conn.Capabilities(); !errors.Is(err, ErrQuery) {
		t.Errorf("Capabilities() with empty document: error = %v, want ErrQuery", err)
	}
}

func TestNodeInfo_Failure(t *testing.T) {
	hv := fake.New()
	conn := openTest(t, hv)
	cause := errors.New("rpc error")
	hv.Fail = map[string]error{"NodeGetInfo": cause}

	_, err := conn.NodeInfo()
	if !errors.Is(err, ErrQuery) {
		t.Errorf("NodeInfo() error = %v, want ErrQuery", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("NodeInfo() error = %v, want native cause", err)
	}

	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("NodeInfo() error is %T, want *OpError", err)
	}
	if opErr.Op != "get node info" {
		t.Errorf("Op = %q, want %q", opErr.Op, "get node info")
	}
}

func TestListAllDomains_SkipsNullEntries(t *testing.T) {
	hv := fake.New(
		fake.DomainSpec{Name: "h1"},
		fake.DomainSpec{Name: "h2"},
		fake.DomainSpec{Name: "h3"},
	)
	hv.NullListEntries = []int{1}
	conn := openTest(t, hv)

	domains, err := conn.ListAllDomains()
	if err != nil {
		t.Fatalf("ListAllDomains() error = %v", err)
	}

	if len(domains) != 2 {
		t.Fatalf("len(domains) = %d, want 2", len(domains))
	}
	if domains[0].Name() != "h1" || domains[1].Name() != "h3" {
		t.Errorf("domains = [%s %s], want [h1 h3]", domains[0].Name(), domains[1].Name())
	}

	if err := domains.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	counts := hv.Counts()
	if counts.DomainRefs != 2 || counts.DomainFree != 2 {
		t.Errorf("DomainRefs = %d, DomainFree = %d, want 2 and 2", counts.DomainRefs, counts.DomainFree)
	}
}

func TestListAllDomains_Failure(t *testing.T) {
	hv := fake.New(fake.DomainSpec{Name: "vm-a"})
	conn := openTest(t, hv)
	hv.Fail = map[string]error{"ConnectListAllDomains": errors.New("list failed")}

	domains, err := conn.ListAllDomains()
	if !errors.Is(err, ErrQuery) {
		t.Errorf("ListAllDomains() error = %v, want ErrQuery", err)
	}
	if domains != nil {
		t.Errorf("ListAllDomains() = %v, want nil", domains)
	}
}

func TestDefineDomain_RoundTrip(t *testing.T) {
	hv := fake.New()
	conn := openTest(t, hv)

	dom, err := conn.DefineDomain(domainXML("vm-new"))
	if err != nil {
		t.Fatalf("DefineDomain() error = %v", err)
	}
	if err := dom.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	domains, err := conn.ListAllDomains()
	if err != nil {
		t.Fatalf("ListAllDomains() error = %v", err)
	}
	defer func() { _ = domains.Close() }()

	found := domains.Lookup("vm-new")
	if found == nil {
		t.Fatal("defined domain not found in enumeration")
	}
	if found.Name() != "vm-new" {
		t.Errorf("Name() = %q, want vm-new", found.Name())
	}

	state, err := found.State()
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state != Shutoff {
		t.Errorf("State() = %v, want Shutoff (define must not start)", state)
	}
}

func TestDefineDomain_Rejected(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{name: "empty", xml: ""},
		{name: "nul byte", xml: "<domain>\x00</domain>"},
		{name: "malformed", xml: "<domain><name>broken"},
		{name: "no name", xml: `<domain type="kvm"></domain>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hv := fake.New()
			conn := openTest(t, hv)

			dom, err := conn.DefineDomain(tt.xml)
			if !errors.Is(err, ErrDefine) {
				t.Errorf("DefineDomain() error = %v, want ErrDefine", err)
			}
			if dom != nil {
				t.Error("DefineDomain() returned a domain on failure")
			}
			if hv.LiveDomainHandles() != 0 {
				t.Errorf("LiveDomainHandles() = %d, want 0", hv.LiveDomainHandles())
			}
		})
	}
}

func TestSerializedCalls(t *testing.T) {
	hv := fake.New(fake.DomainSpec{Name: "vm-a", State: fake.StateShutoff})
	conn := openTest(t, hv, WithSerializedCalls())

	clone, err := conn.Clone()
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	defer func() { _ = clone.Close() }()

	if conn.lock == nil || clone.lock != conn.lock {
		t.Fatal("clone must share the serialization lock")
	}

	domains, err := clone.ListAllDomains()
	if err != nil {
		t.Fatalf("ListAllDomains() error = %v", err)
	}
	defer func() { _ = domains.Close() }()

	if domains[0].lock != conn.lock {
		t.Error("domains must share the serialization lock")
	}
	if err := domains[0].Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}
