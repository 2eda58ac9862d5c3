package virt

import (
	"errors"
	"testing"

	"github.com/jbweber/virtd/internal/hypervisor/fake"
)

func lookupTest(t *testing.T, conn *Connection, name string) *Domain {
	t.Helper()
	domains, err := conn.ListAllDomains()
	if err != nil {
		t.Fatalf("ListAllDomains() error = %v", err)
	}
	t.Cleanup(func() { _ = domains.Close() })

	dom := domains.Lookup(name)
	if dom == nil {
		t.Fatalf("domain %q not found", name)
	}
	return dom
}

func TestDomain_Lifecycle(t *testing.T) {
	tests := []struct {
		name      string
		state     int32
		op        func(d *Domain) error
		wantErr   bool
		wantState int32
		wantCall  string
	}{
		{
			name:      "start shutoff domain",
			state:     fake.StateShutoff,
			op:        (*Domain).Start,
			wantState: fake.StateRunning,
			wantCall:  "DomainCreate:vm-a",
		},
		{
			name:      "start running domain",
			state:     fake.StateRunning,
			op:        (*Domain).Start,
			wantErr:   true,
			wantState: fake.StateRunning,
			wantCall:  "DomainCreate:vm-a",
		},
		{
			name:      "shutdown running domain",
			state:     fake.StateRunning,
			op:        (*Domain).Shutdown,
			wantState: fake.StateShutoff,
			wantCall:  "DomainShutdown:vm-a",
		},
		{
			name:      "shutdown shutoff domain",
			state:     fake.StateShutoff,
			op:        (*Domain).Shutdown,
			wantErr:   true,
			wantState: fake.StateShutoff,
			wantCall:  "DomainShutdown:vm-a",
		},
		{
			name:      "reboot running domain",
			state:     fake.StateRunning,
			op:        (*Domain).Reboot,
			wantState: fake.StateRunning,
			wantCall:  "DomainReboot:vm-a",
		},
		{
			name:      "reboot shutoff domain",
			state:     fake.StateShutoff,
			op:        (*Domain).Reboot,
			wantErr:   true,
			wantState: fake.StateShutoff,
			wantCall:  "DomainReboot:vm-a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hv := fake.New(fake.DomainSpec{Name: "vm-a", State: tt.state, MaxMemKB: 1024})
			conn := openTest(t, hv)
			dom := lookupTest(t, conn, "vm-a")

			err := tt.op(dom)
			if tt.wantErr {
				if !errors.Is(err, ErrLifecycle) {
					t.Errorf("error = %v, want ErrLifecycle", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			spec, _ := hv.Domain("vm-a")
			if spec.State != tt.wantState {
				t.Errorf("state = %d, want %d", spec.State, tt.wantState)
			}

			calls := hv.Calls()
			if len(calls) != 1 || calls[0] != tt.wantCall {
				t.Errorf("calls = %v, want [%s]", calls, tt.wantCall)
			}
		})
	}
}

func TestDomain_LifecycleErrorNamesDomain(t *testing.T) {
	hv := fake.New(fake.DomainSpec{Name: "vm-a", State: fake.StateRunning})
	conn := openTest(t, hv)
	dom := lookupTest(t, conn, "vm-a")

	err := dom.Start()
	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("Start() error is %T, want *OpError", err)
	}
	if opErr.Op != "start domain vm-a" {
		t.Errorf("Op = %q, want %q", opErr.Op, "start domain vm-a")
	}
}

func TestDomain_InfoIdempotent(t *testing.T) {
	hv := fake.New(fake.DomainSpec{
		Name:      "vm-a",
		State:     fake.StateRunning,
		MaxMemKB:  2097152,
		MemoryKB:  1048576,
		VCPUs:     4,
		CPUTimeNS: 123456789,
	})
	conn := openTest(t, hv)
	dom := lookupTest(t, conn, "vm-a")

	first, err := dom.Info()
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	second, err := dom.Info()
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}

	if first != second {
		t.Errorf("Info() snapshots differ: %+v vs %+v", first, second)
	}

	want := DomainInfo{
		State:       Running,
		MaxMemoryKB: 2097152,
		MemoryKB:    1048576,
		VirtCPUs:    4,
		CPUTimeNS:   123456789,
	}
	if first != want {
		t.Errorf("Info() = %+v, want %+v", first, want)
	}
}

func TestDomain_InfoUnknownState(t *testing.T) {
	hv := fake.New(fake.DomainSpec{Name: "vm-a", State: 42})
	conn := openTest(t, hv)
	dom := lookupTest(t, conn, "vm-a")

	info, err := dom.Info()
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.State != Unknown {
		t.Errorf("State = %v, want Unknown", info.State)
	}
}

func TestDomain_InfoFailure(t *testing.T) {
	hv := fake.New(fake.DomainSpec{Name: "vm-a"})
	conn := openTest(t, hv)
	dom := lookupTest(t, conn, "vm-a")
	hv.Fail = map[string]error{"DomainGetInfo": errors.New("boom")}

	if _, err := dom.Info(); !errors.Is(err, ErrQuery) {
		t.Errorf("Info() error = %v, want ErrQuery", err)
	}
}

func TestDomain_NameDegradesToEmpty(t *testing.T) {
	hv := fake.New(fake.DomainSpec{Name: "vm-a"})
	conn := openTest(t, hv)
	dom := lookupTest(t, conn, "vm-a")
	hv.Fail = map[string]error{"DomainGetName": errors.New("invalid domain pointer")}

	if got := dom.Name(); got != "" {
		t.Errorf("Name() = %q, want empty", got)
	}
}

func TestDomain_CloseExactlyOnce(t *testing.T) {
	hv := fake.New(fake.DomainSpec{Name: "vm-a"})
	conn := openTest(t, hv)

	domains, err := conn.ListAllDomains()
	if err != nil {
		t.Fatalf("ListAllDomains() error = %v", err)
	}
	dom := domains[0]

	for i := 0; i < 3; i++ {
		if err := dom.Close(); err != nil {
			t.Fatalf("Close() #%d error = %v", i, err)
		}
	}
	if err := domains.Close(); err != nil {
		t.Fatalf("Domains.Close() error = %v", err)
	}

	if got := hv.Counts().DomainFree; got != 1 {
		t.Errorf("DomainFree = %d, want 1", got)
	}

	if dom.Name() != "" {
		t.Error("Name() on released domain should be empty")
	}
	if err := dom.Start(); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close: error = %v, want ErrClosed", err)
	}
	if _, err := dom.Info(); !errors.Is(err, ErrClosed) {
		t.Errorf("Info() after Close: error = %v, want ErrClosed", err)
	}
	if _, err := dom.State(); !errors.Is(err, ErrClosed) {
		t.Errorf("State() after Close: error = %v, want ErrClosed", err)
	}
}

func TestDomain_KeepsSessionAlive(t *testing.T) {
	hv := fake.New(fake.DomainSpec{Name: "vm-a", State: fake.StateShutoff})
	conn := openTest(t, hv)

	domains, err := conn.ListAllDomains()
	if err != nil {
		t.Fatalf("ListAllDomains() error = %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if hv.Counts().Teardowns != 0 {
		t.Fatal("session torn down while domains are still owned")
	}

	if err := domains[0].Start(); err != nil {
		t.Errorf("Start() after connection close: %v", err)
	}

	if err := domains.Close(); err != nil {
		t.Fatalf("Domains.Close() error = %v", err)
	}
	if got := hv.Counts().Teardowns; got != 1 {
		t.Errorf("Teardowns = %d, want 1", got)
	}
}

func TestDomainsLookup_FirstMatch(t *testing.T) {
	hv := fake.New(
		fake.DomainSpec{Name: "vm-a"},
		fake.DomainSpec{Name: "vm-b"},
		fake.DomainSpec{Name: "vm-a"},
	)
	conn := openTest(t, hv)

	domains, err := conn.ListAllDomains()
	if err != nil {
		t.Fatalf("ListAllDomains() error = %v", err)
	}
	defer func() { _ = domains.Close() }()

	if got := domains.Lookup("vm-a"); got != domains[0] {
		t.Error("Lookup() did not return the first match")
	}
	if got := domains.Lookup("VM-A"); got != nil {
		t.Error("Lookup() must match names exactly")
	}
	if got := domains.Lookup("missing"); got != nil {
		t.Error("Lookup() of missing name should be nil")
	}
}
