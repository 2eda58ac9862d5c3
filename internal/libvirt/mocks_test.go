package libvirt

import (
	"errors"
	"sync"

	"github.com/digitalocean/go-libvirt"
)

// mockClient is a mock implementation of the client interface for testing.
type mockClient struct {
	mu sync.Mutex

	// Configurable behavior
	domains         []libvirt.Domain
	listErr         error
	defineXMLFunc   func(xml string) (libvirt.Domain, error)
	domainCreateErr error

	// Call tracking
	connectURI        libvirt.ConnectURI
	disconnectCalls   int
	listCalls         int
	domainCreateCalls []libvirt.Domain
	domainRebootCalls []libvirt.DomainRebootFlagValues
}

func newMockClient(domains ...libvirt.Domain) *mockClient {
	return &mockClient{
		domains: domains,
		defineXMLFunc: func(xml string) (libvirt.Domain, error) {
			return libvirt.Domain{Name: "defined", ID: -1}, nil
		},
	}
}

func (m *mockClient) ConnectToURI(uri libvirt.ConnectURI) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectURI = uri
	return nil
}

func (m *mockClient) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnectCalls++
	return nil
}

func (m *mockClient) ConnectGetLibVersion() (uint64, error) {
	return 10002000, nil
}

func (m *mockClient) ConnectGetCapabilities() (string, error) {
	return "<capabilities/>", nil
}

func (m *mockClient) NodeGetInfo() ([32]int8, uint64, int32, int32, int32, int32, int32, int32, error) {
	var model [32]int8
	for i, c := range "x86_64" {
		model[i] = int8(c)
	}
	return model, 32768000, 16, 3200, 1, 1, 8, 2, nil
}

func (m *mockClient) ConnectListAllDomains(needResults int32, flags libvirt.ConnectListAllDomainsFlags) ([]libvirt.Domain, uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return append([]libvirt.Domain(nil), m.domains...), uint32(len(m.domains)), nil
}

func (m *mockClient) DomainDefineXML(xml string) (libvirt.Domain, error) {
	return m.defineXMLFunc(xml)
}

func (m *mockClient) DomainGetInfo(dom libvirt.Domain) (uint8, uint64, uint64, uint16, uint64, error) {
	return 1, 2097152, 1048576, 2, 5000000000, nil
}

func (m *mockClient) DomainGetState(dom libvirt.Domain, flags uint32) (int32, int32, error) {
	return 1, 1, nil
}

func (m *mockClient) DomainCreate(dom libvirt.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domainCreateCalls = append(m.domainCreateCalls, dom)
	return m.domainCreateErr
}

func (m *mockClient) DomainShutdown(dom libvirt.Domain) error {
	return nil
}

func (m *mockClient) DomainReboot(dom libvirt.Domain, flags libvirt.DomainRebootFlagValues) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domainRebootCalls = append(m.domainRebootCalls, flags)
	return nil
}

var errDial = errors.New("dial unix /var/run/libvirt/libvirt-sock: connect: no such file or directory")
