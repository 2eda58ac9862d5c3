package libvirt

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/digitalocean/go-libvirt"
	"github.com/digitalocean/go-libvirt/socket"
	"github.com/digitalocean/go-libvirt/socket/dialers"
)

const (
	// DefaultSocketPath is the libvirtd socket for qemu:///system.
	DefaultSocketPath = "/var/run/libvirt/libvirt-sock"
	// DefaultTimeout bounds dialing the daemon.
	DefaultTimeout = 5 * time.Second
	// defaultTCPPort is libvirtd's unencrypted TCP listener.
	defaultTCPPort = "16509"
)

// client is the subset of *libvirt.Libvirt the driver calls.
// In production this is satisfied by *libvirt.Libvirt directly.
type client interface {
	ConnectToURI(uri libvirt.ConnectURI) error
	Disconnect() error
	ConnectGetLibVersion() (uint64, error)
	ConnectGetCapabilities() (string, error)
	NodeGetInfo() (rModel [32]int8, rMemory uint64, rCpus int32, rMhz int32, rNodes int32, rSockets int32, rCores int32, rThreads int32, err error)
	ConnectListAllDomains(NeedResults int32, Flags libvirt.ConnectListAllDomainsFlags) (rDomains []libvirt.Domain, rRet uint32, err error)
	DomainDefineXML(XML string) (rDom libvirt.Domain, err error)
	DomainGetInfo(Dom libvirt.Domain) (rState uint8, rMaxMem uint64, rMemory uint64, rNrVirtCPU uint16, rCPUTime uint64, err error)
	DomainGetState(Dom libvirt.Domain, Flags uint32) (rState int32, rReason int32, err error)
	DomainCreate(Dom libvirt.Domain) error
	DomainShutdown(Dom libvirt.Domain) error
	DomainReboot(Dom libvirt.Domain, Flags libvirt.DomainRebootFlagValues) error
}

// target is a parsed connection URI: where to dial and which URI to hand to
// the daemon once connected.
type target struct {
	// remote is host:port for TCP transports, empty for the local socket.
	remote string
	// daemonURI is the URI without transport and host, e.g. qemu:///system.
	daemonURI string
}

// parseURI splits a libvirt URI such as qemu:///system or
// qemu+tcp://host:16509/system.
func parseURI(raw string) (target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return target{}, fmt.Errorf("invalid connection URI %q: %w", raw, err)
	}
	if u.Scheme == "" {
		return target{}, fmt.Errorf("invalid connection URI %q: missing scheme", raw)
	}

	driver, transport, _ := strings.Cut(u.Scheme, "+")
	daemonURI := driver + "://" + u.EscapedPath()
	if u.RawQuery != "" {
		daemonURI += "?" + u.RawQuery
	}

	switch transport {
	case "", "unix":
		if u.Host != "" && transport == "" {
			return target{}, fmt.Errorf("invalid connection URI %q: remote host requires a transport (e.g. %s+tcp)", raw, driver)
		}
		return target{daemonURI: daemonURI}, nil
	case "tcp":
		if u.Hostname() == "" {
			return target{}, fmt.Errorf("invalid connection URI %q: tcp transport requires a host", raw)
		}
		port := u.Port()
		if port == "" {
			port = defaultTCPPort
		}
		return target{remote: net.JoinHostPort(u.Hostname(), port), daemonURI: daemonURI}, nil
	default:
		return target{}, fmt.Errorf("unsupported transport %q in connection URI %q", transport, raw)
	}
}

// dialer builds the go-libvirt socket dialer for a target.
func (t target) dialer(socketPath string, timeout time.Duration) socket.Dialer {
	if t.remote != "" {
		host, port, _ := net.SplitHostPort(t.remote)
		return dialers.NewRemote(host,
			dialers.UsePort(port),
			dialers.WithRemoteTimeout(timeout),
		)
	}
	return dialers.NewLocal(
		dialers.WithSocket(socketPath),
		dialers.WithLocalTimeout(timeout),
	)
}

// connect dials libvirtd for uri and opens a session on it.
//
// If socketPath is empty, defaults to DefaultSocketPath. If timeout is zero,
// defaults to DefaultTimeout.
func connect(uri, socketPath string, timeout time.Duration) (client, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	t, err := parseURI(uri)
	if err != nil {
		return nil, err
	}

	l := libvirt.NewWithDialer(t.dialer(socketPath, timeout))
	if err := l.ConnectToURI(libvirt.ConnectURI(t.daemonURI)); err != nil {
		where := socketPath
		if t.remote != "" {
			where = t.remote
		}
		return nil, fmt.Errorf("failed to connect to libvirt at %s: %w", where, err)
	}

	return l, nil
}
