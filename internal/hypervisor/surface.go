package hypervisor

import "errors"

var (
	// ErrNullHandle is returned when a native call produced no resource.
	ErrNullHandle = errors.New("native call returned a null handle")

	// ErrUnknownHandle is returned when a handle is not (or no longer) live.
	ErrUnknownHandle = errors.New("unknown or released handle")
)

// NodeInfoRecord is the fixed-size host record returned by NodeGetInfo.
// Model is NUL padded.
type NodeInfoRecord struct {
	Model   [32]byte
	Memory  uint64 // KiB
	CPUs    int32
	MHz     int32
	Nodes   int32
	Sockets int32
	Cores   int32
	Threads int32
}

// DomainInfoRecord is the fixed-size record returned by DomainGetInfo.
type DomainInfoRecord struct {
	State     uint8
	MaxMem    uint64 // KiB
	Memory    uint64 // KiB
	NrVirtCPU uint16
	CPUTime   uint64 // nanoseconds
}

// Surface is the fixed capability surface consumed from the hypervisor.
//
// Handles returned by ConnectOpen, ConnectListAllDomains and DomainDefineXML
// carry one reference each. ConnectClose and DomainFree drop exactly one
// reference. A domain handle keeps its session alive until it is freed.
//
// A null handle with a nil error is a valid failure report for the
// acquisition calls; callers must check IsNull. ConnectListAllDomains may
// return null entries which own nothing.
type Surface interface {
	ConnectOpen(uri string) (ConnHandle, error)
	ConnectRef(conn ConnHandle) error
	ConnectClose(conn ConnHandle) error

	ConnectGetLibVersion(conn ConnHandle) (uint64, error)
	ConnectGetCapabilities(conn ConnHandle) (string, error)
	NodeGetInfo(conn ConnHandle) (NodeInfoRecord, error)
	ConnectListAllDomains(conn ConnHandle, flags uint32) ([]DomainHandle, error)
	DomainDefineXML(conn ConnHandle, xml string) (DomainHandle, error)

	DomainGetName(dom DomainHandle) (string, error)
	DomainGetInfo(dom DomainHandle) (DomainInfoRecord, error)
	DomainGetState(dom DomainHandle, flags uint32) (state int32, reason int32, err error)
	DomainCreate(dom DomainHandle) error
	DomainShutdown(dom DomainHandle) error
	DomainReboot(dom DomainHandle, flags uint32) error
	DomainFree(dom DomainHandle) error
}
