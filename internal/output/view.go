package output

import (
	"github.com/jbweber/virtd/api/pb"
)

// DomainView is the client-side view of a domain, as reported by
// InfoDomainService.
type DomainView struct {
	Name         string `json:"name" yaml:"name"`
	State        string `json:"state" yaml:"state"`
	VCPUs        int32  `json:"vcpus" yaml:"vcpus"`
	MemoryKiB    int64  `json:"memoryKiB" yaml:"memoryKiB"`
	MaxMemoryKiB int64  `json:"maxMemoryKiB" yaml:"maxMemoryKiB"`
	CPUTimeNS    int64  `json:"cpuTimeNS" yaml:"cpuTimeNS"`
	Status       string `json:"status" yaml:"status"`
	Error        string `json:"error,omitempty" yaml:"error,omitempty"`
}

// FromInfoResponse builds a view of the domain name from an info response.
func FromInfoResponse(name string, resp *pb.InfoDomainResponse) *DomainView {
	return &DomainView{
		Name:         name,
		State:        resp.GetState(),
		VCPUs:        resp.GetVirtCpu(),
		MemoryKiB:    resp.GetMemory(),
		MaxMemoryKiB: resp.GetMaxMemory(),
		CPUTimeNS:    resp.GetCpuTime(),
		Status:       resp.GetStatus().String(),
		Error:        resp.GetError(),
	}
}
