// Package pb holds the LibvirtService wire contract described in
// virt_service.proto.
//
// The messages are plain structs with protobuf field tags; the protobuf
// runtime derives their descriptors from the tags, so they marshal with the
// standard gRPC codec without generated descriptor blobs. Keep the tags in
// step with virt_service.proto when fields change.
package pb

import (
	"strconv"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/protoadapt"
)

// Instructions is the lifecycle command sent to a named domain.
type Instructions int32

const (
	Instructions_Start    Instructions = 0
	Instructions_Shutdown Instructions = 1
	Instructions_Reboot   Instructions = 2
)

var (
	Instructions_name = map[int32]string{
		0: "Start",
		1: "Shutdown",
		2: "Reboot",
	}
	Instructions_value = map[string]int32{
		"Start":    0,
		"Shutdown": 1,
		"Reboot":   2,
	}
)

func (x Instructions) Enum() *Instructions {
	p := new(Instructions)
	*p = x
	return p
}

func (x Instructions) String() string {
	return enumName(Instructions_name, int32(x))
}

// Outcome tells apart results that share the "Success" acknowledgment.
type Outcome int32

const (
	Outcome_OK        Outcome = 0
	Outcome_NOT_FOUND Outcome = 1
	Outcome_FAILED    Outcome = 2
)

var (
	Outcome_name = map[int32]string{
		0: "OK",
		1: "NOT_FOUND",
		2: "FAILED",
	}
	Outcome_value = map[string]int32{
		"OK":        0,
		"NOT_FOUND": 1,
		"FAILED":    2,
	}
)

func (x Outcome) Enum() *Outcome {
	p := new(Outcome)
	*p = x
	return p
}

func (x Outcome) String() string {
	return enumName(Outcome_name, int32(x))
}

func enumName(names map[int32]string, v int32) string {
	if s, ok := names[v]; ok {
		return s
	}
	return strconv.Itoa(int(v))
}

func messageString(m protoadapt.MessageV1) string {
	return prototext.Format(protoadapt.MessageV2Of(m))
}

type CreateDomainRequest struct {
	Xml string `protobuf:"bytes,1,opt,name=xml,proto3" json:"xml,omitempty"`
}

func (m *CreateDomainRequest) Reset()         { *m = CreateDomainRequest{} }
func (m *CreateDomainRequest) String() string { return messageString(m) }
func (*CreateDomainRequest) ProtoMessage()    {}

func (m *CreateDomainRequest) GetXml() string {
	if m != nil {
		return m.Xml
	}
	return ""
}

type ControllerDomainRequest struct {
	Name        string       `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Instruction Instructions `protobuf:"varint,2,opt,name=instruction,proto3,enum=libvirt_service.Instructions" json:"instruction,omitempty"`
}

func (m *ControllerDomainRequest) Reset()         { *m = ControllerDomainRequest{} }
func (m *ControllerDomainRequest) String() string { return messageString(m) }
func (*ControllerDomainRequest) ProtoMessage()    {}

func (m *ControllerDomainRequest) GetName() string {
	if m != nil {
		return m.Name
	}
	return ""
}

func (m *ControllerDomainRequest) GetInstruction() Instructions {
	if m != nil {
		return m.Instruction
	}
	return Instructions_Start
}

type InfoDomainRequest struct {
	Name string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
}

func (m *InfoDomainRequest) Reset()         { *m = InfoDomainRequest{} }
func (m *InfoDomainRequest) String() string { return messageString(m) }
func (*InfoDomainRequest) ProtoMessage()    {}

func (m *InfoDomainRequest) GetName() string {
	if m != nil {
		return m.Name
	}
	return ""
}

type UniversalResponse struct {
	Message string  `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
	Status  Outcome `protobuf:"varint,2,opt,name=status,proto3,enum=libvirt_service.Outcome" json:"status,omitempty"`
	Error   string  `protobuf:"bytes,3,opt,name=error,proto3" json:"error,omitempty"`
}

func (m *UniversalResponse) Reset()         { *m = UniversalResponse{} }
func (m *UniversalResponse) String() string { return messageString(m) }
func (*UniversalResponse) ProtoMessage()    {}

func (m *UniversalResponse) GetMessage() string {
	if m != nil {
		return m.Message
	}
	return ""
}

func (m *UniversalResponse) GetStatus() Outcome {
	if m != nil {
		return m.Status
	}
	return Outcome_OK
}

func (m *UniversalResponse) GetError() string {
	if m != nil {
		return m.Error
	}
	return ""
}

type InfoDomainResponse struct {
	State     string  `protobuf:"bytes,1,opt,name=state,proto3" json:"state,omitempty"`
	MaxMemory int64   `protobuf:"varint,2,opt,name=max_memory,json=maxMemory,proto3" json:"max_memory,omitempty"`
	Memory    int64   `protobuf:"varint,3,opt,name=memory,proto3" json:"memory,omitempty"`
	VirtCpu   int32   `protobuf:"varint,4,opt,name=virt_cpu,json=virtCpu,proto3" json:"virt_cpu,omitempty"`
	CpuTime   int64   `protobuf:"varint,5,opt,name=cpu_time,json=cpuTime,proto3" json:"cpu_time,omitempty"`
	Status    Outcome `protobuf:"varint,6,opt,name=status,proto3,enum=libvirt_service.Outcome" json:"status,omitempty"`
	Error     string  `protobuf:"bytes,7,opt,name=error,proto3" json:"error,omitempty"`
}

func (m *InfoDomainResponse) Reset()         { *m = InfoDomainResponse{} }
func (m *InfoDomainResponse) String() string { return messageString(m) }
func (*InfoDomainResponse) ProtoMessage()    {}

func (m *InfoDomainResponse) GetState() string {
	if m != nil {
		return m.State
	}
	return ""
}

func (m *InfoDomainResponse) GetMaxMemory() int64 {
	if m != nil {
		return m.MaxMemory
	}
	return 0
}

func (m *InfoDomainResponse) GetMemory() int64 {
	if m != nil {
		return m.Memory
	}
	return 0
}

func (m *InfoDomainResponse) GetVirtCpu() int32 {
	if m != nil {
		return m.VirtCpu
	}
	return 0
}

func (m *InfoDomainResponse) GetCpuTime() int64 {
	if m != nil {
		return m.CpuTime
	}
	return 0
}

func (m *InfoDomainResponse) GetStatus() Outcome {
	if m != nil {
		return m.Status
	}
	return Outcome_OK
}

func (m *InfoDomainResponse) GetError() string {
	if m != nil {
		return m.Error
	}
	return ""
}
