// Package hypervisor defines the native capability surface virtd consumes
// and the typed handles that cross it.
//
// The Surface interface mirrors the libvirt connection/domain/node model one
// call at a time. Implementations live elsewhere:
//   - internal/libvirt: the production driver over go-libvirt
//   - internal/hypervisor/fake: an in-memory hypervisor for tests
//
// Nothing in this package owns a resource. Ownership (exactly-once release,
// reference counting) is the job of internal/virt.
package hypervisor
