// Package libvirt implements the hypervisor capability surface on top of
// github.com/digitalocean/go-libvirt.
//
// go-libvirt talks to libvirtd over its RPC protocol, so there are no C
// pointers to own. The Driver gives the rest of virtd the same shape anyway:
// every session and every domain it hands out is a slot in a handle table
// with a reference count, and a session is disconnected when its last
// reference (including references held by domain handles) is dropped.
//
// Connection Management:
//
// URIs are parsed the way libvirt clients expect:
//
//	qemu:///system              local socket (/var/run/libvirt/libvirt-sock)
//	qemu:///session             local socket given by socketPath
//	test:///default             libvirt's test driver
//	qemu+tcp://host[:port]/...  remote libvirtd, default port 16509
//
// The driver is normally used through internal/virt:
//
//	driver := libvirt.NewDriver("", 5*time.Second)
//	conn, err := virt.Open(ctx, driver, "qemu:///system")
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
// Consumer-Side Interfaces:
//
// The driver calls go-libvirt through the unexported client interface, which
// *libvirt.Libvirt satisfies implicitly. Tests substitute a mock.
package libvirt
