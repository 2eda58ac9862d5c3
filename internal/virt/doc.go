// Package virt owns hypervisor resources on behalf of the rest of virtd.
//
// A Connection owns one reference to a hypervisor session and a Domain owns
// one reference to a domain object. Each is released exactly once by Close;
// further Close calls do nothing and every other method returns ErrClosed.
//
// Connections are reference counted by the hypervisor. Clone takes another
// native reference instead of copying the owner:
//
//	conn, err := virt.Open(ctx, driver, "qemu:///system")
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	shared, err := conn.Clone()
//	if err != nil {
//	    return err // the session is gone; not a query failure
//	}
//	defer shared.Close()
//
// Domains are never cloned. ListAllDomains hands ownership of every element
// to the caller, who releases the whole list at once:
//
//	domains, err := conn.ListAllDomains()
//	if err != nil {
//	    return err
//	}
//	defer domains.Close()
//
//	if dom := domains.Lookup("vm-a"); dom != nil {
//	    err = dom.Start()
//	}
//
// Errors are *OpError values. Use errors.Is with ErrConnect, ErrQuery,
// ErrDefine, ErrLifecycle, ErrNotFound, ErrClosed or ErrRefFailed to classify
// them; the native cause stays reachable through errors.Unwrap.
//
// Lifecycle calls are relayed as-is. No transition is validated here, so an
// invalid request fails (or succeeds) exactly as the hypervisor decides.
package virt
