// Package descriptor reads libvirt XML documents: domain descriptors passed
// to the define call and the host capabilities document.
//
// virtd never generates or rewrites descriptors. Parsing is only used to
// label logs and spans with the declared domain name and to summarize the
// host for `virtd check`.
package descriptor

import (
	"fmt"
	"strings"

	"libvirt.org/go/libvirtxml"
)

// Name returns the domain name declared in a domain descriptor.
func Name(xml string) (string, error) {
	if strings.TrimSpace(xml) == "" {
		return "", fmt.Errorf("descriptor is empty")
	}

	var dom libvirtxml.Domain
	if err := dom.Unmarshal(xml); err != nil {
		return "", fmt.Errorf("failed to parse domain descriptor: %w", err)
	}

	name := strings.TrimSpace(dom.Name)
	if name == "" {
		return "", fmt.Errorf("domain descriptor has no name")
	}

	return name, nil
}

// HostSummary is a condensed view of a host capabilities document.
type HostSummary struct {
	UUID     string
	Arch     string
	CPUModel string
	// Guests lists the supported guest types as "os_type/arch".
	Guests []string
}

// SummarizeCapabilities parses a capabilities document.
func SummarizeCapabilities(xml string) (HostSummary, error) {
	var caps libvirtxml.Caps
	if err := caps.Unmarshal(xml); err != nil {
		return HostSummary{}, fmt.Errorf("failed to parse capabilities: %w", err)
	}

	summary := HostSummary{UUID: caps.Host.UUID}
	if caps.Host.CPU != nil {
		summary.Arch = caps.Host.CPU.Arch
		summary.CPUModel = caps.Host.CPU.Model
	}

	seen := make(map[string]bool)
	for _, guest := range caps.Guests {
		key := guest.OSType + "/" + guest.Arch.Name
		if seen[key] {
			continue
		}
		seen[key] = true
		summary.Guests = append(summary.Guests, key)
	}

	return summary, nil
}
