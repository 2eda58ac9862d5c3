package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"
)

// TableFormatter formats domains as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// FormatDomain formats a single domain as a table row.
func (f *TableFormatter) FormatDomain(d *DomainView) (string, error) {
	return f.FormatDomainList([]*DomainView{d})
}

// FormatDomainList formats a list of domains as a table.
func (f *TableFormatter) FormatDomainList(ds []*DomainView) (string, error) {
	if len(ds) == 0 {
		return "No domains found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tSTATE\tVCPUs\tMEMORY\tMAX MEMORY\tCPU TIME\tSTATUS")
	}

	for _, d := range ds {
		state := d.State
		if state == "" {
			state = "-"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			d.Name, state, d.VCPUs,
			formatMemory(d.MemoryKiB), formatMemory(d.MaxMemoryKiB),
			formatCPUTime(d.CPUTimeNS), d.Status)
	}

	_ = w.Flush()
	return buf.String(), nil
}

// formatMemory formats a KiB amount with a binary unit.
// Examples: "0", "512 KiB", "256 MiB", "4 GiB", "1.5 GiB"
func formatMemory(kib int64) string {
	if kib <= 0 {
		return "0"
	}

	const (
		mib = 1024
		gib = 1024 * 1024
	)

	switch {
	case kib >= gib:
		if kib%gib == 0 {
			return fmt.Sprintf("%d GiB", kib/gib)
		}
		return fmt.Sprintf("%.1f GiB", float64(kib)/gib)
	case kib >= mib:
		if kib%mib == 0 {
			return fmt.Sprintf("%d MiB", kib/mib)
		}
		return fmt.Sprintf("%.1f MiB", float64(kib)/mib)
	default:
		return fmt.Sprintf("%d KiB", kib)
	}
}

// formatCPUTime formats accumulated CPU nanoseconds.
// Examples: "0s", "42s", "1h2m3s", "350ms"
func formatCPUTime(ns int64) string {
	if ns <= 0 {
		return "0s"
	}

	d := time.Duration(ns)
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
