package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbweber/virtd/internal/descriptor"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the libvirt connection",
	Long: `Open the configured libvirt connection and display version, host
hardware, capabilities and the domains libvirt knows about.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("Testing libvirt connection to %s...\n", cfg.URI)

		conn, err := openConnection(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := conn.Close(); closeErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close libvirt connection: %v\n", closeErr)
			}
		}()

		fmt.Println("✓ Connected to libvirt daemon")

		v, err := conn.LibVersion()
		if err != nil {
			return err
		}
		fmt.Printf("✓ Libvirt version: %s\n", formatLibVersion(v))

		node, err := conn.NodeInfo()
		if err != nil {
			return err
		}
		fmt.Printf("✓ Host: %s, %d CPUs @ %d MHz (%d sockets, %d cores, %d threads), %d KiB memory\n",
			node.Model, node.CPUs, node.MHz, node.Sockets, node.Cores, node.Threads, node.MemoryKB)

		caps, err := conn.Capabilities()
		if err != nil {
			return err
		}
		summary, err := descriptor.SummarizeCapabilities(caps)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Host arch: %s, CPU model: %s\n", summary.Arch, summary.CPUModel)
		if len(summary.Guests) > 0 {
			fmt.Printf("✓ Guest types: %s\n", strings.Join(summary.Guests, ", "))
		}

		domains, err := conn.ListAllDomains()
		if err != nil {
			return err
		}
		defer func() { _ = domains.Close() }()

		fmt.Printf("✓ Domains: %d\n", len(domains))
		for _, d := range domains {
			state, err := d.State()
			if err != nil {
				fmt.Printf("  - %s (state unavailable: %v)\n", d.Name(), err)
				continue
			}
			fmt.Printf("  - %s (%s)\n", d.Name(), state)
		}

		fmt.Println("\nConnection test successful!")
		return nil
	},
}

// formatLibVersion renders an encoded libvirt version (8006000 for 8.6.0).
func formatLibVersion(v uint64) string {
	major := v / 1000000
	minor := (v % 1000000) / 1000
	patch := v % 1000
	return fmt.Sprintf("%d.%d.%d", major, minor, patch)
}
