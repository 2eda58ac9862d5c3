package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jbweber/virtd/api/pb"
	"github.com/jbweber/virtd/internal/output"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	serverAddr   string
	timeout      time.Duration
	outputFormat string
	noHeaders    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "virtctl",
	Short: "virtctl - command-line client for virtd",
	Long: `virtctl sends domain lifecycle requests to a virtd server.

Examples:
  virtctl create domain.xml
  virtctl start vm-a
  virtctl info vm-a -o yaml`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:50052", "virtd server address")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	infoCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, yaml, json")
	infoCmd.Flags().BoolVar(&noHeaders, "no-headers", false, "Omit table headers")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(controlCmd("start", "Start a defined domain", pb.Instructions_Start))
	rootCmd.AddCommand(controlCmd("shutdown", "Ask a domain to shut down", pb.Instructions_Shutdown))
	rootCmd.AddCommand(controlCmd("reboot", "Ask a domain to reboot", pb.Instructions_Reboot))
	rootCmd.AddCommand(infoCmd)
}

// withClient dials the server and runs fn with a request-scoped context.
func withClient(ctx context.Context, fn func(context.Context, pb.LibvirtServiceClient) error) error {
	cc, err := grpc.NewClient(serverAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", serverAddr, err)
	}
	defer func() { _ = cc.Close() }()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx, pb.NewLibvirtServiceClient(cc))
}

// checkResponse turns a non-OK acknowledged outcome into an error.
func checkResponse(resp *pb.UniversalResponse) error {
	if resp.GetStatus() == pb.Outcome_OK {
		return nil
	}
	if resp.GetError() != "" {
		return fmt.Errorf("%s: %s", resp.GetStatus(), resp.GetError())
	}
	return fmt.Errorf("%s", resp.GetStatus())
}

var createCmd = &cobra.Command{
	Use:   "create <domain.xml>",
	Short: "Define a domain from a libvirt XML descriptor",
	Long: `Define (but do not start) a domain from a libvirt domain XML file.

Use "virtctl start <name>" to boot it afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}

		return withClient(cmd.Context(), func(ctx context.Context, c pb.LibvirtServiceClient) error {
			resp, err := c.CreateDomainService(ctx, &pb.CreateDomainRequest{Xml: string(data)})
			if err != nil {
				return fmt.Errorf("failed to create domain: %w", err)
			}
			fmt.Println(resp.GetMessage())
			return checkResponse(resp)
		})
	},
}

func controlCmd(use, short string, instruction pb.Instructions) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c pb.LibvirtServiceClient) error {
				resp, err := c.ControllerDomainService(ctx, &pb.ControllerDomainRequest{
					Name:        args[0],
					Instruction: instruction,
				})
				if err != nil {
					return fmt.Errorf("failed to %s domain %s: %w", use, args[0], err)
				}
				fmt.Println(resp.GetMessage())
				return checkResponse(resp)
			})
		},
	}
}

var infoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show a domain's state and resources",
	Long: `Show the state, vCPUs, memory and CPU time of a domain.

Output formats:
  -o table  Human-readable table (default)
  -o yaml   YAML
  -o json   JSON`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := output.ValidateFormat(outputFormat); err != nil {
			return err
		}

		formatter, err := output.NewFormatter(output.Options{
			Format:    output.Format(outputFormat),
			NoHeaders: noHeaders,
		})
		if err != nil {
			return err
		}

		return withClient(cmd.Context(), func(ctx context.Context, c pb.LibvirtServiceClient) error {
			resp, err := c.InfoDomainService(ctx, &pb.InfoDomainRequest{Name: args[0]})
			if err != nil {
				return fmt.Errorf("failed to get domain info: %w", err)
			}

			result, err := formatter.FormatDomain(output.FromInfoResponse(args[0], resp))
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			fmt.Print(result)
			return nil
		})
	},
}
