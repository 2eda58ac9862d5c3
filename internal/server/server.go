// Package server exposes the dispatch service over gRPC as LibvirtService.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/jbweber/virtd/api/pb"
	"github.com/jbweber/virtd/internal/dispatch"
)

// DefaultListenAddr is the address virtd listens on unless configured.
const DefaultListenAddr = "[::]:50052"

// dispatcher is the part of *dispatch.Service the server needs.
type dispatcher interface {
	Create(ctx context.Context, descriptor string) (dispatch.Result, error)
	Control(ctx context.Context, name string, instruction dispatch.Instruction) (dispatch.Result, error)
	Info(ctx context.Context, name string) (dispatch.InfoResult, error)
}

type Server struct {
	pb.UnimplementedLibvirtServiceServer
	dispatch dispatcher
	log      *slog.Logger
}

func New(d dispatcher) *Server {
	return &Server{
		dispatch: d,
		log:      slog.With("component", "grpc-server"),
	}
}

// GRPCServer returns a grpc.Server with the service registered, OpenTelemetry
// instrumentation and request logging installed.
func (s *Server) GRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(loggingInterceptor(s.log)),
	}, opts...)
	srv := grpc.NewServer(opts...)
	pb.RegisterLibvirtServiceServer(srv, s)
	return srv
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := s.log.With("addr", ln.Addr().String())
	srv := s.GRPCServer()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	log.Info("serving")

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		srv.GracefulStop()
		<-serveErr
		return nil
	case err := <-serveErr:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		log.Error("listener exited", "err", err)
		return err
	}
}

func (s *Server) CreateDomainService(ctx context.Context, req *pb.CreateDomainRequest) (*pb.UniversalResponse, error) {
	res, err := s.dispatch.Create(ctx, req.GetXml())
	if err != nil {
		return nil, toGRPCError(err)
	}
	return universalResponse(res), nil
}

func (s *Server) ControllerDomainService(ctx context.Context, req *pb.ControllerDomainRequest) (*pb.UniversalResponse, error) {
	instruction := dispatch.ParseInstruction(int32(req.GetInstruction()))
	res, err := s.dispatch.Control(ctx, req.GetName(), instruction)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return universalResponse(res), nil
}

func (s *Server) InfoDomainService(ctx context.Context, req *pb.InfoDomainRequest) (*pb.InfoDomainResponse, error) {
	res, err := s.dispatch.Info(ctx, req.GetName())
	if err != nil {
		return nil, toGRPCError(err)
	}

	resp := &pb.InfoDomainResponse{
		Status: toPBOutcome(res.Outcome),
		Error:  errorText(res.Err),
	}
	if res.Outcome == dispatch.OutcomeOK {
		resp.State = res.Info.State.String()
		resp.MaxMemory = int64(res.Info.MaxMemoryKB)
		resp.Memory = int64(res.Info.MemoryKB)
		resp.VirtCpu = int32(res.Info.VirtCPUs)
		resp.CpuTime = int64(res.Info.CPUTimeNS)
	}
	return resp, nil
}

func universalResponse(res dispatch.Result) *pb.UniversalResponse {
	return &pb.UniversalResponse{
		Message: res.Message,
		Status:  toPBOutcome(res.Outcome),
		Error:   errorText(res.Err),
	}
}

func toPBOutcome(o dispatch.Outcome) pb.Outcome {
	switch o {
	case dispatch.OutcomeOK:
		return pb.Outcome_OK
	case dispatch.OutcomeNotFound:
		return pb.Outcome_NOT_FOUND
	default:
		return pb.Outcome_FAILED
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
