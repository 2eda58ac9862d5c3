// Package dispatch routes domain requests onto a shared hypervisor
// connection.
//
// Every Control and Info request takes a fresh enumeration of all domains,
// picks the first one whose name matches exactly and releases every
// enumerated handle before returning. Nothing is cached between requests.
//
// Native calls block and cannot be interrupted, so they run on their own
// goroutine. A caller whose context ends stops waiting and gets ctx.Err();
// the native call still completes and its handles are still released.
package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jbweber/virtd/internal/virt"
)

const tracerName = "github.com/jbweber/virtd/internal/dispatch"

// domainSource is the part of *virt.Connection the service needs.
type domainSource interface {
	ListAllDomains() (virt.Domains, error)
	DefineDomain(xml string) (*virt.Domain, error)
}

// Service dispatches Create, Control and Info requests. It is safe for
// concurrent use.
type Service struct {
	conn   domainSource
	mode   Mode
	tracer trace.Tracer
	log    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMode sets the error reporting mode. The default is ModeAcknowledge.
func WithMode(mode Mode) Option {
	return func(s *Service) { s.mode = mode }
}

// WithTracer sets the tracer used for per-request spans. The default is the
// global tracer provider's.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// New returns a Service over conn. The caller keeps ownership of conn and
// must keep it open for the lifetime of the Service.
func New(conn domainSource, opts ...Option) *Service {
	s := &Service{
		conn: conn,
		mode: ModeAcknowledge,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", "dispatch")
	return s
}

// Mode reports the configured error reporting mode.
func (s *Service) Mode() Mode {
	return s.mode
}

// Create defines a domain from descriptor without starting it.
func (s *Service) Create(ctx context.Context, descriptor string) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.Create")
	defer span.End()

	var name string
	opErr, err := runBlocking(ctx, func() error {
		dom, err := s.conn.DefineDomain(descriptor)
		if err != nil {
			return err
		}
		name = dom.Name()
		if err := dom.Close(); err != nil {
			s.log.Warn("release defined domain", "domain", name, "err", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, s.abandon(span, "create", err)
	}

	if opErr == nil {
		span.SetAttributes(attribute.String("domain.name", name))
		s.log.Info("domain defined", "domain", name)
	}
	return s.result(span, "create", opErr)
}

// Control applies instruction to the first domain named name.
func (s *Service) Control(ctx context.Context, name string, instruction Instruction) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.Control", trace.WithAttributes(
		attribute.String("domain.name", name),
		attribute.String("domain.instruction", instruction.String()),
	))
	defer span.End()

	opErr, err := runBlocking(ctx, func() error {
		return s.withDomain(name, func(dom *virt.Domain) error {
			return apply(dom, instruction)
		})
	})
	if err != nil {
		return Result{}, s.abandon(span, "control", err)
	}

	if opErr == nil {
		s.log.Info("domain instruction applied", "domain", name, "instruction", instruction)
	}
	return s.result(span, "control", opErr)
}

// Info returns a snapshot of the first domain named name. When no domain
// matches, the snapshot is the zero value and the outcome OutcomeNotFound.
func (s *Service) Info(ctx context.Context, name string) (InfoResult, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.Info", trace.WithAttributes(
		attribute.String("domain.name", name),
	))
	defer span.End()

	var info virt.DomainInfo
	opErr, err := runBlocking(ctx, func() error {
		return s.withDomain(name, func(dom *virt.Domain) error {
			var err error
			info, err = dom.Info()
			return err
		})
	})
	if err != nil {
		return InfoResult{}, s.abandon(span, "info", err)
	}

	res, err := s.result(span, "info", opErr)
	out := InfoResult{Outcome: res.Outcome, Err: res.Err}
	if res.Outcome == OutcomeOK {
		out.Info = info
	}
	return out, err
}

// withDomain enumerates all domains, runs fn on the first exact name match
// and releases the enumeration.
func (s *Service) withDomain(name string, fn func(*virt.Domain) error) error {
	domains, err := s.conn.ListAllDomains()
	if err != nil {
		return err
	}
	defer func() {
		if err := domains.Close(); err != nil {
			s.log.Warn("release enumerated domains", "err", err)
		}
	}()

	dom := domains.Lookup(name)
	if dom == nil {
		return virt.NotFoundError(name)
	}
	return fn(dom)
}

func apply(dom *virt.Domain, instruction Instruction) error {
	switch instruction {
	case InstructionShutdown:
		return dom.Shutdown()
	case InstructionReboot:
		return dom.Reboot()
	default:
		return dom.Start()
	}
}

// result classifies opErr, records it on the span and applies the mode.
func (s *Service) result(span trace.Span, op string, opErr error) (Result, error) {
	res := Result{Outcome: OutcomeOK, Message: AcknowledgeMessage}
	if opErr == nil {
		span.SetAttributes(attribute.String("dispatch.outcome", res.Outcome.String()))
		return res, nil
	}

	res.Err = opErr
	res.Outcome = OutcomeFailed
	if errors.Is(opErr, virt.ErrNotFound) {
		res.Outcome = OutcomeNotFound
	}
	span.SetAttributes(attribute.String("dispatch.outcome", res.Outcome.String()))
	span.RecordError(opErr)
	span.SetStatus(codes.Error, opErr.Error())
	s.log.Warn(op+" failed", "outcome", res.Outcome, "err", opErr)

	if s.mode == ModeStrict {
		return res, opErr
	}
	return res, nil
}

func (s *Service) abandon(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.log.Debug(op+" abandoned by caller", "err", err)
	return err
}

// runBlocking runs fn on its own goroutine and waits for it or ctx,
// whichever comes first. fn must clean up after itself: if ctx wins, its
// result is dropped.
func runBlocking[T any](ctx context.Context, fn func() T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	done := make(chan T, 1)
	go func() { done <- fn() }()

	select {
	case v := <-done:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
