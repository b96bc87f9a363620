package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,AuditPublisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"credito/internal/credit/mapper"
	"credito/internal/credit/metrics"
	"credito/internal/credit/models"
	"credito/internal/credit/store"
	audit "credito/pkg/platform/audit"
	dErrors "credito/pkg/domain-errors"
)

const tracerName = "credito/internal/credit/service"

// Store is the read side of the credit record store.
type Store interface {
	FindByNumeroNfse(ctx context.Context, numeroNfse string) ([]*models.Record, error)
	FindByNumeroCredito(ctx context.Context, numeroCredito string) (*models.Record, error)
}

// AuditPublisher announces successful lookups. It must not block and has no
// failure path visible to the caller.
type AuditPublisher interface {
	PublishQuery(ctx context.Context, kind audit.QueryKind, parameter *string)
}

// Service answers credit lookups and announces each successful one.
type Service struct {
	store     Store
	publisher AuditPublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(st Store, publisher AuditPublisher, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("credit store is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("audit publisher is required")
	}
	s := &Service{
		store:     st,
		publisher: publisher,
		logger:    slog.New(slog.DiscardHandler),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FindByNumeroNfse returns every credit constituted for the NFS-e, in store
// order. The key is used verbatim.
func (s *Service) FindByNumeroNfse(ctx context.Context, numeroNfse string) ([]*models.View, error) {
	start := time.Now()
	kind := audit.QueryByNumeroNfse
	ctx, span := s.tracer.Start(ctx, "credit.FindByNumeroNfse",
		trace.WithAttributes(attribute.String("credito.numero_nfse", numeroNfse)))
	defer span.End()

	records, err := s.store.FindByNumeroNfse(ctx, numeroNfse)
	if err != nil {
		return nil, s.fail(ctx, span, kind, start, storeError(err, "failed to load credits"))
	}
	if len(records) == 0 {
		return nil, s.fail(ctx, span, kind, start,
			dErrors.New(dErrors.CodeNotFound, "Nenhum crédito encontrado para a NFS-e: "+numeroNfse))
	}

	views := mapper.ToViews(records)
	s.publisher.PublishQuery(ctx, kind, &numeroNfse)

	span.SetAttributes(attribute.Int("credito.result_count", len(views)))
	s.metrics.ObserveLookup(string(kind), metrics.OutcomeFound, start)
	return views, nil
}

// FindByNumeroCredito returns the credit with the given number. The key is
// used verbatim.
func (s *Service) FindByNumeroCredito(ctx context.Context, numeroCredito string) (*models.View, error) {
	start := time.Now()
	kind := audit.QueryByNumeroCredito
	ctx, span := s.tracer.Start(ctx, "credit.FindByNumeroCredito",
		trace.WithAttributes(attribute.String("credito.numero_credito", numeroCredito)))
	defer span.End()

	record, err := s.store.FindByNumeroCredito(ctx, numeroCredito)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, s.fail(ctx, span, kind, start,
				dErrors.New(dErrors.CodeNotFound, "Crédito não encontrado: "+numeroCredito))
		}
		return nil, s.fail(ctx, span, kind, start, storeError(err, "failed to load credit"))
	}
	if record == nil {
		return nil, s.fail(ctx, span, kind, start,
			dErrors.New(dErrors.CodeNotFound, "Crédito não encontrado: "+numeroCredito))
	}

	view := mapper.ToView(record)
	s.publisher.PublishQuery(ctx, kind, &numeroCredito)

	s.metrics.ObserveLookup(string(kind), metrics.OutcomeFound, start)
	return view, nil
}

// storeError codes a store failure. A lookup cut short by the request deadline
// is a timeout; anything else is internal.
func storeError(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "Tempo limite excedido ao consultar créditos")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) fail(ctx context.Context, span trace.Span, kind audit.QueryKind, start time.Time, err error) error {
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		span.SetAttributes(attribute.Bool("credito.not_found", true))
		s.metrics.ObserveLookup(string(kind), metrics.OutcomeNotFound, start)
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "lookup failed")
	s.metrics.ObserveLookup(string(kind), metrics.OutcomeError, start)
	s.logger.ErrorContext(ctx, "credit lookup failed",
		"tipo_consulta", kind,
		"error", err,
	)
	return err
}
