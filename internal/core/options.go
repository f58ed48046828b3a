package core

import (
	"context"
	"os"
	"strconv"
	"time"

	"carecore/internal/blob"
	"carecore/pkg/domain"
)

// DefaultCaregiverCapacity is the resident limit applied to each caregiver
// when no override is configured.
const DefaultCaregiverCapacity = 5

// Logger receives structured service events as message plus key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock supplies the current time, overridable in tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now invokes the wrapped function.
func (f ClockFunc) Now() time.Time { return f() }

// AuditStatus classifies an audit entry outcome.
type AuditStatus string

const (
	// AuditStatusSuccess marks an operation that committed.
	AuditStatusSuccess AuditStatus = "success"
	// AuditStatusError marks an operation that failed.
	AuditStatusError AuditStatus = "error"
)

// AuditEntry captures one service operation for the audit trail.
type AuditEntry struct {
	Operation string
	Entity    domain.EntityType
	Action    domain.Action
	EntityID  string
	Actor     string
	Status    AuditStatus
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder persists audit entries emitted by the service.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

// MetricsRecorder observes operation outcomes for monitoring backends.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// TraceSpan finishes a traced operation.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopTracer struct{}

type noopSpan struct{}

func (noopSpan) End(error) {}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type serviceOptions struct {
	clock     Clock
	logger    Logger
	audit     AuditRecorder
	metrics   MetricsRecorder
	tracer    Tracer
	blobs     blob.Store
	capacity  int
	opTimeout time.Duration
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		clock:    ClockFunc(func() time.Time { return time.Now().UTC() }),
		logger:   noopLogger{},
		audit:    noopAuditRecorder{},
		metrics:  noopMetricsRecorder{},
		tracer:   noopTracer{},
		capacity: CaregiverCapacityFromEnv(),
	}
}

// CaregiverCapacityFromEnv resolves the caregiver capacity limit from
// CARECORE_CAREGIVER_CAPACITY, falling back to the default when unset or invalid.
func CaregiverCapacityFromEnv() int {
	raw := os.Getenv("CARECORE_CAREGIVER_CAPACITY")
	if raw == "" {
		return DefaultCaregiverCapacity
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return DefaultCaregiverCapacity
	}
	return n
}

// Option customizes service construction.
type Option func(*serviceOptions)

// WithClock overrides the time source used for audit timestamps.
func WithClock(clock Clock) Option {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger installs a structured logger for service events.
func WithLogger(logger Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAuditRecorder installs an audit sink for service operations.
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.audit = recorder
		}
	}
}

// WithMetricsRecorder installs a metrics sink for operation outcomes.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithTracer installs a tracer wrapping each service operation.
func WithTracer(tracer Tracer) Option {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithBlobStore supplies the media backend used for post-commit cleanup.
func WithBlobStore(store blob.Store) Option {
	return func(o *serviceOptions) {
		if store != nil {
			o.blobs = store
		}
	}
}

// WithCaregiverCapacity overrides the per-caregiver resident limit.
func WithCaregiverCapacity(capacity int) Option {
	return func(o *serviceOptions) {
		if capacity > 0 {
			o.capacity = capacity
		}
	}
}

// WithOperationTimeout bounds each service operation with a deadline.
// Zero disables the bound.
func WithOperationTimeout(d time.Duration) Option {
	return func(o *serviceOptions) {
		if d > 0 {
			o.opTimeout = d
		}
	}
}

type actorContextKey struct{}

// WithActor annotates the context with the acting principal recorded in audit entries.
func WithActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the acting principal, if any.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorContextKey{}).(string)
	return actor
}
