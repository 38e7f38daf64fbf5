// Package dispatch routes validated tutor questions to the generation
// backend with the persona for their subject and level.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/lewa-backend/internal/domain/tutor"
	"github.com/yungbote/lewa-backend/internal/gateway/engine"
	"github.com/yungbote/lewa-backend/internal/gateway/gwerr"
	"github.com/yungbote/lewa-backend/internal/gateway/persona"
	"github.com/yungbote/lewa-backend/internal/gateway/validate"
	"github.com/yungbote/lewa-backend/internal/observability"
	"github.com/yungbote/lewa-backend/internal/platform/ctxutil"
	"github.com/yungbote/lewa-backend/internal/platform/logger"
)

// Input is one tutor request as received from a transport.
type Input struct {
	Subject   string
	Level     string
	Question  string
	Streaming bool
}

// Result holds exactly one of Response or Stream, depending on Input.Streaming.
type Result struct {
	Response *tutor.Response
	Stream   *StreamResponse
}

// Metric outcomes besides the error codes.
const (
	outcomeOK        = "ok"
	outcomeCancelled = "cancelled"
)

// Dispatcher is stateless apart from its immutable collaborators and is safe
// for concurrent use.
type Dispatcher struct {
	registry *persona.Registry
	backend  engine.Backend
	log      *logger.Logger
	tracer   trace.Tracer
	metrics  *observability.Metrics
}

type Option func(*Dispatcher)

// WithMetrics records per-request outcomes on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func New(registry *persona.Registry, backend engine.Backend, log *logger.Logger, opts ...Option) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	d := &Dispatcher{
		registry: registry,
		backend:  backend,
		log:      log.With("service", "Dispatcher"),
		tracer:   otel.Tracer("lewa/dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Handle(ctx context.Context, in Input) (Result, error) {
	if in.Streaming {
		s, err := d.Stream(ctx, in.Subject, in.Level, in.Question)
		if err != nil {
			return Result{}, err
		}
		return Result{Stream: s}, nil
	}
	r, err := d.Ask(ctx, in.Subject, in.Level, in.Question)
	if err != nil {
		return Result{}, err
	}
	return Result{Response: &r}, nil
}

// Ask returns the complete answer in one response.
func (d *Dispatcher) Ask(ctx context.Context, subject, level, question string) (tutor.Response, error) {
	p, prompt, err := d.prepare(subject, level, question)
	if err != nil {
		return tutor.Response{}, err
	}

	ctx, span := d.tracer.Start(ctx, "tutor.ask", trace.WithAttributes(keyAttrs(p.Key)...))
	defer span.End()
	log := d.requestLog(ctx)

	start := time.Now()
	text, err := d.backend.Generate(ctx, prompt)
	if err != nil {
		ge := gwerr.Classify(err)
		d.fail(log, span, p.Key, "ask", ge, start)
		return tutor.Response{}, ge
	}

	d.metrics.ObserveTutor(p.Key.Subject, string(p.Key.Level), "ask", outcomeOK, time.Since(start))
	log.Info("tutor answer",
		"subject", p.Key.Subject,
		"level", p.Key.Level,
		"mode", "ask",
		"backend", d.backend.Name(),
		"chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return tutor.Response{Response: text, Subject: p.Key.Subject, Level: p.Key.Level}, nil
}

// Stream opens a streamed answer. The first fragment is produced before Stream
// returns: a failure at that point is returned as a classified error, and any
// later failure is delivered in-band as the final fragment.
func (d *Dispatcher) Stream(ctx context.Context, subject, level, question string) (*StreamResponse, error) {
	p, prompt, err := d.prepare(subject, level, question)
	if err != nil {
		return nil, err
	}

	ctx, span := d.tracer.Start(ctx, "tutor.stream", trace.WithAttributes(keyAttrs(p.Key)...))
	log := d.requestLog(ctx)
	start := time.Now()

	stream, err := d.backend.GenerateStream(ctx, prompt)
	if err != nil {
		ge := gwerr.Classify(err)
		d.fail(log, span, p.Key, "stream", ge, start)
		span.End()
		return nil, ge
	}

	s := newStreamResponse(p.Key, stream)
	if ge := s.prime(); ge != nil {
		d.fail(log, span, p.Key, "stream", ge, start)
		span.End()
		return nil, ge
	}

	s.onDone = func(fragments int, ge *gwerr.Error, completed bool) {
		defer span.End()
		span.SetAttributes(attribute.Int("tutor.fragments", fragments))
		d.metrics.AddFragments(p.Key.Subject, fragments)
		if ge != nil {
			d.fail(log, span, p.Key, "stream", ge, start)
			return
		}
		if !completed {
			d.cancelled(log, span, p.Key, "stream", start)
			return
		}
		d.metrics.ObserveTutor(p.Key.Subject, string(p.Key.Level), "stream", outcomeOK, time.Since(start))
		log.Info("tutor answer",
			"subject", p.Key.Subject,
			"level", p.Key.Level,
			"mode", "stream",
			"backend", d.backend.Name(),
			"fragments", fragments,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return s, nil
}

// Subjects lists the configured subjects.
func (d *Dispatcher) Subjects() []tutor.Subject {
	return d.registry.Subjects()
}

// Backend reports the active provider name.
func (d *Dispatcher) Backend() string {
	return d.backend.Name()
}

// prepare validates the request and resolves its persona. Nothing here
// touches the backend.
func (d *Dispatcher) prepare(subject, level, question string) (tutor.Persona, engine.Prompt, error) {
	q, err := validate.Request(subject, level, question)
	if err != nil {
		return tutor.Persona{}, engine.Prompt{}, err
	}
	s, ok := d.registry.Resolve(q.Subject)
	if !ok {
		return tutor.Persona{}, engine.Prompt{}, gwerr.UnknownSubject(q.Subject)
	}
	q.Subject = s.Name
	p := d.registry.Lookup(tutor.SubjectKey{Subject: s.Name, Level: q.Level})
	return p, engine.Frame(p, q), nil
}

func (d *Dispatcher) requestLog(ctx context.Context) *logger.Logger {
	if id := ctxutil.RequestID(ctx); id != "" {
		return d.log.With("request_id", id)
	}
	return d.log
}

func (d *Dispatcher) fail(log *logger.Logger, span trace.Span, key tutor.SubjectKey, mode string, ge *gwerr.Error, start time.Time) {
	if errors.Is(ge, context.Canceled) {
		d.cancelled(log, span, key, mode, start)
		return
	}
	span.RecordError(ge)
	span.SetStatus(codes.Error, ge.Code())
	d.metrics.ObserveTutor(key.Subject, string(key.Level), mode, ge.Code(), time.Since(start))
	kv := []interface{}{
		"subject", key.Subject,
		"level", key.Level,
		"mode", mode,
		"backend", d.backend.Name(),
		"code", ge.Code(),
		"error", ge.Error(),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if ge.Kind == gwerr.KindUpstream {
		log.Error("tutor generation failed", kv...)
		return
	}
	log.Warn("tutor generation failed", kv...)
}

// cancelled records a request the client abandoned before the backend finished.
func (d *Dispatcher) cancelled(log *logger.Logger, span trace.Span, key tutor.SubjectKey, mode string, start time.Time) {
	span.SetAttributes(attribute.Bool("tutor.cancelled", true))
	d.metrics.ObserveTutor(key.Subject, string(key.Level), mode, outcomeCancelled, time.Since(start))
	log.Info("tutor request cancelled",
		"subject", key.Subject,
		"level", key.Level,
		"mode", mode,
		"backend", d.backend.Name(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func keyAttrs(k tutor.SubjectKey) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("tutor.subject", k.Subject),
		attribute.String("tutor.level", string(k.Level)),
	}
}

// Health describes one subject endpoint.
type Health struct {
	Status          string        `json:"status"`
	Subject         string        `json:"subject"`
	SupportedLevels []tutor.Level `json:"supportedLevels"`
	Message         string        `json:"message"`
}

func (d *Dispatcher) Health(subject string) (Health, error) {
	s, ok := d.registry.Resolve(subject)
	if !ok {
		return Health{}, gwerr.UnknownSubject(subject)
	}
	return Health{
		Status:          "ok",
		Subject:         s.Name,
		SupportedLevels: tutor.Levels(),
		Message:         fmt.Sprintf("%s endpoint is ready", s.Name),
	}, nil
}
