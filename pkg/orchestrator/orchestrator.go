// Copyright 2026 The Switchboard Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package orchestrator composes the classifier, the agent registry and
// conversation storage into the per-turn routing state machine.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/switchboard-dev/switchboard/pkg/agent"
	"github.com/switchboard-dev/switchboard/pkg/chat"
	"github.com/switchboard-dev/switchboard/pkg/classifier"
	"github.com/switchboard-dev/switchboard/pkg/llms"
	"github.com/switchboard-dev/switchboard/pkg/streaming"
)

// Turn states. Every turn walks RECEIVED through RECORDED, or drops into
// FAILED from any state.
const (
	StateReceived   = "RECEIVED"
	StateClassified = "CLASSIFIED"
	StateResolved   = "RESOLVED"
	StateInvoked    = "INVOKED"
	StateNormalized = "NORMALIZED"
	StateRecorded   = "RECORDED"
	StateFailed     = "FAILED"
)

// Metrics receives per-turn observations. The observability package
// provides the Prometheus-backed implementation.
type Metrics interface {
	ObserveClassification(agentID string, confidence float64)
	ObserveTurn(agentID, outcome string, duration time.Duration)
}

// streamingPreference lets an agent opt out of chunked replies even when it
// implements the streaming interface.
type streamingPreference interface {
	Streaming() bool
}

// Orchestrator routes turns. Safe for concurrent use across sessions; all
// per-turn state lives on the stack and in per-session storage.
type Orchestrator struct {
	classifier classifier.Classifier
	registry   *agent.Registry
	storage    chat.Storage
	window     chat.Window
	logger     *slog.Logger
	metrics    Metrics
	tracer     trace.Tracer

	fallbackAgentID     string
	noAgentMessage      string
	confidenceThreshold float64
}

type Option func(*Orchestrator)

// WithFallbackAgent names the agent that handles unroutable turns. The
// identifier must be registered; New fails otherwise.
func WithFallbackAgent(id string) Option {
	return func(o *Orchestrator) { o.fallbackAgentID = id }
}

// WithNoAgentMessage sets the reply text for terminal no-agent responses.
func WithNoAgentMessage(msg string) Option {
	return func(o *Orchestrator) {
		if msg != "" {
			o.noAgentMessage = msg
		}
	}
}

// WithConfidenceThreshold routes classifications below the threshold to the
// fallback policy. Zero disables the check.
func WithConfidenceThreshold(threshold float64) Option {
	return func(o *Orchestrator) { o.confidenceThreshold = threshold }
}

// WithStorage replaces the default in-memory conversation storage.
func WithStorage(storage chat.Storage) Option {
	return func(o *Orchestrator) {
		if storage != nil {
			o.storage = storage
		}
	}
}

// WithHistoryWindow trims histories before they reach the classifier and
// agents.
func WithHistoryWindow(window chat.Window) Option {
	return func(o *Orchestrator) { o.window = window }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(o *Orchestrator) { o.metrics = metrics }
}

const defaultNoAgentMessage = "I'm not sure which of our services can help with that. Could you rephrase your request?"

func New(cls classifier.Classifier, registry *agent.Registry, opts ...Option) (*Orchestrator, error) {
	if cls == nil {
		return nil, fmt.Errorf("orchestrator requires a classifier")
	}
	if registry == nil || registry.Count() == 0 {
		return nil, ErrNoAgents
	}

	o := &Orchestrator{
		classifier:     cls,
		registry:       registry,
		storage:        chat.NewInMemoryStorage(),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		noAgentMessage: defaultNoAgentMessage,
		tracer:         otel.Tracer("switchboard/orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.fallbackAgentID != "" {
		if _, ok := registry.Get(o.fallbackAgentID); !ok {
			return nil, fmt.Errorf("fallback agent %q is not registered", o.fallbackAgentID)
		}
	}
	if o.confidenceThreshold < 0 || o.confidenceThreshold > 1 {
		return nil, fmt.Errorf("confidence threshold must be within [0, 1]")
	}

	return o, nil
}

// Submit routes one turn. The returned error covers infrastructure faults
// only (storage access); routing failures degrade to a Response with
// Failed set and the typed cause attached.
func (o *Orchestrator) Submit(ctx context.Context, userInput, userID, sessionID string, params chat.Params) (*Response, error) {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "route_turn",
		trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer span.End()

	logger := o.logger.With("user_id", userID, "session_id", sessionID)
	logger.Debug("turn received", "state", StateReceived)

	fullHistory, err := o.storage.Fetch(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	history := o.window.Apply(fullHistory)

	base := Response{
		UserInput: userInput,
		UserID:    userID,
		SessionID: sessionID,
		Params:    params,
	}

	// RECEIVED -> CLASSIFIED
	classifyCtx, classifySpan := o.tracer.Start(ctx, "classify")
	result, err := o.classifier.Classify(classifyCtx, userInput, history, o.registry.Candidates())
	if err != nil {
		classifySpan.RecordError(err)
		classifySpan.SetStatus(codes.Error, err.Error())
		classifySpan.End()
		var schemaErr *classifier.SchemaError
		if errors.As(err, &schemaErr) {
			// Malformed model output degrades to the no-agent reply
			// rather than crashing the turn.
			logger.Warn("classification output rejected", "state", StateFailed, "error", err)
			return o.finishFailed(base, schemaErr, start), nil
		}
		logger.Error("classification call failed", "state", StateFailed, "error", err)
		return o.finishFailed(base, err, start), nil
	}
	classifySpan.SetAttributes(
		attribute.String("selected_agent", result.SelectedAgentID),
		attribute.Float64("confidence", result.Confidence),
	)
	classifySpan.End()
	logger.Debug("turn classified", "state", StateClassified,
		"selected_agent", result.SelectedAgentID, "confidence", result.Confidence)
	if o.metrics != nil {
		o.metrics.ObserveClassification(result.SelectedAgentID, result.Confidence)
	}

	// CLASSIFIED -> RESOLVED
	selected, failure := o.resolve(result)
	if failure != nil {
		logger.Warn("agent resolution failed", "state", StateFailed, "error", failure)
		return o.finishFailed(base, failure, start), nil
	}
	if selected == nil {
		// Terminal no-agent reply: a policy outcome, not a failure.
		logger.Info("no agent resolved, replying with no-agent message", "state", StateResolved,
			"selected_agent", result.SelectedAgentID)
		resp := base
		resp.Output = o.noAgentMessage
		o.observeTurn("", "no_agent", start)
		return &resp, nil
	}
	logger.Debug("agent resolved", "state", StateResolved, "agent_id", selected.ID())

	base.AgentID = selected.ID()
	base.AgentName = selected.Name()

	req := &agent.Request{
		Input:     userInput,
		UserID:    userID,
		SessionID: sessionID,
		History:   history,
		Params:    params,
	}

	// RESOLVED -> INVOKED -> NORMALIZED -> RECORDED
	if streamer, ok := selected.(agent.StreamingAgent); ok && wantsStreaming(selected) {
		return o.invokeStreaming(ctx, logger, base, selected, streamer, req, start)
	}
	return o.invoke(ctx, logger, base, selected, req, start)
}

// resolve maps a classification result to a concrete agent. A nil agent
// with a nil error means the terminal no-agent reply applies.
func (o *Orchestrator) resolve(result *classifier.Result) (agent.Agent, error) {
	unroutable := result.IsUnknown() ||
		(o.confidenceThreshold > 0 && result.Confidence < o.confidenceThreshold)

	if !unroutable {
		if a, ok := o.registry.Get(result.SelectedAgentID); ok {
			return a, nil
		}
		// A fabricated identifier is unresolved, not unknown: without a
		// fallback it is a reportable error.
		if o.fallbackAgentID == "" {
			return nil, &UnresolvedAgentError{Selected: result.SelectedAgentID}
		}
	}

	if o.fallbackAgentID != "" {
		if a, ok := o.registry.Get(o.fallbackAgentID); ok {
			return a, nil
		}
	}
	return nil, nil
}

func (o *Orchestrator) invoke(ctx context.Context, logger *slog.Logger, base Response, selected agent.Agent, req *agent.Request, start time.Time) (*Response, error) {
	ctx, span := o.tracer.Start(ctx, "invoke",
		trace.WithAttributes(attribute.String("agent_id", selected.ID())))
	defer span.End()

	output, err := selected.Process(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		invErr := &AgentInvocationError{AgentID: selected.ID(), Err: err}
		logger.Error("agent invocation failed", "state", StateFailed, "agent_id", selected.ID(), "error", err)
		return o.finishFailed(base, invErr, start), nil
	}
	logger.Debug("agent replied", "state", StateNormalized, "agent_id", selected.ID(), "streaming", false)

	resp := base
	resp.Output = output

	if selected.SaveChat() {
		if err := o.record(ctx, req, selected.ID(), output); err != nil {
			return nil, err
		}
		logger.Debug("turn recorded", "state", StateRecorded, "agent_id", selected.ID())
	}

	o.observeTurn(selected.ID(), "ok", start)
	return &resp, nil
}

func (o *Orchestrator) invokeStreaming(ctx context.Context, logger *slog.Logger, base Response, selected agent.Agent, streamer agent.StreamingAgent, req *agent.Request, start time.Time) (*Response, error) {
	ctx, span := o.tracer.Start(ctx, "invoke",
		trace.WithAttributes(
			attribute.String("agent_id", selected.ID()),
			attribute.Bool("streaming", true),
		))
	defer span.End()

	chunks, err := streamer.ProcessStreaming(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		invErr := &AgentInvocationError{AgentID: selected.ID(), Err: err}
		logger.Error("agent invocation failed", "state", StateFailed, "agent_id", selected.ID(), "error", err)
		return o.finishFailed(base, invErr, start), nil
	}

	acc := streaming.NewAccumulator()
	resp := base
	resp.Streaming = true
	resp.Stream = acc
	logger.Debug("agent streaming", "state", StateInvoked, "agent_id", selected.ID(), "streaming", true)

	go o.pump(ctx, logger, acc, chunks, selected, req, start)

	return &resp, nil
}

// pump forwards agent chunks through the accumulator and records the turn
// once accumulation completes cleanly. A partial accumulation is never
// recorded.
func (o *Orchestrator) pump(ctx context.Context, logger *slog.Logger, acc *streaming.Accumulator, chunks <-chan llms.StreamChunk, selected agent.Agent, req *agent.Request, start time.Time) {
	for c := range chunks {
		switch c.Type {
		case llms.ChunkTypeError:
			streamErr := &StreamIntegrityError{AgentID: selected.ID(), Err: c.Error}
			logger.Error("stream terminated abnormally", "state", StateFailed, "agent_id", selected.ID(), "error", c.Error)
			acc.Fail(streamErr)
			o.observeTurn(selected.ID(), "stream_error", start)
			return
		case llms.ChunkTypeText:
			if c.Text == "" {
				continue
			}
			if err := acc.Write(ctx, c.Text); err != nil {
				logger.Warn("stream cancelled mid-accumulation", "state", StateFailed, "agent_id", selected.ID(), "error", err)
				o.observeTurn(selected.ID(), "cancelled", start)
				return
			}
		}
	}

	acc.Close()
	logger.Debug("stream accumulated", "state", StateNormalized, "agent_id", selected.ID())

	text, err := acc.Text()
	if err != nil {
		return
	}

	if selected.SaveChat() {
		// Recording happens off the request path; the turn's context may
		// already be done once the stream has drained.
		recordCtx := context.WithoutCancel(ctx)
		if err := o.record(recordCtx, req, selected.ID(), text); err != nil {
			logger.Error("failed to record streamed turn", "agent_id", selected.ID(), "error", err)
			return
		}
		logger.Debug("turn recorded", "state", StateRecorded, "agent_id", selected.ID())
	}

	o.observeTurn(selected.ID(), "ok", start)
}

// record appends the user turn and the attributed assistant reply.
func (o *Orchestrator) record(ctx context.Context, req *agent.Request, agentID, output string) error {
	err := o.storage.Append(ctx, req.UserID, req.SessionID,
		chat.NewUserMessage(req.Input),
		chat.NewAssistantMessage(output, agentID),
	)
	if err != nil {
		return fmt.Errorf("failed to record turn: %w", err)
	}
	return nil
}

func (o *Orchestrator) finishFailed(base Response, cause error, start time.Time) *Response {
	resp := base
	resp.Failed = true
	resp.Cause = cause
	resp.Output = o.noAgentMessage
	o.observeTurn(resp.AgentID, "failed", start)
	return &resp
}

func (o *Orchestrator) observeTurn(agentID, outcome string, start time.Time) {
	if o.metrics != nil {
		o.metrics.ObserveTurn(agentID, outcome, time.Since(start))
	}
}

// History returns the recorded conversation for a session.
func (o *Orchestrator) History(ctx context.Context, userID, sessionID string) ([]chat.Message, error) {
	return o.storage.Fetch(ctx, userID, sessionID)
}

// Agents exposes the registry for surfaces that list available agents.
func (o *Orchestrator) Agents() *agent.Registry {
	return o.registry
}

func wantsStreaming(a agent.Agent) bool {
	if pref, ok := a.(streamingPreference); ok {
		return pref.Streaming()
	}
	return true
}
