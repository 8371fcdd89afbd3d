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

package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchboard-dev/switchboard/pkg/agent"
	"github.com/switchboard-dev/switchboard/pkg/chat"
	"github.com/switchboard-dev/switchboard/pkg/classifier"
	"github.com/switchboard-dev/switchboard/pkg/llms"
)

// scriptedClassifier returns canned results per turn, continuity-aware for
// acknowledgement inputs.
type scriptedClassifier struct {
	results map[string]*classifier.Result
	err     error
}

func (s *scriptedClassifier) Classify(ctx context.Context, userInput string, history []chat.Message, agents []classifier.Candidate) (*classifier.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.results[userInput]; ok {
		return r, nil
	}
	switch userInput {
	case "yes", "Yes please", "ok", "1":
		if last := chat.LastAttributedAgent(history); last != "" {
			return &classifier.Result{SelectedAgentID: last, Confidence: 0.85, UserInput: userInput}, nil
		}
	}
	return &classifier.Result{SelectedAgentID: classifier.AgentUnknown, Confidence: 0.1, UserInput: userInput}, nil
}

// testAgent is a scripted non-streaming agent.
type testAgent struct {
	id        string
	name      string
	saveChat  bool
	reply     string
	err       error
	processed int
}

func (a *testAgent) ID() string          { return a.id }
func (a *testAgent) Name() string        { return a.name }
func (a *testAgent) Description() string { return "test agent " + a.id }
func (a *testAgent) SaveChat() bool      { return a.saveChat }

func (a *testAgent) Process(ctx context.Context, req *agent.Request) (string, error) {
	a.processed++
	if a.err != nil {
		return "", a.err
	}
	return a.reply, nil
}

// testStreamingAgent replies through a chunk channel.
type testStreamingAgent struct {
	testAgent
	chunks    []string
	streamErr error
}

func (a *testStreamingAgent) Streaming() bool { return true }

func (a *testStreamingAgent) ProcessStreaming(ctx context.Context, req *agent.Request) (<-chan llms.StreamChunk, error) {
	a.processed++
	if a.err != nil {
		return nil, a.err
	}

	ch := make(chan llms.StreamChunk)
	go func() {
		defer close(ch)
		for _, chunk := range a.chunks {
			ch <- llms.StreamChunk{Type: llms.ChunkTypeText, Text: chunk}
		}
		if a.streamErr != nil {
			ch <- llms.StreamChunk{Type: llms.ChunkTypeError, Error: a.streamErr}
			return
		}
		ch <- llms.StreamChunk{Type: llms.ChunkTypeDone}
	}()
	return ch, nil
}

func newTestRegistry(t *testing.T, agents ...agent.Agent) *agent.Registry {
	t.Helper()
	reg := agent.NewRegistry()
	for _, a := range agents {
		require.NoError(t, reg.Add(a))
	}
	return reg
}

func historyLen(t *testing.T, o *Orchestrator, userID, sessionID string) int {
	t.Helper()
	history, err := o.History(context.Background(), userID, sessionID)
	require.NoError(t, err)
	return len(history)
}

func TestNewRequiresAgents(t *testing.T) {
	_, err := New(&scriptedClassifier{}, agent.NewRegistry())
	assert.ErrorIs(t, err, ErrNoAgents)
}

func TestNewRejectsUnregisteredFallback(t *testing.T) {
	reg := newTestRegistry(t, &testAgent{id: "billing-agent", name: "Billing", saveChat: true})

	_, err := New(&scriptedClassifier{}, reg, WithFallbackAgent("concierge"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concierge")
}

// The concrete routing scenario: tech-support turn, then a follow-up
// acknowledgement that must stay with the same agent.
func TestSubmitRoutesAndPreservesContinuity(t *testing.T) {
	billing := &testAgent{id: "billing-agent", name: "Billing Agent", saveChat: true, reply: "Invoice sorted."}
	support := &testAgent{id: "tech-support-agent", name: "Tech Support Agent", saveChat: true, reply: "Let's check your subscription."}
	reg := newTestRegistry(t, billing, support)

	cls := &scriptedClassifier{results: map[string]*classifier.Result{
		"The premium features aren't working": {SelectedAgentID: "tech-support-agent", Confidence: 0.9, UserInput: "The premium features aren't working"},
	}}

	o, err := New(cls, reg)
	require.NoError(t, err)

	resp, err := o.Submit(context.Background(), "The premium features aren't working", "u1", "s1", nil)
	require.NoError(t, err)
	assert.False(t, resp.Failed)
	assert.Equal(t, "tech-support-agent", resp.AgentID)
	assert.Equal(t, "Tech Support Agent", resp.AgentName)
	assert.Equal(t, "Let's check your subscription.", resp.Output)
	assert.Equal(t, 2, historyLen(t, o, "u1", "s1"))

	// Follow-up acknowledgement sticks with the attributed agent.
	resp, err = o.Submit(context.Background(), "Yes please", "u1", "s1", nil)
	require.NoError(t, err)
	assert.False(t, resp.Failed)
	assert.Equal(t, "tech-support-agent", resp.AgentID)
	assert.Equal(t, 2, support.processed)
	assert.Equal(t, 0, billing.processed, "billing agent must stay untouched")
}

func TestSubmitUnknownWithoutFallbackDoesNotInvoke(t *testing.T) {
	billing := &testAgent{id: "billing-agent", name: "Billing", saveChat: true, reply: "x"}
	reg := newTestRegistry(t, billing)

	o, err := New(&scriptedClassifier{}, reg, WithNoAgentMessage("Nobody can take this."))
	require.NoError(t, err)

	resp, err := o.Submit(context.Background(), "untypable gibberish", "u1", "s1", nil)
	require.NoError(t, err)

	assert.False(t, resp.Failed)
	assert.Empty(t, resp.AgentID)
	assert.Equal(t, "Nobody can take this.", resp.Output)
	assert.Equal(t, 0, billing.processed, "no agent may be invoked for an unknown selection")
	assert.Equal(t, 0, historyLen(t, o, "u1", "s1"))
}

func TestSubmitUnknownWithFallbackInvokesFallback(t *testing.T) {
	billing := &testAgent{id: "billing-agent", name: "Billing", saveChat: true, reply: "x"}
	concierge := &testAgent{id: "concierge", name: "Concierge", saveChat: true, reply: "How can I help?"}
	reg := newTestRegistry(t, billing, concierge)

	o, err := New(&scriptedClassifier{}, reg, WithFallbackAgent("concierge"))
	require.NoError(t, err)

	resp, err := o.Submit(context.Background(), "untypable gibberish", "u1", "s1", nil)
	require.NoError(t, err)

	assert.False(t, resp.Failed)
	assert.Equal(t, "concierge", resp.AgentID)
	assert.Equal(t, "How can I help?", resp.Output)
	assert.Equal(t, 1, concierge.processed)
}

func TestSubmitFabricatedAgentWithoutFallbackFails(t *testing.T) {
	billing := &testAgent{id: "billing-agent", name: "Billing", saveChat: true, reply: "x"}
	reg := newTestRegistry(t, billing)

	cls := &scriptedClassifier{results: map[string]*classifier.Result{
		"help": {SelectedAgentID: "made-up-agent", Confidence: 0.95, UserInput: "help"},
	}}

	o, err := New(cls, reg)
	require.NoError(t, err)

	resp, err := o.Submit(context.Background(), "help", "u1", "s1", nil)
	require.NoError(t, err)

	assert.True(t, resp.Failed)
	var unresolved *UnresolvedAgentError
	require.ErrorAs(t, resp.Cause, &unresolved)
	assert.Equal(t, "made-up-agent", unresolved.Selected)
	assert.Equal(t, 0, billing.processed)
	assert.Equal(t, 0, historyLen(t, o, "u1", "s1"))
}

func TestSubmitSchemaErrorDegrades(t *testing.T) {
	billing := &testAgent{id: "billing-agent", name: "Billing", saveChat: true, reply: "x"}
	reg := newTestRegistry(t, billing)

	cls := &scriptedClassifier{err: &classifier.SchemaError{
		Raw: `{"confidence": 0.4}`,
		Err: fmt.Errorf("missing required field selected_agent"),
	}}

	o, err := New(cls, reg)
	require.NoError(t, err)

	resp, err := o.Submit(context.Background(), "hello", "u1", "s1", nil)
	require.NoError(t, err)

	assert.True(t, resp.Failed)
	var schemaErr *classifier.SchemaError
	assert.ErrorAs(t, resp.Cause, &schemaErr)
	assert.Equal(t, 0, billing.processed)
	assert.Equal(t, 0, historyLen(t, o, "u1", "s1"), "a failed turn must not pollute history")
}

func TestSubmitAgentErrorNotRecorded(t *testing.T) {
	broken := &testAgent{id: "billing-agent", name: "Billing", saveChat: true, err: fmt.Errorf("upstream exploded")}
	reg := newTestRegistry(t, broken)

	cls := &scriptedClassifier{results: map[string]*classifier.Result{
		"bill me": {SelectedAgentID: "billing-agent", Confidence: 0.9, UserInput: "bill me"},
	}}

	o, err := New(cls, reg)
	require.NoError(t, err)

	resp, err := o.Submit(context.Background(), "bill me", "u1", "s1", nil)
	require.NoError(t, err)

	assert.True(t, resp.Failed)
	var invErr *AgentInvocationError
	require.ErrorAs(t, resp.Cause, &invErr)
	assert.Equal(t, "billing-agent", invErr.AgentID)
	assert.Equal(t, 0, historyLen(t, o, "u1", "s1"))
}

func TestSubmitSaveChatFalseLeavesHistoryUnchanged(t *testing.T) {
	ephemeral := &testAgent{id: "whisper-agent", name: "Whisper", saveChat: false, reply: "between us"}
	reg := newTestRegistry(t, ephemeral)

	cls := &scriptedClassifier{results: map[string]*classifier.Result{
		"psst": {SelectedAgentID: "whisper-agent", Confidence: 0.9, UserInput: "psst"},
	}}

	o, err := New(cls, reg)
	require.NoError(t, err)

	before := historyLen(t, o, "u1", "s1")
	resp, err := o.Submit(context.Background(), "psst", "u1", "s1", nil)
	require.NoError(t, err)

	assert.Equal(t, "between us", resp.Output)
	assert.Equal(t, before, historyLen(t, o, "u1", "s1"))
}

func TestSubmitConfidenceThreshold(t *testing.T) {
	billing := &testAgent{id: "billing-agent", name: "Billing", saveChat: true, reply: "x"}
	reg := newTestRegistry(t, billing)

	cls := &scriptedClassifier{results: map[string]*classifier.Result{
		"maybe billing": {SelectedAgentID: "billing-agent", Confidence: 0.3, UserInput: "maybe billing"},
	}}

	o, err := New(cls, reg, WithConfidenceThreshold(0.5))
	require.NoError(t, err)

	resp, err := o.Submit(context.Background(), "maybe billing", "u1", "s1", nil)
	require.NoError(t, err)

	assert.False(t, resp.Failed)
	assert.Empty(t, resp.AgentID)
	assert.Equal(t, 0, billing.processed, "below-threshold selections must not be invoked")
}

func TestSubmitStreamingRecordsAfterCompletion(t *testing.T) {
	support := &testStreamingAgent{
		testAgent: testAgent{id: "tech-support-agent", name: "Tech Support", saveChat: true},
		chunks:    []string{"Try ", "turning ", "it ", "off."},
	}
	reg := newTestRegistry(t, support)

	cls := &scriptedClassifier{results: map[string]*classifier.Result{
		"broken": {SelectedAgentID: "tech-support-agent", Confidence: 0.9, UserInput: "broken"},
	}}

	o, err := New(cls, reg)
	require.NoError(t, err)

	resp, err := o.Submit(context.Background(), "broken", "u1", "s1", nil)
	require.NoError(t, err)
	require.True(t, resp.Streaming)
	require.NotNil(t, resp.Stream)

	var forwarded []string
	for chunk := range resp.Stream.Out() {
		forwarded = append(forwarded, chunk)
	}
	assert.Equal(t, support.chunks, forwarded)

	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "Try turning it off.", text)

	// Recording happens after accumulation; give the pump a moment.
	require.Eventually(t, func() bool {
		return historyLen(t, o, "u1", "s1") == 2
	}, time.Second, 5*time.Millisecond)

	history, err := o.History(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, chat.RoleUser, history[0].Role)
	assert.Equal(t, "tech-support-agent", history[1].AgentID)
	assert.Equal(t, "Try turning it off.", history[1].Content)
}

func TestSubmitStreamErrorNotRecorded(t *testing.T) {
	support := &testStreamingAgent{
		testAgent: testAgent{id: "tech-support-agent", name: "Tech Support", saveChat: true},
		chunks:    []string{"partial "},
		streamErr: fmt.Errorf("connection reset"),
	}
	reg := newTestRegistry(t, support)

	cls := &scriptedClassifier{results: map[string]*classifier.Result{
		"broken": {SelectedAgentID: "tech-support-agent", Confidence: 0.9, UserInput: "broken"},
	}}

	o, err := New(cls, reg)
	require.NoError(t, err)

	resp, err := o.Submit(context.Background(), "broken", "u1", "s1", nil)
	require.NoError(t, err)
	require.True(t, resp.Streaming)

	for range resp.Stream.Out() {
	}
	<-resp.Stream.Done()

	assert.False(t, resp.Stream.Completed())
	var streamErr *StreamIntegrityError
	require.ErrorAs(t, resp.Stream.Err(), &streamErr)

	_, err = resp.Stream.Text()
	assert.Error(t, err)

	// The partial accumulation must never reach history.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, historyLen(t, o, "u1", "s1"))
}
