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

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchboard-dev/switchboard/pkg/agent"
	"github.com/switchboard-dev/switchboard/pkg/chat"
	"github.com/switchboard-dev/switchboard/pkg/classifier"
	"github.com/switchboard-dev/switchboard/pkg/config"
	"github.com/switchboard-dev/switchboard/pkg/llms"
	"github.com/switchboard-dev/switchboard/pkg/orchestrator"
)

type fixedClassifier struct {
	agentID string
}

func (f *fixedClassifier) Classify(ctx context.Context, userInput string, history []chat.Message, agents []classifier.Candidate) (*classifier.Result, error) {
	return &classifier.Result{SelectedAgentID: f.agentID, Confidence: 0.9, UserInput: userInput}, nil
}

type echoAgent struct {
	id     string
	name   string
	stream bool
}

func (a *echoAgent) ID() string          { return a.id }
func (a *echoAgent) Name() string        { return a.name }
func (a *echoAgent) Description() string { return "echoes the input" }
func (a *echoAgent) SaveChat() bool      { return true }
func (a *echoAgent) Streaming() bool     { return a.stream }

func (a *echoAgent) Process(ctx context.Context, req *agent.Request) (string, error) {
	return "echo: " + req.Input, nil
}

func (a *echoAgent) ProcessStreaming(ctx context.Context, req *agent.Request) (<-chan llms.StreamChunk, error) {
	ch := make(chan llms.StreamChunk, 3)
	ch <- llms.StreamChunk{Type: llms.ChunkTypeText, Text: "echo: "}
	ch <- llms.StreamChunk{Type: llms.ChunkTypeText, Text: req.Input}
	ch <- llms.StreamChunk{Type: llms.ChunkTypeDone}
	close(ch)
	return ch, nil
}

func newTestServer(t *testing.T, stream bool) *Server {
	t.Helper()

	reg := agent.NewRegistry()
	require.NoError(t, reg.Add(&echoAgent{id: "echo-agent", name: "Echo Agent", stream: stream}))

	orch, err := orchestrator.New(&fixedClassifier{agentID: "echo-agent"}, reg)
	require.NoError(t, err)

	cfg := config.ServerConfig{}
	cfg.SetDefaults()

	s, err := New(cfg, orch)
	require.NoError(t, err)
	return s
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, false)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestAgentsEndpoint(t *testing.T) {
	s := newTestServer(t, false)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/agents", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Agents []agentInfo `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Agents, 1)
	assert.Equal(t, "echo-agent", body.Agents[0].ID)
	assert.Equal(t, "Echo Agent", body.Agents[0].Name)
}

func TestChatEndpoint(t *testing.T) {
	s := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat",
		strings.NewReader(`{"input": "hello", "user_id": "u1", "session_id": "s1"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "echo-agent", resp.AgentID)
	assert.Equal(t, "echo: hello", resp.Output)
	assert.False(t, resp.Streaming)
	assert.Equal(t, "s1", resp.SessionID)
}

func TestChatEndpointAssignsSessionID(t *testing.T) {
	s := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat",
		strings.NewReader(`{"input": "hello", "user_id": "u1"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
}

func TestChatEndpointValidation(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		name string
		body string
	}{
		{"missing input", `{"user_id": "u1"}`},
		{"missing user_id", `{"input": "hello"}`},
		{"not JSON", `input=hello`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestChatEndpointStreamsSSE(t *testing.T) {
	s := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat",
		strings.NewReader(`{"input": "hello", "user_id": "u1", "session_id": "s1"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: chunk")
	assert.Contains(t, body, `{"text":"echo: "}`)
	assert.Contains(t, body, `{"text":"hello"}`)
	assert.Contains(t, body, "event: done")
	assert.Contains(t, body, `"output":"echo: hello"`)
}
