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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/switchboard-dev/switchboard/pkg/chat"
	"github.com/switchboard-dev/switchboard/pkg/orchestrator"
)

// chatRequest is the POST /v1/chat body.
type chatRequest struct {
	Input     string      `json:"input"`
	UserID    string      `json:"user_id"`
	SessionID string      `json:"session_id,omitempty"`
	Params    chat.Params `json:"params,omitempty"`
}

// chatResponse is the non-streaming reply envelope.
type chatResponse struct {
	UserInput string      `json:"user_input"`
	AgentID   string      `json:"agent_id,omitempty"`
	AgentName string      `json:"agent_name,omitempty"`
	UserID    string      `json:"user_id"`
	SessionID string      `json:"session_id"`
	Params    chat.Params `json:"params,omitempty"`
	Output    string      `json:"output"`
	Streaming bool        `json:"streaming"`
	Failed    bool        `json:"failed,omitempty"`
	Error     string      `json:"error,omitempty"`
}

type agentInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	agents := s.orchestrator.Agents().List()
	infos := make([]agentInfo, 0, len(agents))
	for _, a := range agents {
		infos = append(infos, agentInfo{
			ID:          a.ID(),
			Name:        a.Name(),
			Description: a.Description(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": infos})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Input == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("input is required"))
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("user_id is required"))
		return
	}
	if req.SessionID == "" {
		req.SessionID = chat.NewSessionID()
	}

	resp, err := s.orchestrator.Submit(r.Context(), req.Input, req.UserID, req.SessionID, req.Params)
	if err != nil {
		s.logger.Error("turn submission failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("internal error"))
		return
	}

	if resp.Streaming {
		s.streamChat(w, r, resp)
		return
	}

	status := http.StatusOK
	if resp.Failed {
		status = statusForFailure(resp.Cause)
	}
	writeJSON(w, status, toEnvelope(resp))
}

// streamChat replays the accumulator's chunks as Server-Sent Events: one
// "chunk" event per forwarded chunk, then a terminal "done" event carrying
// the full envelope, or an "error" event if the stream broke.
func (s *Server) streamChat(w http.ResponseWriter, r *http.Request, resp *orchestrator.Response) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for chunk := range resp.Stream.Out() {
		data, _ := json.Marshal(map[string]string{"text": chunk})
		fmt.Fprintf(w, "event: chunk\ndata: %s\n\n", data)
		flusher.Flush()
	}

	<-resp.Stream.Done()

	if err := resp.Stream.Err(); err != nil {
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
		flusher.Flush()
		return
	}

	envelope := toEnvelope(resp)
	if text, err := resp.Stream.Text(); err == nil {
		envelope.Output = text
	}
	data, _ := json.Marshal(envelope)
	fmt.Fprintf(w, "event: done\ndata: %s\n\n", data)
	flusher.Flush()
}

func toEnvelope(resp *orchestrator.Response) chatResponse {
	out := chatResponse{
		UserInput: resp.UserInput,
		AgentID:   resp.AgentID,
		AgentName: resp.AgentName,
		UserID:    resp.UserID,
		SessionID: resp.SessionID,
		Params:    resp.Params,
		Output:    resp.Output,
		Streaming: resp.Streaming,
		Failed:    resp.Failed,
	}
	if resp.Cause != nil {
		out.Error = resp.Cause.Error()
	}
	return out
}

func statusForFailure(cause error) int {
	var unresolved *orchestrator.UnresolvedAgentError
	if errors.As(cause, &unresolved) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
