// Package switchboard routes conversational turns to the best-suited agent
// out of a registered set, using an LLM-backed classifier, and returns the
// selected agent's reply in a normalized envelope.
//
// A deployment is described in YAML: named LLM providers, agents with
// descriptions the classifier routes on, and routing policy (fallback
// agent, confidence threshold, history limits).
//
//	llms:
//	  default:
//	    type: anthropic
//	    api_key: ${ANTHROPIC_API_KEY}
//
//	agents:
//	  billing:
//	    description: Handles billing and invoice questions
//	  tech-support:
//	    description: Handles technical problems and outages
//
//	orchestrator:
//	  fallback_agent: tech-support
//
// Start the server:
//
//	switchboard serve --config switchboard.yaml
//
// Or embed the pieces directly:
//
//	import (
//	    "github.com/switchboard-dev/switchboard/pkg/agent"
//	    "github.com/switchboard-dev/switchboard/pkg/classifier"
//	    "github.com/switchboard-dev/switchboard/pkg/orchestrator"
//	)
//
// The orchestrator walks each turn through classification, agent
// resolution, invocation and normalization, preserving follow-up
// continuity across turns via agent-attributed history.
package switchboard
