package classifier

import (
	"fmt"
	"strings"

	"github.com/switchboard-dev/switchboard/pkg/chat"
)

// Template slots every classification prompt must carry. A custom prompt
// that drops either slot cannot route, so construction rejects it.
const (
	SlotAgentDescriptions = "{{AGENT_DESCRIPTIONS}}"
	SlotHistory           = "{{HISTORY}}"
)

// defaultPromptTemplate instructs the model to pick exactly one agent and to
// keep follow-up turns with the previously attributed agent. The continuity
// rule lives here, in the prompt, and nowhere else.
const defaultPromptTemplate = `You are a routing classifier for a multi-agent assistant. Your job is to
select the single agent best suited to handle the user's latest message.

Available agents, one per line as identifier:description

{{AGENT_DESCRIPTIONS}}

Conversation so far. Assistant lines are prefixed with the identifier of the
agent that produced them in square brackets:

{{HISTORY}}

Rules:
- Select exactly one agent identifier from the list above.
- If the latest message is a short follow-up, an acknowledgement ("yes",
  "ok", "sure"), a bare number, or otherwise continues the current exchange,
  select the same agent that produced the most recent assistant message.
- Only switch agents when the message clearly starts a new topic that
  another agent handles better.
- If no agent is a confident fit, select "unknown". Never invent an
  identifier that is not in the list.
- Report your confidence as a number between 0 and 1.`

// RenderAgentDescriptions renders candidates as newline-joined
// identifier:description pairs.
func RenderAgentDescriptions(agents []Candidate) string {
	lines := make([]string, 0, len(agents))
	for _, a := range agents {
		lines = append(lines, fmt.Sprintf("%s:%s", a.ID, a.Description))
	}
	return strings.Join(lines, "\n")
}

// renderPrompt substitutes the mandatory slots and any custom variables
// into the template.
func renderPrompt(template string, agents []Candidate, history []chat.Message, variables map[string]string) string {
	historyText := chat.Transcript(history)
	if historyText == "" {
		historyText = "(no prior conversation)"
	}

	prompt := strings.ReplaceAll(template, SlotAgentDescriptions, RenderAgentDescriptions(agents))
	prompt = strings.ReplaceAll(prompt, SlotHistory, historyText)

	for name, value := range variables {
		prompt = strings.ReplaceAll(prompt, "{{"+name+"}}", value)
	}

	return prompt
}

// validateTemplate checks that a replacement template keeps both mandatory
// slots.
func validateTemplate(template string) error {
	if !strings.Contains(template, SlotAgentDescriptions) {
		return fmt.Errorf("classification prompt template is missing the %s slot", SlotAgentDescriptions)
	}
	if !strings.Contains(template, SlotHistory) {
		return fmt.Errorf("classification prompt template is missing the %s slot", SlotHistory)
	}
	return nil
}
