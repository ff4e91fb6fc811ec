package analysis

import "encoding/json"

// EventType discriminates stream events.
type EventType string

const (
	EventPhase             EventType = "phase"
	EventAgent             EventType = "agent"
	EventContext           EventType = "context"
	EventSynthesis         EventType = "synthesis"
	EventComplete          EventType = "complete"
	EventError             EventType = "error"
	EventReadyForSynthesis EventType = "ready_for_synthesis"
)

// Event is one decoded frame of the analysis stream. Which fields are set
// depends on Type.
type Event struct {
	Type EventType `json:"type"`

	// phase
	Phase int    `json:"phase,omitempty"`
	Name  string `json:"name,omitempty"`

	// agent, synthesis
	Agent  string          `json:"agent,omitempty"`
	Status string          `json:"status,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`

	// error
	Message string `json:"message,omitempty"`

	// context
	Topics       []string        `json:"topics,omitempty"`
	Stakeholders []string        `json:"stakeholders,omitempty"`
	Timeline     []TimelineEvent `json:"timeline,omitempty"`

	// complete
	Response json.RawMessage `json:"response,omitempty"`
}

// ErrorText returns the failure message carried by an error event.
func (e Event) ErrorText() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	default:
		return "analysis failed"
	}
}

// Apply returns the state that results from applying ev to s. It never
// mutates s and never fails: unknown event types leave the state unchanged.
func Apply(s State, ev Event) State {
	next := s.clone()

	switch ev.Type {
	case EventPhase:
		next.CurrentPhase = ev.Phase
		next.PhaseName = ev.Name

	case EventAgent:
		if !IsAgent(ev.Agent) {
			return s
		}
		next.Agents[ev.Agent] = AgentStatus{
			Agent:  ev.Agent,
			Phase:  ev.Phase,
			Status: AgentState(ev.Status),
			Result: ev.Result,
			Error:  ev.Error,
		}

	case EventContext:
		next.SharedContext = SharedContext{
			Topics:       orEmpty(ev.Topics),
			Stakeholders: orEmpty(ev.Stakeholders),
			Timeline:     orEmpty(ev.Timeline),
		}

	case EventSynthesis:
		next.SynthesisStatus = SynthesisStatus(ev.Status)

	case EventComplete:
		next.FinalResponse = ev.Response
		if len(next.FinalResponse) == 0 {
			next.FinalResponse = json.RawMessage("null")
		}
		next.IsStreaming = false
		next.SynthesisStatus = SynthesisComplete

	case EventError:
		msg := ev.ErrorText()
		next.Error = &msg
		next.IsStreaming = false

	default:
		// ready_for_synthesis is a marker; anything else is unknown.
		return s
	}

	next.Progress = Progress(next.Agents, next.SynthesisStatus)
	return next
}

func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
