// Package analysis consumes the deep-analysis event stream produced by the
// external analysis service and folds it into a StreamingAnalysis state.
package analysis

import (
	"encoding/json"
	"maps"
)

// Agent names. The set is fixed; every State carries all five.
const (
	AgentHistorical   = "historical"
	AgentStakeholder  = "stakeholder"
	AgentTimeline     = "timeline"
	AgentImpact       = "impact"
	AgentFactVerifier = "fact_verifier"
)

// AgentNames lists the analysis agents in display order.
var AgentNames = []string{ //nolint:gochecknoglobals // fixed agent roster
	AgentHistorical,
	AgentStakeholder,
	AgentTimeline,
	AgentImpact,
	AgentFactVerifier,
}

// TotalAgents is the size of the agent roster.
const TotalAgents = 5

// defaultPhase maps each agent to its display phase: 1 = discovery, 2 = analysis.
var defaultPhase = map[string]int{ //nolint:gochecknoglobals // fixed agent roster
	AgentHistorical:   1,
	AgentStakeholder:  1,
	AgentTimeline:     1,
	AgentImpact:       2,
	AgentFactVerifier: 2,
}

// IsAgent reports whether name is one of the fixed analysis agents.
func IsAgent(name string) bool {
	_, ok := defaultPhase[name]
	return ok
}

// AgentState is the lifecycle status reported for one agent.
type AgentState string

const (
	AgentWaiting  AgentState = "waiting"
	AgentRunning  AgentState = "running"
	AgentComplete AgentState = "complete"
	AgentError    AgentState = "error"
)

// Done reports whether the agent has stopped working, successfully or not.
func (s AgentState) Done() bool {
	return s == AgentComplete || s == AgentError
}

// SynthesisStatus tracks the final synthesis step that runs after the agents.
type SynthesisStatus string

const (
	SynthesisWaiting  SynthesisStatus = "waiting"
	SynthesisRunning  SynthesisStatus = "running"
	SynthesisComplete SynthesisStatus = "complete"
)

// AgentStatus is the last reported status of one agent.
type AgentStatus struct {
	Agent  string          `json:"agent"`
	Phase  int             `json:"phase"`
	Status AgentState      `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// TimelineEvent is one dated entry in the shared timeline.
type TimelineEvent struct {
	Event        string `json:"event"`
	Date         string `json:"date"`
	Significance string `json:"significance,omitempty"`
}

// SharedContext holds cross-agent findings. Each context event replaces it.
type SharedContext struct {
	Topics       []string        `json:"topics"`
	Stakeholders []string        `json:"stakeholders"`
	Timeline     []TimelineEvent `json:"timeline"`
}

// State is an immutable snapshot of a streaming analysis. Transitions build a
// new State; the Agents map of a published snapshot is never written again.
type State struct {
	IsStreaming     bool                   `json:"isStreaming"`
	CurrentPhase    int                    `json:"currentPhase"`
	PhaseName       string                 `json:"phaseName"`
	Agents          map[string]AgentStatus `json:"agents"`
	SharedContext   SharedContext          `json:"sharedContext"`
	SynthesisStatus SynthesisStatus        `json:"synthesisStatus"`
	FinalResponse   json.RawMessage        `json:"finalResponse"`
	Error           *string                `json:"error"`
	Progress        int                    `json:"progress"`
}

// InitialState returns the idle state: every agent waiting, nothing streamed.
func InitialState() State {
	agents := make(map[string]AgentStatus, TotalAgents)
	for _, name := range AgentNames {
		agents[name] = AgentStatus{
			Agent:  name,
			Phase:  defaultPhase[name],
			Status: AgentWaiting,
		}
	}

	return State{
		Agents: agents,
		SharedContext: SharedContext{
			Topics:       []string{},
			Stakeholders: []string{},
			Timeline:     []TimelineEvent{},
		},
		SynthesisStatus: SynthesisWaiting,
		FinalResponse:   json.RawMessage("null"),
	}
}

// clone returns a copy whose Agents map can be written without affecting s.
func (s State) clone() State {
	s.Agents = maps.Clone(s.Agents)
	return s
}

// ErrorMessage returns the reported error, or "" when there is none.
func (s State) ErrorMessage() string {
	if s.Error == nil {
		return ""
	}
	return *s.Error
}

// HasResult reports whether a final report has been received.
func (s State) HasResult() bool {
	return len(s.FinalResponse) > 0 && string(s.FinalResponse) != "null"
}
