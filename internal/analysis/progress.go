package analysis

import "math"

const (
	agentWeight     = 80.0
	synthesisWeight = 20
)

// Progress derives the 0-100 completion percentage. An agent that errored
// counts as done: there is nothing left to wait for.
func Progress(agents map[string]AgentStatus, synthesis SynthesisStatus) int {
	completed := 0
	for _, a := range agents {
		if a.Status.Done() {
			completed++
		}
	}

	agentProgress := float64(completed) / float64(TotalAgents) * agentWeight

	var synthesisProgress float64
	switch synthesis {
	case SynthesisComplete:
		synthesisProgress = synthesisWeight
	case SynthesisRunning:
		synthesisProgress = synthesisWeight / 2
	}

	p := int(math.Round(agentProgress + synthesisProgress))
	return min(max(p, 0), 100)
}
