// Package policy provides the agent capability interface and the scripted
// policies used for smoke-testing the environment. Learned policies (PPO
// and friends) live outside the core and plug in through the same
// interface.
package policy

import (
	"github.com/talgya/gridworld/internal/agents"
	"github.com/talgya/gridworld/internal/env"
)

// Policy selects one action code per step for one agent. NotifyReward
// relays the step reward back after each Step call; scripted policies
// mostly ignore it, learning policies buffer it.
type Policy interface {
	SelectAction(obs *env.Observation, self *agents.Agent) int
	NotifyReward(v float64)
}
