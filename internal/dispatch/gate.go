package dispatch

import (
	"github.com/haasonsaas/concierge/internal/apps"
	"github.com/haasonsaas/concierge/pkg/models"
)

// GatePair declares that Dependent's actions must wait until Prerequisite has
// finished its reads and any in-flight confirmed write. The gate only engages
// when the prerequisite app is actually involved in the turn.
type GatePair struct {
	Prerequisite string `yaml:"prerequisite"`
	Dependent    string `yaml:"dependent"`
}

// DefaultGatePairs holds Slack notifications behind Linear so a "create a
// ticket and tell the team" request announces a ticket that exists.
func DefaultGatePairs() []GatePair {
	return []GatePair{
		{Prerequisite: apps.AppLinear, Dependent: apps.AppSlack},
	}
}

type gate struct {
	pairs []GatePair
}

// deferred reports whether appID's actions should be skipped this pass. A
// deferred call is dropped, not queued; the model re-proposes it once the
// prerequisite's result round-trips.
func (g gate) deferred(appID string, st *turnState) bool {
	for _, pair := range g.pairs {
		if pair.Dependent != appID {
			continue
		}
		pre := pair.Prerequisite
		_, readTracked := st.readStatus[pre]
		if !readTracked && !st.writeExecuting[pre] {
			continue
		}
		status := st.readStatus[pre]
		if status != models.StatusDone && status != models.StatusError {
			return true
		}
		if st.writeExecuting[pre] {
			return true
		}
	}
	return false
}
