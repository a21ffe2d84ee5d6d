package model

import (
	"fmt"
	"strings"

	"github.com/secmon-lab/riskcascade/pkg/domain/types"
)

// DirectContributionKey is the contribution key of an event's own direct impact
const DirectContributionKey = "direct"

// EventKey identifies a (risk, scenario) pair
type EventKey struct {
	RiskID   types.RiskID   `json:"risk_id" firestore:"risk_id"`
	Scenario types.Scenario `json:"scenario" firestore:"scenario"`
}

// String returns "{riskID}__{scenario}", the contribution key format
func (k EventKey) String() string {
	return ContributionKey(k.RiskID, k.Scenario)
}

// ContributionKey returns the contribution key of an effect scenario
func ContributionKey(effect types.RiskID, s types.Scenario) string {
	return fmt.Sprintf("%s__%s", effect, s)
}

// ParseEventKey parses a key produced by EventKey.String
func ParseEventKey(key string) (EventKey, bool) {
	i := strings.LastIndex(key, "__")
	if i <= 0 {
		return EventKey{}, false
	}
	s := types.Scenario(key[i+2:])
	if !s.IsValid() {
		return EventKey{}, false
	}
	return EventKey{RiskID: types.RiskID(key[:i]), Scenario: s}, true
}

// RiskEvent is one realized occurrence of a risk scenario during a
// simulation run. Each event owns its TriggeredEvents; CausedBy is a
// read-only back reference used only to walk the causal chain.
type RiskEvent struct {
	Risk            *Risk
	Scenario        types.Scenario
	CausedBy        *RiskEvent
	TriggeredEvents []*RiskEvent

	DirectImpact Impacts
	TotalImpact  Impacts
	// Contributions maps DirectContributionKey and "{effectID}__{scenario}"
	// of each triggered child to the impact attributable to that source
	Contributions map[string]Impacts
}

// Key returns the (risk, scenario) pair of the event
func (e *RiskEvent) Key() EventKey {
	return EventKey{RiskID: e.Risk.ID, Scenario: e.Scenario}
}

// HasInChain reports whether riskID occurs in e or any event upstream of e
func (e *RiskEvent) HasInChain(riskID types.RiskID) bool {
	for cur := e; cur != nil; cur = cur.CausedBy {
		if cur.Risk.ID == riskID {
			return true
		}
	}
	return false
}

// Chain returns the causal chain from the root event down to e
func (e *RiskEvent) Chain() []EventKey {
	var chain []EventKey
	for cur := e; cur != nil; cur = cur.CausedBy {
		chain = append(chain, cur.Key())
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// ChainString formats Chain as "a__major -> b__extreme"
func (e *RiskEvent) ChainString() string {
	chain := e.Chain()
	parts := make([]string, len(chain))
	for i, k := range chain {
		parts[i] = k.String()
	}
	return strings.Join(parts, " -> ")
}

// Root returns the event that started the causal chain
func (e *RiskEvent) Root() *RiskEvent {
	cur := e
	for cur.CausedBy != nil {
		cur = cur.CausedBy
	}
	return cur
}

// Walk visits e and all its descendants depth first
func (e *RiskEvent) Walk(fn func(ev *RiskEvent)) {
	fn(e)
	for _, child := range e.TriggeredEvents {
		child.Walk(fn)
	}
}
