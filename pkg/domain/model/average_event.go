package model

import "sort"

// AverageRiskEvent folds many realized event trees of the same root into
// running totals and per-branch occurrence counts.
type AverageRiskEvent struct {
	Key       EventKey
	Count     int
	DirectSum Impacts
	TotalSum  Impacts
	Children  map[string]*AverageRiskEvent
}

// NewAverageRiskEvent returns an empty node for key
func NewAverageRiskEvent(key EventKey) *AverageRiskEvent {
	return &AverageRiskEvent{
		Key:      key,
		Children: make(map[string]*AverageRiskEvent),
	}
}

// Fold adds one realized event (and its subtree) to the running totals
func (a *AverageRiskEvent) Fold(e *RiskEvent) {
	a.Count++
	a.DirectSum = a.DirectSum.Add(e.DirectImpact)
	a.TotalSum = a.TotalSum.Add(e.TotalImpact)

	for _, child := range e.TriggeredEvents {
		key := child.Key()
		node, ok := a.Children[key.String()]
		if !ok {
			node = NewAverageRiskEvent(key)
			a.Children[key.String()] = node
		}
		node.Fold(child)
	}
}

// Merge adds the totals of o into a
func (a *AverageRiskEvent) Merge(o *AverageRiskEvent) {
	if o == nil {
		return
	}
	a.Count += o.Count
	a.DirectSum = a.DirectSum.Add(o.DirectSum)
	a.TotalSum = a.TotalSum.Add(o.TotalSum)

	for k, oc := range o.Children {
		node, ok := a.Children[k]
		if !ok {
			node = NewAverageRiskEvent(oc.Key)
			a.Children[k] = node
		}
		node.Merge(oc)
	}
}

// MeanDirect returns the mean direct impact per occurrence
func (a *AverageRiskEvent) MeanDirect() Impacts {
	return a.DirectSum.Divide(float64(a.Count))
}

// MeanTotal returns the mean total impact per occurrence
func (a *AverageRiskEvent) MeanTotal() Impacts {
	return a.TotalSum.Divide(float64(a.Count))
}

// OccurrenceRate returns how often child fired given that a fired
func (a *AverageRiskEvent) OccurrenceRate(childKey string) float64 {
	child, ok := a.Children[childKey]
	if !ok || a.Count == 0 {
		return 0
	}
	return float64(child.Count) / float64(a.Count)
}

// AverageEventSummary is the serializable form of an AverageRiskEvent
type AverageEventSummary struct {
	Key            EventKey              `json:"key" firestore:"key"`
	Count          int                   `json:"count" firestore:"count"`
	OccurrenceRate float64               `json:"occurrence_rate" firestore:"occurrence_rate"`
	MeanDirect     Impacts               `json:"mean_direct" firestore:"mean_direct"`
	MeanTotal      Impacts               `json:"mean_total" firestore:"mean_total"`
	Children       []AverageEventSummary `json:"children,omitempty" firestore:"children,omitempty"`
}

// Summary converts the tree to its serializable form down to maxDepth
// levels below a (0 keeps only the root). Children are sorted by count.
func (a *AverageRiskEvent) Summary(maxDepth int) AverageEventSummary {
	return a.summary(a.Count, maxDepth)
}

func (a *AverageRiskEvent) summary(parentCount, maxDepth int) AverageEventSummary {
	s := AverageEventSummary{
		Key:        a.Key,
		Count:      a.Count,
		MeanDirect: a.MeanDirect(),
		MeanTotal:  a.MeanTotal(),
	}
	if parentCount > 0 {
		s.OccurrenceRate = float64(a.Count) / float64(parentCount)
	}
	if maxDepth <= 0 {
		return s
	}

	keys := make([]string, 0, len(a.Children))
	for k := range a.Children {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := a.Children[keys[i]], a.Children[keys[j]]
		if ci.Count != cj.Count {
			return ci.Count > cj.Count
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		s.Children = append(s.Children, a.Children[k].summary(a.Count, maxDepth-1))
	}
	return s
}
