// Package reconcile maps the node references a client sends with a graph
// save onto the identifiers the store assigned while inserting that graph.
//
// A client addresses an edge endpoint either by the identifier it last saw
// for a node (stable only until the next save) or, for nodes it created
// itself, by label. The Map is built once per save from the incoming node
// specs and the freshly inserted rows, then consulted for every edge.
package reconcile

import "github.com/alfredjeanlab/devsim/internal/model"

// Map resolves provisional node references to canonical identifiers.
// References that match more than one inserted node never resolve.
type Map struct {
	byID    map[int64]int64
	byLabel map[string]int64

	dupIDs    map[int64]struct{}
	dupLabels map[string]struct{}
}

// Build pairs specs[i] with inserted[i]. Inserted nodes must be given in the
// same order as the specs they were created from.
func Build(specs []model.NodeSpec, inserted []*model.Node) *Map {
	m := &Map{
		byID:      make(map[int64]int64, len(inserted)),
		byLabel:   make(map[string]int64, len(inserted)),
		dupIDs:    make(map[int64]struct{}),
		dupLabels: make(map[string]struct{}),
	}

	for i, n := range inserted {
		if i < len(specs) && specs[i].ID != nil {
			old := *specs[i].ID
			if _, seen := m.byID[old]; seen {
				m.dupIDs[old] = struct{}{}
			}
			m.byID[old] = n.ID
		}

		if _, seen := m.byLabel[n.Label]; seen {
			m.dupLabels[n.Label] = struct{}{}
		}
		m.byLabel[n.Label] = n.ID
	}

	for id := range m.dupIDs {
		delete(m.byID, id)
	}
	for label := range m.dupLabels {
		delete(m.byLabel, label)
	}
	return m
}

// Resolve returns the canonical identifier for one endpoint reference,
// trying the prior identifier first and the label second.
func (m *Map) Resolve(id *int64, label *string) (int64, bool) {
	if id != nil {
		if canonical, ok := m.byID[*id]; ok {
			return canonical, true
		}
	}
	if label != nil {
		if canonical, ok := m.byLabel[*label]; ok {
			return canonical, true
		}
	}
	return 0, false
}

// Edge resolves both endpoints of an edge spec. ok is false if either
// endpoint does not resolve, in which case the edge must be dropped.
func (m *Map) Edge(e model.EdgeSpec) (source, target int64, ok bool) {
	source, ok = m.Resolve(e.SourceNodeID, e.SourceLabel)
	if !ok {
		return 0, 0, false
	}
	target, ok = m.Resolve(e.TargetNodeID, e.TargetLabel)
	if !ok {
		return 0, 0, false
	}
	return source, target, true
}

// Ambiguous reports whether a label matched several inserted nodes.
func (m *Map) Ambiguous(label string) bool {
	_, dup := m.dupLabels[label]
	return dup
}
