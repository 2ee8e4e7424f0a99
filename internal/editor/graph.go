// Package editor holds the client-side representation of a model graph and
// converts it to and from the persisted form.
package editor

import (
	"strconv"
	"strings"

	"github.com/alfredjeanlab/devsim/internal/idgen"
	"github.com/alfredjeanlab/devsim/internal/model"
	"github.com/alfredjeanlab/devsim/internal/sim"
)

// persistedPrefix marks editor ids that carry a store identifier.
const persistedPrefix = "db-"

// Grid layout used when positions are not persisted.
const (
	gridOriginX = 50
	gridOriginY = 100
	gridStepX   = 250
	gridStepY   = 150
	gridColumns = 4
)

// EdgeKindAnimated is the edge type the front end renders as a job in flight.
const EdgeKindAnimated = "custom"

// Position is a canvas coordinate. Never persisted.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Data is the editable payload of an editor node.
type Data struct {
	Label          string         `json:"label"`
	ProcessingTime float64        `json:"processingTime,omitempty"`
	Kind           model.NodeKind `json:"nodeType,omitempty"`
	Jobs           []sim.Job      `json:"jobs,omitempty"`
}

// Node is one vertex on the editor canvas.
type Node struct {
	ID       string         `json:"id"`
	Kind     model.NodeKind `json:"type"`
	Position Position       `json:"position"`
	Data     Data           `json:"data"`
}

type EdgeStyle struct {
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// Edge connects two editor nodes by editor id.
type Edge struct {
	ID     string     `json:"id"`
	Source string     `json:"source"`
	Target string     `json:"target"`
	Kind   string     `json:"type,omitempty"`
	Style  *EdgeStyle `json:"style,omitempty"`
}

// Graph is the full editor state for one project.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

var defaultEdgeStyle = EdgeStyle{Stroke: "#555", StrokeWidth: 2}

// PersistedID returns the editor id for a stored node.
func PersistedID(id int64) string {
	return persistedPrefix + strconv.FormatInt(id, 10)
}

// StoreID extracts the store identifier from a persisted editor id.
func StoreID(editorID string) (int64, bool) {
	rest, ok := strings.CutPrefix(editorID, persistedPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// NewNode returns an unsaved node with a fresh editor id.
func NewNode(label string, kind model.NodeKind, processingTime float64, pos Position) (*Node, error) {
	id, err := idgen.NodeID()
	if err != nil {
		return nil, err
	}
	return &Node{
		ID:       id,
		Kind:     kind,
		Position: pos,
		Data:     Data{Label: label, ProcessingTime: processingTime, Kind: kind},
	}, nil
}

// Connect returns an edge from source to target.
func Connect(source, target string) *Edge {
	style := defaultEdgeStyle
	return &Edge{ID: source + "-" + target, Source: source, Target: target, Style: &style}
}

func gridPosition(i int) Position {
	return Position{
		X: float64(gridOriginX + (i%gridColumns)*gridStepX),
		Y: float64(gridOriginY + (i/gridColumns)*gridStepY),
	}
}

// Fallback is the example graph shown when a project cannot be loaded.
func Fallback() *Graph {
	gen1 := &Node{ID: "gen1", Kind: model.KindGenerator, Position: gridPosition(0),
		Data: Data{Label: "Generator 1", ProcessingTime: model.DefaultProcessingTime, Kind: model.KindGenerator}}
	gen2 := &Node{ID: "gen2", Kind: model.KindGenerator, Position: gridPosition(1),
		Data: Data{Label: "Generator 2", ProcessingTime: model.DefaultProcessingTime, Kind: model.KindGenerator}}
	return &Graph{
		Nodes: []*Node{gen1, gen2},
		Edges: []*Edge{Connect(gen1.ID, gen2.ID)},
	}
}

func fromModelNode(n *model.Node, pos Position) *Node {
	return &Node{
		ID:       PersistedID(n.ID),
		Kind:     n.Kind,
		Position: pos,
		Data:     Data{Label: n.Label, ProcessingTime: n.ProcessingTime, Kind: n.Kind},
	}
}

// FromStore builds editor state from a persisted graph. Positions come from
// each node's ordinal, job queues start empty, and edges whose endpoints are
// not among the loaded nodes are skipped.
func FromStore(pg *model.ProjectGraph) *Graph {
	g := &Graph{
		Nodes: make([]*Node, 0, len(pg.Nodes)),
		Edges: make([]*Edge, 0, len(pg.Edges)),
	}
	loaded := make(map[int64]bool, len(pg.Nodes))
	for i, n := range pg.Nodes {
		g.Nodes = append(g.Nodes, fromModelNode(n, gridPosition(i)))
		loaded[n.ID] = true
	}
	g.Edges = edgesFromStore(pg.Edges, loaded)
	return g
}

func edgesFromStore(edges []*model.Edge, loaded map[int64]bool) []*Edge {
	out := make([]*Edge, 0, len(edges))
	for _, e := range edges {
		if !loaded[e.SourceNodeID] || !loaded[e.TargetNodeID] {
			continue
		}
		edge := Connect(PersistedID(e.SourceNodeID), PersistedID(e.TargetNodeID))
		edge.ID = "e" + strconv.FormatInt(e.ID, 10)
		out = append(out, edge)
	}
	return out
}

// ToWire converts editor state to save payloads. Only persisted nodes carry
// an id; every edge endpoint is addressed by id where possible and always by
// label. Edges referencing a node not in the graph are omitted.
func ToWire(g *Graph) ([]model.NodeSpec, []model.EdgeSpec) {
	nodes := make([]model.NodeSpec, 0, len(g.Nodes))
	labels := make(map[string]string, len(g.Nodes))

	for _, n := range g.Nodes {
		resolved := wireNode(n).WithDefaults(0)
		label := resolved.Label
		pt := resolved.ProcessingTime
		kind := string(resolved.Kind)

		spec := model.NodeSpec{Label: &label, ProcessingTime: &pt, Kind: &kind}
		if id, ok := StoreID(n.ID); ok {
			spec.ID = &id
		}
		nodes = append(nodes, spec)
		labels[n.ID] = label
	}

	edges := make([]model.EdgeSpec, 0, len(g.Edges))
	for _, e := range g.Edges {
		srcLabel, srcOK := labels[e.Source]
		tgtLabel, tgtOK := labels[e.Target]
		if !srcOK || !tgtOK {
			continue
		}
		spec := model.EdgeSpec{SourceLabel: &srcLabel, TargetLabel: &tgtLabel}
		if id, ok := StoreID(e.Source); ok {
			spec.SourceNodeID = &id
		}
		if id, ok := StoreID(e.Target); ok {
			spec.TargetNodeID = &id
		}
		edges = append(edges, spec)
	}
	return nodes, edges
}

func wireNode(n *Node) model.NodeSpec {
	var spec model.NodeSpec
	label := n.Data.Label
	spec.Label = &label
	pt := n.Data.ProcessingTime
	spec.ProcessingTime = &pt
	kind := string(n.Data.Kind)
	if kind == "" {
		kind = string(n.Kind)
	}
	spec.Kind = &kind
	return spec
}

// Node returns the node with the given editor id, or nil.
func (g *Graph) Node(id string) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
