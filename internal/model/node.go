package model

// NodeKind tags the simulation role of a node.
type NodeKind string

const (
	KindGenerator  NodeKind = "generator"
	KindProcessor  NodeKind = "processor"
	KindTransducer NodeKind = "transducer"
)

// String returns the string representation of the node kind.
func (k NodeKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is one of the known tags.
func (k NodeKind) IsValid() bool {
	switch k {
	case KindGenerator, KindProcessor, KindTransducer:
		return true
	}
	return false
}

// Defaults applied to node specs that omit a field. The store and the
// editor synchronizer share these so both layers agree before a save.
const (
	DefaultNodeLabel      = "Untitled Node"
	DefaultProcessingTime = 10.0
	DefaultNodeKind       = KindGenerator
)

// Node is a persisted vertex representing one simulation unit.
type Node struct {
	ID             int64    `json:"id"`
	ProjectID      int64    `json:"project_id"`
	Label          string   `json:"label"`
	ProcessingTime float64  `json:"processing_time"`
	Kind           NodeKind `json:"node_type"`
}

// NodeSpec is an inbound node description. Every field is optional; ID is
// the identifier the client last saw for this node, if any.
type NodeSpec struct {
	ID             *int64   `json:"id,omitempty"`
	Label          *string  `json:"label,omitempty" validate:"omitempty,max=200"`
	ProcessingTime *float64 `json:"processing_time,omitempty" validate:"omitempty,gt=0"`
	Kind           *string  `json:"node_type,omitempty" validate:"omitempty,oneof=generator processor transducer"`
}

// WithDefaults returns a node for the given project with defaults
// substituted for missing fields. The returned node has no ID.
func (s NodeSpec) WithDefaults(projectID int64) *Node {
	n := &Node{
		ProjectID:      projectID,
		Label:          DefaultNodeLabel,
		ProcessingTime: DefaultProcessingTime,
		Kind:           DefaultNodeKind,
	}
	if s.Label != nil && *s.Label != "" {
		n.Label = *s.Label
	}
	if s.ProcessingTime != nil && *s.ProcessingTime > 0 {
		n.ProcessingTime = *s.ProcessingTime
	}
	if s.Kind != nil && *s.Kind != "" {
		n.Kind = NodeKind(*s.Kind)
	}
	return n
}
