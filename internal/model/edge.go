package model

// Edge is a persisted directed connection between two nodes of a project.
// SourceLabel and TargetLabel are denormalised for display only and are nil
// when the endpoint no longer resolves to a node.
type Edge struct {
	ID           int64   `json:"id"`
	ProjectID    int64   `json:"project_id"`
	SourceNodeID int64   `json:"source_node_id"`
	TargetNodeID int64   `json:"target_node_id"`
	SourceLabel  *string `json:"source_label"`
	TargetLabel  *string `json:"target_label"`
}

// EdgeSpec is an inbound edge description. Each endpoint may be addressed
// by the node's prior identifier, by its label, or both; an edge whose
// endpoints cannot be resolved is dropped.
type EdgeSpec struct {
	SourceNodeID *int64  `json:"source_node_id,omitempty"`
	TargetNodeID *int64  `json:"target_node_id,omitempty"`
	SourceLabel  *string `json:"source_label,omitempty"`
	TargetLabel  *string `json:"target_label,omitempty"`
}
