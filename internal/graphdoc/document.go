// Package graphdoc defines the parsed node-graph document contract consumed
// by the knowledge pipeline. Documents arrive as UTF-8 JSON already reduced
// to this fixed shape by an external capture step; this package does no
// format parsing of its own.
package graphdoc

import (
	"encoding/json"
	"fmt"
)

// Param is one input or output port of a node: a short label and an
// optional longer full name (e.g. "A" / "First addend").
type Param struct {
	Label    string `json:"label"`
	FullName string `json:"full_name,omitempty"`
}

// Node is one typed element placed in a graph document.
type Node struct {
	// InstanceID is stable within its document only.
	InstanceID string  `json:"instance_id"`
	GUID       string  `json:"guid"`
	Name       string  `json:"name"`
	Nickname   string  `json:"nickname,omitempty"`
	Inputs     []Param `json:"inputs,omitempty"`
	Outputs    []Param `json:"outputs,omitempty"`
}

// Edge is a directed connection from one node's output port to another
// node's input port, both addressed by instance id + short label.
type Edge struct {
	SourceInstance string `json:"source_instance"`
	SourceParam    string `json:"source_param"`
	TargetInstance string `json:"target_instance"`
	TargetParam    string `json:"target_param"`
}

// Document is one parsed graph definition.
type Document struct {
	ID    string `json:"id"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeByInstance returns the node with the given within-document instance
// id, or nil when the document does not contain it (partial captures do
// reference missing instances; callers skip those edges).
func (d *Document) NodeByInstance(id string) *Node {
	for i := range d.Nodes {
		if d.Nodes[i].InstanceID == id {
			return &d.Nodes[i]
		}
	}
	return nil
}

// Decode parses a single document from raw JSON.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("graphdoc: decode: %w", err)
	}
	return &doc, nil
}
