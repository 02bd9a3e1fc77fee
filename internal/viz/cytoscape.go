// Package viz renders dependency graphs as interactive HTML.
package viz

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/matsen/depgraph/internal/graph"
)

// CytoscapeElements represents the Cytoscape.js data format.
type CytoscapeElements struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// CytoscapeNode represents a node in Cytoscape.js format.
type CytoscapeNode struct {
	Data CytoscapeNodeData `json:"data"`
}

// CytoscapeNodeData contains the node data fields.
type CytoscapeNodeData struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	Title         string `json:"title,omitempty"`
	Authors       string `json:"authors,omitempty"`
	Year          int    `json:"year,omitempty"`
	Level         int    `json:"level"`
	HasFullText   bool   `json:"hasFullText"`
	ContentSource string `json:"contentSource,omitempty"`
}

// CytoscapeEdge represents an edge in Cytoscape.js format.
type CytoscapeEdge struct {
	Data CytoscapeEdgeData `json:"data"`
}

// CytoscapeEdgeData contains the edge data fields.
type CytoscapeEdgeData struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Reason   string `json:"reason,omitempty"`
	Elements string `json:"elements,omitempty"`
}

// ToCytoscapeJSON converts a dependency graph to Cytoscape.js JSON format.
func ToCytoscapeJSON(g *graph.Data) (string, error) {
	elements := CytoscapeElements{
		Nodes: make([]CytoscapeNode, 0, len(g.Nodes)),
		Edges: make([]CytoscapeEdge, 0, len(g.Edges)),
	}

	for _, n := range g.Nodes {
		elements.Nodes = append(elements.Nodes, CytoscapeNode{
			Data: CytoscapeNodeData{
				ID:            strconv.Itoa(n.ID),
				Label:         n.Label,
				Title:         n.Title,
				Authors:       n.Authors,
				Year:          n.Year,
				Level:         n.Level,
				HasFullText:   n.HasFullText,
				ContentSource: n.ContentSource,
			},
		})
	}

	for i, e := range g.Edges {
		elements.Edges = append(elements.Edges, CytoscapeEdge{
			Data: CytoscapeEdgeData{
				ID:       edgeID(e.From, e.To, i),
				Source:   strconv.Itoa(e.From),
				Target:   strconv.Itoa(e.To),
				Reason:   e.Title,
				Elements: e.Label,
			},
		})
	}

	jsonBytes, err := json.Marshal(elements)
	if err != nil {
		return "", fmt.Errorf("marshaling Cytoscape elements to JSON: %w", err)
	}
	return string(jsonBytes), nil
}

// edgeID generates a unique edge ID for the current visualization session.
// IDs are based on slice position and are not stable across different graph builds.
func edgeID(from, to, index int) string {
	return fmt.Sprintf("%d-%d-%d", from, to, index)
}
