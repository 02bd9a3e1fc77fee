// Package graph builds a citation-dependency graph for a paper by
// depth-bounded recursive expansion over its classified dependencies.
package graph

import (
	"context"

	"github.com/matsen/depgraph/internal/classify"
	"github.com/matsen/depgraph/internal/content"
	"github.com/matsen/depgraph/internal/s2"
)

// Node represents one paper in the dependency graph.
type Node struct {
	ID            int    `json:"id"`
	Label         string `json:"label"`
	Title         string `json:"title"`
	Year          int    `json:"year,omitempty"`
	Authors       string `json:"authors"`
	Level         int    `json:"level"`
	HasFullText   bool   `json:"has_full_text"`
	ContentSource string `json:"content_source"`
}

// Edge is a directed dependency relation between two nodes. Title
// carries the classifier's justification and Label names the first
// cited elements, when a verdict backed the relation.
type Edge struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Title string `json:"title,omitempty"`
	Label string `json:"label,omitempty"`
}

// Data is the complete graph produced by one build.
type Data struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// IsEmpty returns true if the graph has no nodes.
func (d *Data) IsEmpty() bool {
	return len(d.Nodes) == 0
}

// MetadataProvider resolves paper identifiers to metadata and
// reference lists.
type MetadataProvider interface {
	GetPaper(ctx context.Context, paperID string) (*s2.Paper, error)
	GetReferences(ctx context.Context, paperID string) ([]s2.Reference, error)
}

// ContentResolver obtains analyzable full text for a paper.
type ContentResolver interface {
	Resolve(ctx context.Context, paper *s2.Paper) (string, content.Source)
}

// Classifier decides which references are true dependencies.
type Classifier interface {
	Classify(ctx context.Context, paper *s2.Paper, content string, refs []s2.Reference) []classify.Verdict
}
