package viz

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/matsen/depgraph/internal/graph"
)

func sampleGraph() *graph.Data {
	return &graph.Data{
		Nodes: []graph.Node{
			{ID: 0, Label: "Spectral Gaps...", Title: "Spectral Gaps in Random Graphs", Year: 2021, Authors: "A. Author, B. Author", Level: 0, HasFullText: true, ContentSource: "arxiv"},
			{ID: 1, Label: "Expander Mixing...", Title: "The Expander Mixing Lemma Revisited", Year: 2015, Authors: "C. Author", Level: 1, HasFullText: false, ContentSource: "not_found"},
		},
		Edges: []graph.Edge{
			{From: 0, To: 1, Title: "Uses the mixing lemma in the main proof", Label: "Lemma 2.1"},
		},
	}
}

func TestToCytoscapeJSON(t *testing.T) {
	out, err := ToCytoscapeJSON(sampleGraph())
	if err != nil {
		t.Fatalf("ToCytoscapeJSON() error = %v", err)
	}

	var elements CytoscapeElements
	if err := json.Unmarshal([]byte(out), &elements); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if len(elements.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(elements.Nodes))
	}
	root := elements.Nodes[0].Data
	if root.ID != "0" {
		t.Errorf("root ID = %q, want \"0\"", root.ID)
	}
	if root.Level != 0 || !root.HasFullText {
		t.Errorf("root level/hasFullText = %d/%v, want 0/true", root.Level, root.HasFullText)
	}

	if len(elements.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(elements.Edges))
	}
	e := elements.Edges[0].Data
	if e.Source != "0" || e.Target != "1" {
		t.Errorf("edge endpoints = %s->%s, want 0->1", e.Source, e.Target)
	}
	if e.Reason != "Uses the mixing lemma in the main proof" {
		t.Errorf("edge reason = %q", e.Reason)
	}
	if e.Elements != "Lemma 2.1" {
		t.Errorf("edge elements = %q", e.Elements)
	}
	if e.ID == "" {
		t.Error("edge ID should not be empty")
	}
}

func TestGenerateHTML(t *testing.T) {
	html, err := GenerateHTML(sampleGraph(), DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}

	for _, want := range []string{
		"<!DOCTYPE html>",
		"cytoscape",
		"Spectral Gaps in Random Graphs",
		`"cose"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestGenerateHTMLLayouts(t *testing.T) {
	tests := []struct {
		layout  string
		want    string
		wantErr bool
	}{
		{layout: "", want: `"cose"`},
		{layout: "force", want: `"cose"`},
		{layout: "circle", want: `"circle"`},
		{layout: "grid", want: `"grid"`},
		{layout: "spiral", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("layout_"+tt.layout, func(t *testing.T) {
			html, err := GenerateHTML(sampleGraph(), HTMLOptions{Layout: tt.layout})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for invalid layout")
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateHTML() error = %v", err)
			}
			if !strings.Contains(html, tt.want) {
				t.Errorf("HTML missing layout %q", tt.want)
			}
		})
	}
}

func TestGenerateHTMLEmptyGraph(t *testing.T) {
	html, err := GenerateHTML(&graph.Data{Nodes: []graph.Node{}, Edges: []graph.Edge{}}, DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}
	if !strings.Contains(html, "No graph data") {
		t.Error("empty graph should render the empty state")
	}

	if _, err := GenerateHTML(nil, DefaultOptions()); err == nil {
		t.Error("nil graph should be an error")
	}
}
