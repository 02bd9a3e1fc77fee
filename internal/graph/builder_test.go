package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/matsen/depgraph/internal/classify"
	"github.com/matsen/depgraph/internal/content"
	"github.com/matsen/depgraph/internal/s2"
)

// mockProvider serves papers keyed by normalized identifier and
// reference lists keyed by provider-native paper id.
type mockProvider struct {
	papers   map[string]*s2.Paper
	refs     map[string][]s2.Reference
	refsErr  error
	refCalls []string
}

func (m *mockProvider) GetPaper(ctx context.Context, paperID string) (*s2.Paper, error) {
	p, ok := m.papers[s2.NormalizePaperID(paperID)]
	if !ok {
		return nil, s2.ErrNotFound
	}
	return p, nil
}

func (m *mockProvider) GetReferences(ctx context.Context, paperID string) ([]s2.Reference, error) {
	m.refCalls = append(m.refCalls, paperID)
	if m.refsErr != nil {
		return nil, m.refsErr
	}
	return m.refs[paperID], nil
}

// stubResolver returns canned text per paper id.
type stubResolver struct {
	texts map[string]string
}

func (r *stubResolver) Resolve(ctx context.Context, paper *s2.Paper) (string, content.Source) {
	if text, ok := r.texts[paper.PaperID]; ok {
		return text, content.SourceCache
	}
	return "", content.SourceNotFound
}

// stubClassifier returns canned verdicts per paper id.
type stubClassifier struct {
	verdicts map[string][]classify.Verdict
	calls    []string
}

func (c *stubClassifier) Classify(ctx context.Context, paper *s2.Paper, content string, refs []s2.Reference) []classify.Verdict {
	c.calls = append(c.calls, paper.PaperID)
	return c.verdicts[paper.PaperID]
}

func paper(id, title string, year int) *s2.Paper {
	return &s2.Paper{
		PaperID: id,
		Title:   title,
		Year:    year,
		Authors: []s2.Author{{Name: "Ada Lovelace"}},
	}
}

func refTo(p *s2.Paper) s2.Reference {
	return s2.Reference{CitedPaper: p, Intents: []string{"methodology"}}
}

// checkInvariants verifies node id uniqueness/monotonicity and that no
// edge endpoint dangles.
func checkInvariants(t *testing.T, d *Data) {
	t.Helper()

	ids := make(map[int]bool)
	for i, n := range d.Nodes {
		if n.ID != i {
			t.Errorf("node %d has id %d, want ids in creation order", i, n.ID)
		}
		if ids[n.ID] {
			t.Errorf("duplicate node id %d", n.ID)
		}
		ids[n.ID] = true
	}
	for _, e := range d.Edges {
		if !ids[e.From] || !ids[e.To] {
			t.Errorf("edge %d->%d references missing node", e.From, e.To)
		}
	}
}

func TestBuild_RootWithOneDependency(t *testing.T) {
	root := paper("root-id", "Root Paper", 2021)
	dep := paper("dep-id", "Dependency Paper", 2019)
	other := paper("other-id", "Incidental Paper", 2018)

	provider := &mockProvider{
		papers: map[string]*s2.Paper{
			"arXiv:2101.00001": root,
			"dep-id":           dep,
			"other-id":         other,
		},
		refs: map[string][]s2.Reference{
			"root-id": {refTo(dep), refTo(other)},
		},
	}
	classifier := &stubClassifier{verdicts: map[string][]classify.Verdict{
		"root-id": {{PaperID: "dep-id", Reason: "Uses Lemma 3", Elements: []string{"Lemma 3", "Theorem 1", "Definition 2"}}},
	}}

	b := NewBuilder(provider, &stubResolver{}, classifier)
	d := b.Build(context.Background(), "arXiv:2101.00001")

	if len(d.Nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2", len(d.Nodes))
	}
	if len(d.Edges) != 1 {
		t.Fatalf("len(edges) = %d, want 1", len(d.Edges))
	}

	edge := d.Edges[0]
	if edge.From != 0 || edge.To != 1 {
		t.Errorf("edge = %d->%d, want 0->1", edge.From, edge.To)
	}
	if edge.Title != "Uses Lemma 3" {
		t.Errorf("edge.Title = %q, want justification", edge.Title)
	}
	if edge.Label != "Lemma 3, Theorem 1" {
		t.Errorf("edge.Label = %q, want first two elements", edge.Label)
	}

	if d.Nodes[0].Level != 0 || d.Nodes[1].Level != 1 {
		t.Errorf("levels = %d, %d, want 0, 1", d.Nodes[0].Level, d.Nodes[1].Level)
	}

	checkInvariants(t, d)
}

func TestBuild_UnresolvableRootYieldsEmptyGraph(t *testing.T) {
	b := NewBuilder(&mockProvider{papers: map[string]*s2.Paper{}}, &stubResolver{}, &stubClassifier{})

	d := b.Build(context.Background(), "10.1000/does-not-exist")

	if !d.IsEmpty() {
		t.Errorf("graph not empty: %+v", d)
	}
	if d.Nodes == nil || d.Edges == nil {
		t.Error("nodes/edges should be empty slices, not nil")
	}
}

func TestBuild_MaxDepthZero(t *testing.T) {
	root := paper("root-id", "Root Paper", 2021)
	provider := &mockProvider{
		papers: map[string]*s2.Paper{"root-id": root},
		refs:   map[string][]s2.Reference{"root-id": {refTo(paper("dep-id", "Dep", 2019))}},
	}
	classifier := &stubClassifier{}

	b := NewBuilder(provider, &stubResolver{}, classifier, WithMaxDepth(0))
	d := b.Build(context.Background(), "root-id")

	if len(d.Nodes) != 1 || len(d.Edges) != 0 {
		t.Fatalf("graph = %d nodes %d edges, want 1 node 0 edges", len(d.Nodes), len(d.Edges))
	}
	if len(provider.refCalls) != 0 {
		t.Errorf("GetReferences called %d times at max depth, want 0", len(provider.refCalls))
	}
	if len(classifier.calls) != 0 {
		t.Errorf("classifier called %d times at max depth, want 0", len(classifier.calls))
	}
}

func TestBuild_DepthStrictlyBounded(t *testing.T) {
	// Chain root -> a -> b -> c; with maxDepth 2 node c must not appear.
	chain := []*s2.Paper{
		paper("root-id", "Root", 2021),
		paper("a-id", "A", 2020),
		paper("b-id", "B", 2019),
		paper("c-id", "C", 2018),
	}
	papers := make(map[string]*s2.Paper)
	refs := make(map[string][]s2.Reference)
	verdicts := make(map[string][]classify.Verdict)
	for i, p := range chain {
		papers[p.PaperID] = p
		if i+1 < len(chain) {
			next := chain[i+1]
			refs[p.PaperID] = []s2.Reference{refTo(next)}
			verdicts[p.PaperID] = []classify.Verdict{{PaperID: next.PaperID, Reason: "used"}}
		}
	}

	b := NewBuilder(&mockProvider{papers: papers, refs: refs}, &stubResolver{}, &stubClassifier{verdicts: verdicts})
	d := b.Build(context.Background(), "root-id")

	if len(d.Nodes) != 3 {
		t.Fatalf("len(nodes) = %d, want 3", len(d.Nodes))
	}
	for _, n := range d.Nodes {
		if n.Level > 2 {
			t.Errorf("node %q at level %d exceeds max depth", n.Title, n.Level)
		}
	}
	checkInvariants(t, d)
}

func TestBuild_SharedDependencyExpandedOnce(t *testing.T) {
	root := paper("root-id", "Root", 2021)
	a := paper("a-id", "A", 2020)
	bb := paper("b-id", "B", 2020)
	shared := paper("shared-id", "Shared", 2010)

	provider := &mockProvider{
		papers: map[string]*s2.Paper{
			"root-id": root, "a-id": a, "b-id": bb, "shared-id": shared,
		},
		refs: map[string][]s2.Reference{
			"root-id": {refTo(a), refTo(bb)},
			"a-id":    {refTo(shared)},
			"b-id":    {refTo(shared)},
		},
	}
	classifier := &stubClassifier{verdicts: map[string][]classify.Verdict{
		"root-id": {{PaperID: "a-id"}, {PaperID: "b-id"}},
		"a-id":    {{PaperID: "shared-id"}},
		"b-id":    {{PaperID: "shared-id"}},
	}}

	b := NewBuilder(provider, &stubResolver{}, classifier)
	d := b.Build(context.Background(), "root-id")

	// DFS order: root, a, shared, b. The second encounter of shared is
	// a no-op with no node and no edge.
	if len(d.Nodes) != 4 {
		t.Fatalf("len(nodes) = %d, want 4", len(d.Nodes))
	}
	if len(d.Edges) != 3 {
		t.Fatalf("len(edges) = %d, want 3", len(d.Edges))
	}

	sharedCount := 0
	for _, n := range d.Nodes {
		if n.Title == "Shared" {
			sharedCount++
		}
	}
	if sharedCount != 1 {
		t.Errorf("shared paper appears %d times, want 1", sharedCount)
	}
	checkInvariants(t, d)
}

func TestBuild_JustificationAttachesToCorrectEdge(t *testing.T) {
	// The first verdict targets the root itself (already processed, so
	// a no-op); the second must still land its justification on the
	// edge to the node that actually gets created.
	root := paper("root-id", "Root", 2021)
	dep := paper("dep-id", "Dep", 2019)

	provider := &mockProvider{
		papers: map[string]*s2.Paper{"root-id": root, "dep-id": dep},
		refs: map[string][]s2.Reference{
			"root-id": {refTo(root), refTo(dep)},
		},
	}
	classifier := &stubClassifier{verdicts: map[string][]classify.Verdict{
		"root-id": {
			{PaperID: "root-id", Reason: "self citation"},
			{PaperID: "dep-id", Reason: "Applies Theorem 7", Elements: []string{"Theorem 7"}},
		},
	}}

	b := NewBuilder(provider, &stubResolver{}, classifier)
	d := b.Build(context.Background(), "root-id")

	if len(d.Edges) != 1 {
		t.Fatalf("len(edges) = %d, want 1", len(d.Edges))
	}
	if d.Edges[0].Title != "Applies Theorem 7" {
		t.Errorf("edge.Title = %q, want %q", d.Edges[0].Title, "Applies Theorem 7")
	}
	if d.Edges[0].Label != "Theorem 7" {
		t.Errorf("edge.Label = %q, want %q", d.Edges[0].Label, "Theorem 7")
	}
	checkInvariants(t, d)
}

func TestBuild_DedupAcrossIdentifierFormats(t *testing.T) {
	// The root is addressed by its arXiv DOI but resolves to the same
	// provider-native id a later verdict uses.
	root := paper("root-id", "Root", 2021)
	dep := paper("dep-id", "Dep", 2019)

	provider := &mockProvider{
		papers: map[string]*s2.Paper{
			"arXiv:2101.00001": root,
			"root-id":          root,
			"dep-id":           dep,
		},
		refs: map[string][]s2.Reference{
			"root-id": {refTo(dep)},
			"dep-id":  {refTo(root)},
		},
	}
	classifier := &stubClassifier{verdicts: map[string][]classify.Verdict{
		"root-id": {{PaperID: "dep-id"}},
		"dep-id":  {{PaperID: "root-id"}}, // cycle back to the root
	}}

	b := NewBuilder(provider, &stubResolver{}, classifier)
	d := b.Build(context.Background(), "10.48550/arXiv.2101.00001")

	if len(d.Nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2 (root expanded once)", len(d.Nodes))
	}
	if len(d.Edges) != 1 {
		t.Fatalf("len(edges) = %d, want 1", len(d.Edges))
	}
	checkInvariants(t, d)
}

func TestBuild_ReferenceFailureTruncatesBranchOnly(t *testing.T) {
	root := paper("root-id", "Root", 2021)

	provider := &mockProvider{
		papers:  map[string]*s2.Paper{"root-id": root},
		refsErr: errors.New("upstream unavailable"),
	}

	b := NewBuilder(provider, &stubResolver{}, &stubClassifier{})
	d := b.Build(context.Background(), "root-id")

	if len(d.Nodes) != 1 {
		t.Fatalf("len(nodes) = %d, want 1 (root node survives)", len(d.Nodes))
	}
}

func TestBuild_CapsDependenciesPerLevel(t *testing.T) {
	root := paper("root-id", "Root", 2021)
	papers := map[string]*s2.Paper{"root-id": root}
	var refs []s2.Reference
	var verdicts []classify.Verdict
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("dep%d", i)
		p := paper(id, "Dep "+id, 2000+i)
		papers[id] = p
		refs = append(refs, refTo(p))
		verdicts = append(verdicts, classify.Verdict{PaperID: id})
	}

	provider := &mockProvider{
		papers: papers,
		refs:   map[string][]s2.Reference{"root-id": refs},
	}
	classifier := &stubClassifier{verdicts: map[string][]classify.Verdict{"root-id": verdicts}}

	b := NewBuilder(provider, &stubResolver{}, classifier)
	d := b.Build(context.Background(), "root-id")

	if len(d.Nodes) != 1+MaxDependenciesPerLevel {
		t.Fatalf("len(nodes) = %d, want %d", len(d.Nodes), 1+MaxDependenciesPerLevel)
	}
	checkInvariants(t, d)
}

func TestBuild_NodeRecordsContentAvailability(t *testing.T) {
	root := paper("root-id", "Root", 2021)

	provider := &mockProvider{papers: map[string]*s2.Paper{"root-id": root}}
	resolver := &stubResolver{texts: map[string]string{"root-id": "full text"}}

	b := NewBuilder(provider, resolver, &stubClassifier{})
	d := b.Build(context.Background(), "root-id")

	if len(d.Nodes) != 1 {
		t.Fatalf("len(nodes) = %d, want 1", len(d.Nodes))
	}
	n := d.Nodes[0]
	if !n.HasFullText {
		t.Error("HasFullText = false, want true")
	}
	if n.ContentSource != string(content.SourceCache) {
		t.Errorf("ContentSource = %s, want %s", n.ContentSource, content.SourceCache)
	}
}

func TestShortLabel(t *testing.T) {
	long := "A Very Long Title That Goes On And On Well Past Forty Characters"
	got := shortLabel(long)
	if len([]rune(got)) != labelMaxRunes+3 {
		t.Errorf("len(label) = %d, want %d", len([]rune(got)), labelMaxRunes+3)
	}

	short := "Brief"
	if shortLabel(short) != short {
		t.Errorf("shortLabel(%q) = %q, want unchanged", short, shortLabel(short))
	}
}

func TestDisplayAuthors(t *testing.T) {
	authors := []s2.Author{
		{Name: "A One"}, {Name: "B Two"}, {Name: "C Three"}, {Name: "D Four"},
	}
	got := displayAuthors(authors)
	want := "A One, B Two, C Three et al."
	if got != want {
		t.Errorf("displayAuthors = %q, want %q", got, want)
	}
}
