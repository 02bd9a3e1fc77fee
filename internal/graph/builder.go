package graph

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/matsen/depgraph/internal/classify"
	"github.com/matsen/depgraph/internal/s2"
)

const (
	// DefaultMaxDepth is the default recursion limit (root = 0).
	DefaultMaxDepth = 2

	// MaxDependenciesPerLevel caps how many classified dependencies are
	// followed per expanded paper.
	MaxDependenciesPerLevel = 5

	// labelMaxRunes is the display-label truncation length.
	labelMaxRunes = 40

	// maxDisplayAuthors is how many author names a node shows.
	maxDisplayAuthors = 3
)

// Builder drives the recursive dependency-graph expansion. A Builder is
// safe for concurrent Build calls: all per-build state lives in a
// buildState created per invocation.
type Builder struct {
	provider   MetadataProvider
	resolver   ContentResolver
	classifier Classifier
	maxDepth   int
	log        *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithMaxDepth sets the maximum expansion depth (root = 0).
func WithMaxDepth(depth int) BuilderOption {
	return func(b *Builder) {
		b.maxDepth = depth
	}
}

// WithLogger sets the builder's logger.
func WithLogger(log *zap.Logger) BuilderOption {
	return func(b *Builder) {
		b.log = log
	}
}

// NewBuilder creates a Builder over the given collaborators.
func NewBuilder(provider MetadataProvider, resolver ContentResolver, classifier Classifier, opts ...BuilderOption) *Builder {
	b := &Builder{
		provider:   provider,
		resolver:   resolver,
		classifier: classifier,
		maxDepth:   DefaultMaxDepth,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// buildState is the per-invocation expansion state. Node ids are
// assigned from nextID in creation order and never reused.
type buildState struct {
	processed map[string]bool
	idByPaper map[string]int
	nodes     []Node
	edges     []Edge
	nextID    int
}

// Build expands the dependency graph rooted at the given identifier.
// Every collaborator failure prunes its branch silently; the result has
// zero nodes only if the root itself fails to resolve.
func (b *Builder) Build(ctx context.Context, rootRef string) *Data {
	st := &buildState{
		processed: make(map[string]bool),
		idByPaper: make(map[string]int),
		nodes:     []Node{},
		edges:     []Edge{},
	}

	b.expand(ctx, st, rootRef, 0, -1, nil)

	return &Data{Nodes: st.nodes, Edges: st.edges}
}

// expand processes one paper: resolves metadata, emits a node (and an
// edge from its parent), classifies its references, and recurses into
// the resulting dependencies. The verdict argument carries the
// justification for the parent→this edge; attaching it here, after the
// node id is actually assigned, is what guarantees edge attribution can
// never point at a wrong id.
func (b *Builder) expand(ctx context.Context, st *buildState, ref string, depth, parent int, verdict *classify.Verdict) {
	resolved := s2.NormalizePaperID(ref)
	if st.processed[resolved] || depth > b.maxDepth {
		return
	}
	st.processed[resolved] = true

	paper, err := b.provider.GetPaper(ctx, ref)
	if err != nil {
		b.log.Debug("paper lookup failed, pruning branch", zap.String("ref", ref), zap.Error(err))
		return
	}

	// Dedup on the provider-native id as well: the same paper may be
	// reachable under several identifier formats.
	if paper.PaperID != resolved {
		if st.processed[paper.PaperID] {
			return
		}
		st.processed[paper.PaperID] = true
	}

	id := st.nextID
	st.nextID++
	st.idByPaper[paper.PaperID] = id

	text, source := b.resolver.Resolve(ctx, paper)

	b.log.Info("processing paper",
		zap.String("paper", paper.PaperID),
		zap.String("title", paper.Title),
		zap.Int("level", depth),
		zap.Bool("full_text", text != ""),
		zap.String("source", string(source)),
	)

	st.nodes = append(st.nodes, Node{
		ID:            id,
		Label:         shortLabel(paper.Title),
		Title:         paper.Title,
		Year:          paper.Year,
		Authors:       displayAuthors(paper.Authors),
		Level:         depth,
		HasFullText:   text != "",
		ContentSource: string(source),
	})

	if parent >= 0 {
		edge := Edge{From: parent, To: id}
		if verdict != nil {
			edge.Title = verdict.Reason
			edge.Label = elementsLabel(verdict.Elements)
		}
		st.edges = append(st.edges, edge)
	}

	if depth >= b.maxDepth {
		return
	}

	refs, err := b.provider.GetReferences(ctx, paper.PaperID)
	if err != nil {
		b.log.Debug("reference fetch failed, truncating branch", zap.String("paper", paper.PaperID), zap.Error(err))
		return
	}
	if len(refs) == 0 {
		return
	}

	verdicts := b.classifier.Classify(ctx, paper, text, refs)
	if len(verdicts) > MaxDependenciesPerLevel {
		verdicts = verdicts[:MaxDependenciesPerLevel]
	}

	for i := range verdicts {
		v := verdicts[i]
		b.expand(ctx, st, v.PaperID, depth+1, id, &v)
	}
}

// shortLabel truncates a title for display.
func shortLabel(title string) string {
	runes := []rune(title)
	if len(runes) <= labelMaxRunes {
		return title
	}
	return string(runes[:labelMaxRunes]) + "..."
}

// displayAuthors formats up to maxDisplayAuthors names, appending
// "et al." when the list is longer.
func displayAuthors(authors []s2.Author) string {
	names := make([]string, 0, maxDisplayAuthors)
	for i, a := range authors {
		if i >= maxDisplayAuthors {
			break
		}
		name := a.Name
		if name == "" {
			name = "Unknown"
		}
		names = append(names, name)
	}
	joined := strings.Join(names, ", ")
	if len(authors) > maxDisplayAuthors {
		joined += " et al."
	}
	return joined
}

// elementsLabel joins the first two cited elements for the edge label.
func elementsLabel(elements []string) string {
	if len(elements) > 2 {
		elements = elements[:2]
	}
	return strings.Join(elements, ", ")
}
