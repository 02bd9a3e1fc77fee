package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/depgraph/internal/pdf"
	"github.com/matsen/depgraph/internal/s2"
)

// Source identifies where resolved content came from.
type Source string

// Content sources, in the order the resolver tries them.
const (
	SourceCache      Source = "cache"
	SourceOpenAccess Source = "semantic_scholar_pdf"
	SourceArxiv      Source = "arxiv"
	SourceUnpaywall  Source = "unpaywall"
	SourceCore       Source = "core"
	SourceNotFound   Source = "not_found"
)

const (
	// pdfTimeout bounds PDF downloads, which can be tens of megabytes.
	pdfTimeout = 30 * time.Second

	// lookupTimeout bounds the JSON lookup APIs (Unpaywall, CORE).
	lookupTimeout = 10 * time.Second

	// maxPDFBytes caps how much of a PDF response is read.
	maxPDFBytes = 50 << 20
)

// Default endpoints for the network sources.
const (
	DefaultArxivBaseURL     = "https://arxiv.org"
	DefaultUnpaywallBaseURL = "https://api.unpaywall.org"
	DefaultCoreBaseURL      = "https://api.core.ac.uk"
)

// Resolver obtains full-text content for a paper, consulting the cache
// first and then an ordered list of network sources. Source failures
// are swallowed: the resolver always degrades to the next source and
// reports not_found only when every source has been exhausted.
type Resolver struct {
	store Store

	pdfClient    *http.Client
	lookupClient *http.Client

	arxivBaseURL     string
	unpaywallBaseURL string
	coreBaseURL      string

	unpaywallEmail string
	coreAPIKey     string

	log *zap.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithUnpaywallEmail sets the contact email sent to the Unpaywall API.
func WithUnpaywallEmail(email string) ResolverOption {
	return func(r *Resolver) {
		r.unpaywallEmail = email
	}
}

// WithCoreAPIKey sets the CORE API key.
func WithCoreAPIKey(key string) ResolverOption {
	return func(r *Resolver) {
		r.coreAPIKey = key
	}
}

// WithArxivBaseURL sets a custom arXiv base URL (for testing).
func WithArxivBaseURL(url string) ResolverOption {
	return func(r *Resolver) {
		r.arxivBaseURL = url
	}
}

// WithUnpaywallBaseURL sets a custom Unpaywall base URL (for testing).
func WithUnpaywallBaseURL(url string) ResolverOption {
	return func(r *Resolver) {
		r.unpaywallBaseURL = url
	}
}

// WithCoreBaseURL sets a custom CORE base URL (for testing).
func WithCoreBaseURL(url string) ResolverOption {
	return func(r *Resolver) {
		r.coreBaseURL = url
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(log *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = log
	}
}

// NewResolver creates a Resolver backed by the given content store.
func NewResolver(store Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:            store,
		pdfClient:        &http.Client{Timeout: pdfTimeout},
		lookupClient:     &http.Client{Timeout: lookupTimeout},
		arxivBaseURL:     DefaultArxivBaseURL,
		unpaywallBaseURL: DefaultUnpaywallBaseURL,
		coreBaseURL:      DefaultCoreBaseURL,
		unpaywallEmail:   "research@example.com",
		log:              zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the full text for a paper and the source that
// supplied it. An empty result with SourceNotFound means every source
// failed; that is a degraded outcome, not an error.
func (r *Resolver) Resolve(ctx context.Context, paper *s2.Paper) (string, Source) {
	if content, ok := r.store.Get(paper.PaperID); ok {
		return content, SourceCache
	}

	if paper.OpenAccessPDF != nil && paper.OpenAccessPDF.URL != "" {
		if content, err := r.fetchPDF(ctx, paper.OpenAccessPDF.URL); err == nil {
			r.cache(paper.PaperID, content)
			return content, SourceOpenAccess
		} else {
			r.log.Debug("open access pdf failed", zap.String("paper", paper.PaperID), zap.Error(err))
		}
	}

	if arxivID := paper.ExternalIDs.ArXiv; arxivID != "" {
		if content, err := r.fetchArxiv(ctx, arxivID); err == nil {
			r.cache(paper.PaperID, content)
			return content, SourceArxiv
		} else {
			r.log.Debug("arxiv fetch failed", zap.String("paper", paper.PaperID), zap.Error(err))
		}
	}

	if doi := paper.ExternalIDs.DOI; doi != "" {
		if content, err := r.fetchUnpaywall(ctx, doi); err == nil {
			r.cache(paper.PaperID, content)
			return content, SourceUnpaywall
		} else {
			r.log.Debug("unpaywall fetch failed", zap.String("paper", paper.PaperID), zap.Error(err))
		}
	}

	if paper.Title != "" {
		if content, err := r.fetchCore(ctx, paper.Title); err == nil {
			r.cache(paper.PaperID, content)
			return content, SourceCore
		} else {
			r.log.Debug("core fetch failed", zap.String("paper", paper.PaperID), zap.Error(err))
		}
	}

	return "", SourceNotFound
}

// cache writes through to the store. Persist failures are logged and
// ignored; the cache is an optimization, not a correctness requirement.
func (r *Resolver) cache(paperID, content string) {
	if err := r.store.Put(paperID, content); err != nil {
		r.log.Warn("caching content failed", zap.String("paper", paperID), zap.Error(err))
	}
}

// fetchPDF downloads a PDF and extracts its text. An empty extraction
// counts as a failure so the resolver moves on to the next source.
func (r *Resolver) fetchPDF(ctx context.Context, pdfURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := r.pdfClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching pdf: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching pdf: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}

	text, err := pdf.ExtractTextBytes(data)
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("pdf contained no extractable text")
	}

	return text, nil
}
