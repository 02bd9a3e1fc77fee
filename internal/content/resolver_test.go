package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matsen/depgraph/internal/s2"
)

// memStore is an in-memory Store for resolver tests.
type memStore struct {
	m       map[string]string
	putErr  error
	putKeys []string
}

func newMemStore() *memStore {
	return &memStore{m: make(map[string]string)}
}

func (s *memStore) Get(paperID string) (string, bool) {
	v, ok := s.m[paperID]
	return v, ok
}

func (s *memStore) Put(paperID, content string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.m[paperID] = content
	s.putKeys = append(s.putKeys, paperID)
	return nil
}

func TestResolve_CacheHit(t *testing.T) {
	store := newMemStore()
	store.m["abc123"] = "cached text"

	// No base URLs pointing anywhere real: a network attempt would fail
	// loudly, proving the cache short-circuits.
	r := NewResolver(store,
		WithArxivBaseURL("http://127.0.0.1:0"),
		WithUnpaywallBaseURL("http://127.0.0.1:0"),
		WithCoreBaseURL("http://127.0.0.1:0"),
	)

	content, source := r.Resolve(context.Background(), &s2.Paper{PaperID: "abc123", Title: "T"})
	if source != SourceCache {
		t.Fatalf("source = %s, want %s", source, SourceCache)
	}
	if content != "cached text" {
		t.Errorf("content = %q, want %q", content, "cached text")
	}
}

func TestResolve_DOIOnlySkipsInapplicableSources(t *testing.T) {
	arxivHits := 0
	arxivSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arxivHits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer arxivSrv.Close()

	unpaywallHits := 0
	unpaywallSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unpaywallHits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer unpaywallSrv.Close()

	coreSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"fullText": "core full text"}]}`))
	}))
	defer coreSrv.Close()

	store := newMemStore()
	r := NewResolver(store,
		WithArxivBaseURL(arxivSrv.URL),
		WithUnpaywallBaseURL(unpaywallSrv.URL),
		WithCoreBaseURL(coreSrv.URL),
	)

	paper := &s2.Paper{
		PaperID:     "doi-only",
		Title:       "Some Theorem",
		ExternalIDs: s2.ExternalIDs{DOI: "10.1000/xyz"},
	}

	content, source := r.Resolve(context.Background(), paper)
	if source != SourceCore {
		t.Fatalf("source = %s, want %s", source, SourceCore)
	}
	if content != "core full text" {
		t.Errorf("content = %q, want %q", content, "core full text")
	}
	if arxivHits != 0 {
		t.Errorf("arxiv hit %d times for metadata without an arXiv id", arxivHits)
	}
	if unpaywallHits != 1 {
		t.Errorf("unpaywall hits = %d, want 1", unpaywallHits)
	}
}

func TestResolve_WritesThroughToCache(t *testing.T) {
	coreSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"fullText": "from core"}]}`))
	}))
	defer coreSrv.Close()

	store := newMemStore()
	r := NewResolver(store, WithCoreBaseURL(coreSrv.URL))

	paper := &s2.Paper{PaperID: "p1", Title: "A Title"}
	_, source := r.Resolve(context.Background(), paper)
	if source != SourceCore {
		t.Fatalf("source = %s, want %s", source, SourceCore)
	}

	cached, ok := store.Get("p1")
	if !ok || cached != "from core" {
		t.Errorf("cache after resolve = (%q, %v), want (%q, true)", cached, ok, "from core")
	}
}

func TestResolve_BadPDFDegradesToNextSource(t *testing.T) {
	// Open-access URL serves something that is not a PDF; extraction
	// fails and the resolver should fall through to CORE.
	badPDFSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a pdf at all"))
	}))
	defer badPDFSrv.Close()

	coreSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"fullText": "rescued by core"}]}`))
	}))
	defer coreSrv.Close()

	store := newMemStore()
	r := NewResolver(store, WithCoreBaseURL(coreSrv.URL))

	paper := &s2.Paper{
		PaperID:       "p2",
		Title:         "A Title",
		OpenAccessPDF: &s2.OpenAccessPDF{URL: badPDFSrv.URL + "/paper.pdf"},
	}

	content, source := r.Resolve(context.Background(), paper)
	if source != SourceCore {
		t.Fatalf("source = %s, want %s", source, SourceCore)
	}
	if content != "rescued by core" {
		t.Errorf("content = %q, want %q", content, "rescued by core")
	}
}

func TestResolve_AllSourcesFail(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer notFound.Close()

	store := newMemStore()
	r := NewResolver(store,
		WithArxivBaseURL(notFound.URL),
		WithUnpaywallBaseURL(notFound.URL),
		WithCoreBaseURL(notFound.URL),
	)

	paper := &s2.Paper{
		PaperID:     "p3",
		Title:       "A Title",
		ExternalIDs: s2.ExternalIDs{DOI: "10.1000/abc", ArXiv: "2101.00001"},
	}

	content, source := r.Resolve(context.Background(), paper)
	if source != SourceNotFound {
		t.Fatalf("source = %s, want %s", source, SourceNotFound)
	}
	if content != "" {
		t.Errorf("content = %q, want empty", content)
	}
	if len(store.putKeys) != 0 {
		t.Errorf("cache writes = %v, want none", store.putKeys)
	}
}

func TestResolve_PutFailureIsNonFatal(t *testing.T) {
	coreSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"fullText": "still returned"}]}`))
	}))
	defer coreSrv.Close()

	store := newMemStore()
	store.putErr = context.DeadlineExceeded // any error will do

	r := NewResolver(store, WithCoreBaseURL(coreSrv.URL))

	content, source := r.Resolve(context.Background(), &s2.Paper{PaperID: "p4", Title: "T"})
	if source != SourceCore {
		t.Fatalf("source = %s, want %s", source, SourceCore)
	}
	if content != "still returned" {
		t.Errorf("content = %q, want %q", content, "still returned")
	}
}

func TestResolve_UnpaywallLocationFallback(t *testing.T) {
	// best_oa_location has no PDF URL; the second oa_location does, but
	// serves garbage, so the resolver reports unpaywall failure and
	// degrades. With no CORE server configured the result is not_found.
	badPDFSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("garbage"))
	}))
	defer badPDFSrv.Close()

	unpaywallSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"best_oa_location": {"url_for_pdf": ""},
			"oa_locations": [{"url_for_pdf": "` + badPDFSrv.URL + `/a.pdf"}]
		}`))
	}))
	defer unpaywallSrv.Close()

	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer notFound.Close()

	store := newMemStore()
	r := NewResolver(store,
		WithUnpaywallBaseURL(unpaywallSrv.URL),
		WithCoreBaseURL(notFound.URL),
	)

	paper := &s2.Paper{
		PaperID:     "p5",
		Title:       "T",
		ExternalIDs: s2.ExternalIDs{DOI: "10.1000/abc"},
	}

	_, source := r.Resolve(context.Background(), paper)
	if source != SourceNotFound {
		t.Fatalf("source = %s, want %s", source, SourceNotFound)
	}
}
