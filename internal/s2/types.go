// Package s2 provides a rate-limited client for the Semantic Scholar
// Academic Graph API.
package s2

// Paper represents a paper record from the Semantic Scholar API.
type Paper struct {
	PaperID       string         `json:"paperId"`
	ExternalIDs   ExternalIDs    `json:"externalIds,omitempty"`
	Title         string         `json:"title"`
	Abstract      string         `json:"abstract,omitempty"`
	Year          int            `json:"year,omitempty"`
	Authors       []Author       `json:"authors,omitempty"`
	Venue         string         `json:"venue,omitempty"`
	Citations     int            `json:"citationCount,omitempty"`
	References    int            `json:"referenceCount,omitempty"`
	OpenAccessPDF *OpenAccessPDF `json:"openAccessPdf,omitempty"`
}

// ExternalIDs contains various external identifiers for a paper.
type ExternalIDs struct {
	DOI           string `json:"DOI,omitempty"`
	ArXiv         string `json:"ArXiv,omitempty"`
	PubMed        string `json:"PubMed,omitempty"`
	PubMedCentral string `json:"PubMedCentral,omitempty"`
	CorpusID      int    `json:"CorpusId,omitempty"`
}

// Author represents an author from the Semantic Scholar API.
type Author struct {
	AuthorID string `json:"authorId,omitempty"`
	Name     string `json:"name"`
}

// OpenAccessPDF is the open-access PDF location reported for a paper.
type OpenAccessPDF struct {
	URL    string `json:"url"`
	Status string `json:"status,omitempty"`
}

// Reference is one entry in a paper's reference list. Contexts are the
// prose snippets around the citation; Intents are the citation-intent
// tags assigned by S2 (e.g. "methodology", "result", "background").
type Reference struct {
	CitedPaper *Paper   `json:"citedPaper,omitempty"`
	Contexts   []string `json:"contexts,omitempty"`
	Intents    []string `json:"intents,omitempty"`
}

// referencesResponse is the paged response from the references endpoint.
type referencesResponse struct {
	Offset int         `json:"offset"`
	Next   int         `json:"next,omitempty"`
	Data   []Reference `json:"data"`
}
