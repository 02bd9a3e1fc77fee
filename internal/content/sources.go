package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// fetchArxiv downloads a paper's PDF from arXiv by its arXiv id.
func (r *Resolver) fetchArxiv(ctx context.Context, arxivID string) (string, error) {
	arxivID = strings.TrimPrefix(arxivID, "arXiv:")
	return r.fetchPDF(ctx, r.arxivBaseURL+"/pdf/"+arxivID)
}

// unpaywallResponse is the subset of the Unpaywall API response the
// resolver cares about.
type unpaywallResponse struct {
	BestOALocation *oaLocation  `json:"best_oa_location"`
	OALocations    []oaLocation `json:"oa_locations"`
}

type oaLocation struct {
	URLForPDF string `json:"url_for_pdf"`
}

// fetchUnpaywall looks up open-access locations for a DOI via the
// Unpaywall API and tries each advertised PDF in turn.
func (r *Resolver) fetchUnpaywall(ctx context.Context, doi string) (string, error) {
	u := fmt.Sprintf("%s/v2/%s?email=%s", r.unpaywallBaseURL, url.PathEscape(doi), url.QueryEscape(r.unpaywallEmail))

	var uw unpaywallResponse
	if err := r.getJSON(ctx, u, nil, &uw); err != nil {
		return "", err
	}

	if loc := uw.BestOALocation; loc != nil && loc.URLForPDF != "" {
		if content, err := r.fetchPDF(ctx, loc.URLForPDF); err == nil {
			return content, nil
		}
	}

	for _, loc := range uw.OALocations {
		if loc.URLForPDF == "" {
			continue
		}
		if content, err := r.fetchPDF(ctx, loc.URLForPDF); err == nil {
			return content, nil
		}
	}

	return "", fmt.Errorf("no usable open-access location for DOI %s", doi)
}

// coreSearchResponse is the subset of the CORE search response the
// resolver cares about.
type coreSearchResponse struct {
	Results []coreWork `json:"results"`
}

type coreWork struct {
	FullText    string `json:"fullText"`
	DownloadURL string `json:"downloadUrl"`
}

// fetchCore searches the CORE aggregator by exact title and uses the
// top hit's stored full text, falling back to its download URL.
func (r *Resolver) fetchCore(ctx context.Context, title string) (string, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("title:%q", title))
	query.Set("limit", "1")
	u := r.coreBaseURL + "/v3/search/works?" + query.Encode()

	headers := http.Header{}
	if r.coreAPIKey != "" {
		headers.Set("Authorization", "Bearer "+r.coreAPIKey)
	}

	var cs coreSearchResponse
	if err := r.getJSON(ctx, u, headers, &cs); err != nil {
		return "", err
	}
	if len(cs.Results) == 0 {
		return "", fmt.Errorf("no CORE results for title")
	}

	work := cs.Results[0]
	if strings.TrimSpace(work.FullText) != "" {
		return work.FullText, nil
	}
	if work.DownloadURL != "" {
		return r.fetchPDF(ctx, work.DownloadURL)
	}

	return "", fmt.Errorf("CORE result has no full text or download URL")
}

// getJSON performs a GET with the lookup client and decodes the JSON body.
func (r *Resolver) getJSON(ctx context.Context, u string, headers http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := r.lookupClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
