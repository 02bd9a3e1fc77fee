package s2

import (
	"regexp"
	"strings"
)

// arXiv DOIs are registered under the 10.48550 prefix.
const arxivDOIPrefix = "10.48550/arXiv."

// s2ArxivPrefix is the S2 API identifier prefix for arXiv papers.
const s2ArxivPrefix = "arXiv:"

// arxivNumberPattern matches the numeric part of a modern arXiv id
// (YYMM.NNNN or YYMM.NNNNN).
var arxivNumberPattern = regexp.MustCompile(`\d{4}\.\d{4,5}`)

// bareArxivPattern matches an identifier that starts with an arXiv number.
var bareArxivPattern = regexp.MustCompile(`^\d{4}\.\d{4,5}`)

// NormalizePaperID rewrites a paper identifier into the form the S2 API
// expects. arXiv DOIs (10.48550/arXiv.<id>) and bare arXiv numbers are
// rewritten to the arXiv: prefixed form; everything else passes through
// unchanged. Deduplication downstream happens on the resolved paperId,
// so normalization only needs to make lookups succeed, not be canonical.
func NormalizePaperID(id string) string {
	id = strings.TrimSpace(id)

	if rest, ok := strings.CutPrefix(id, arxivDOIPrefix); ok {
		return s2ArxivPrefix + rest
	}

	if strings.HasPrefix(id, s2ArxivPrefix) {
		return id
	}

	if strings.Contains(strings.ToLower(id), "arxiv") || bareArxivPattern.MatchString(id) {
		if num := arxivNumberPattern.FindString(id); num != "" {
			return s2ArxivPrefix + num
		}
	}

	return id
}
