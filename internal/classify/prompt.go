package classify

import (
	"fmt"
	"strings"

	"github.com/matsen/depgraph/internal/s2"
)

const (
	// MaxContentLength caps the analysis text sent to the oracle, in
	// characters, to respect its input-size limit.
	MaxContentLength = 800000

	// truncationMarker is appended when the analysis text is cut off.
	truncationMarker = "\n\n[Content truncated due to length...]"

	// maxContextsPerRef limits citation-context snippets shown per reference.
	maxContextsPerRef = 3
)

// analysisText returns the text the oracle should analyze: the full
// paper content when available, otherwise title plus abstract, bounded
// by MaxContentLength.
func analysisText(paper *s2.Paper, content string) string {
	text := content
	if text == "" {
		text = fmt.Sprintf("Title: %s\n\nAbstract: %s", paper.Title, paper.Abstract)
	}
	if len(text) > MaxContentLength {
		text = text[:MaxContentLength] + truncationMarker
	}
	return text
}

// shortAuthors formats up to two author names, appending "et al." when
// the list is longer.
func shortAuthors(authors []s2.Author) string {
	names := make([]string, 0, 2)
	for i, a := range authors {
		if i >= 2 {
			break
		}
		name := a.Name
		if name == "" {
			name = "Unknown"
		}
		names = append(names, name)
	}
	joined := strings.Join(names, ", ")
	if len(authors) > 2 {
		joined += " et al."
	}
	return joined
}

// referenceList renders the numbered reference list for the prompt and
// returns the map from reference number back to cited paper id.
func referenceList(refs []s2.Reference) (string, map[int]string) {
	var b strings.Builder
	byNumber := make(map[int]string)

	n := 0
	for _, ref := range refs {
		cited := ref.CitedPaper
		if cited == nil {
			continue
		}
		n++
		byNumber[n] = cited.PaperID

		title := cited.Title
		if title == "" {
			title = "Unknown"
		}
		year := "N/A"
		if cited.Year != 0 {
			year = fmt.Sprintf("%d", cited.Year)
		}
		fmt.Fprintf(&b, "%d. [%s] %s (%s, %s)\n", n, cited.PaperID, title, shortAuthors(cited.Authors), year)

		contextText := "No context available"
		if len(ref.Contexts) > 0 {
			contexts := ref.Contexts
			if len(contexts) > maxContextsPerRef {
				contexts = contexts[:maxContextsPerRef]
			}
			contextText = strings.Join(contexts, " | ")
		}
		fmt.Fprintf(&b, "   Citation contexts: %s\n", contextText)
	}

	return b.String(), byNumber
}

// buildPrompt constructs the dependency-analysis prompt. The task
// definition and output schema mirror what the oracle is trained to
// follow: explicit JSON structure and a conservative bias.
func buildPrompt(paper *s2.Paper, content string, refs []s2.Reference) (string, map[int]string) {
	refList, byNumber := referenceList(refs)

	prompt := fmt.Sprintf(`You are analyzing a mathematics paper to identify its true dependencies. A true dependency is a reference whose mathematical results (theorems, lemmas, or definitions) are directly used in proving or establishing the results of the analyzed paper.

PAPER CONTENT:
%s

REFERENCES:
%s
TASK:
Analyze each reference and determine if it's a true dependency. For each reference, provide:
1. Whether it's a dependency (true/false)
2. A specific reason explaining your decision
3. If it's a dependency, list the specific mathematical elements (theorems, lemmas, definitions) that are used

OUTPUT FORMAT:
Return a JSON object with the following structure:
{
  "dependencies": [
    {
      "reference_number": 1,
      "paper_id": "abc123",
      "is_dependency": true,
      "reason": "The paper directly uses Theorem 3.2 and Lemma 4.1 from this reference to prove the main result in Section 5",
      "specific_elements": ["Theorem 3.2", "Lemma 4.1", "Definition 2.1"]
    },
    {
      "reference_number": 2,
      "paper_id": "def456",
      "is_dependency": false,
      "reason": "Only mentioned in the introduction for historical context and motivation",
      "specific_elements": []
    }
  ]
}

IMPORTANT:
- Only mark as dependency if mathematical results are DIRECTLY USED in proofs or definitions
- Background mentions, comparisons, and motivational citations are NOT dependencies
- Look for phrases like "by Theorem X in [Y]", "using the result from", "applying Lemma", "follows from"
- Be conservative: when in doubt, it's likely NOT a dependency
`, analysisText(paper, content), refList)

	return prompt, byNumber
}

// extractJSONPayload locates the JSON object within a free-form oracle
// reply, tolerating surrounding prose and markdown fences.
func extractJSONPayload(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}
