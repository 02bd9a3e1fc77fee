package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/depgraph/internal/retry"
	"github.com/matsen/depgraph/internal/s2"
)

const (
	// OverloadAttempts is how many times an overloaded oracle is tried.
	OverloadAttempts = 3

	// OverloadBackoff is the fixed delay between overload retries.
	OverloadBackoff = 3 * time.Second

	// FallbackLimit caps how many references the intent-based fallback
	// may select.
	FallbackLimit = 5
)

// Verdict records that one cited paper is a true dependency, with the
// oracle's justification and the specific mathematical elements used.
type Verdict struct {
	PaperID  string
	Reason   string
	Elements []string
}

// oracleResponse is the JSON schema the oracle is asked to produce.
type oracleResponse struct {
	Dependencies []oracleVerdict `json:"dependencies"`
}

type oracleVerdict struct {
	ReferenceNumber  int      `json:"reference_number"`
	PaperID          string   `json:"paper_id"`
	IsDependency     bool     `json:"is_dependency"`
	Reason           string   `json:"reason"`
	SpecificElements []string `json:"specific_elements"`
}

// Classifier asks the oracle which references are true dependencies.
// Any oracle failure degrades to a deterministic fallback based on
// citation-intent tags; Classify never fails the caller.
type Classifier struct {
	oracle Oracle
	policy retry.Policy
	log    *zap.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithRetryPolicy overrides the overload retry policy (for testing).
func WithRetryPolicy(p retry.Policy) ClassifierOption {
	return func(c *Classifier) {
		c.policy = p
	}
}

// WithLogger sets the classifier's logger.
func WithLogger(log *zap.Logger) ClassifierOption {
	return func(c *Classifier) {
		c.log = log
	}
}

// NewClassifier creates a Classifier using the given oracle.
func NewClassifier(oracle Oracle, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		oracle: oracle,
		policy: retry.Policy{
			MaxAttempts: OverloadAttempts,
			Backoff:     OverloadBackoff,
			Retryable:   func(err error) bool { return errors.Is(err, ErrOverloaded) },
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the references that are true dependencies, in the
// order the oracle reported them. Given no references it returns nil
// without consulting the oracle.
func (c *Classifier) Classify(ctx context.Context, paper *s2.Paper, content string, refs []s2.Reference) []Verdict {
	if len(refs) == 0 {
		return nil
	}

	prompt, byNumber := buildPrompt(paper, content, refs)
	if len(byNumber) == 0 {
		// Every reference entry lacked a cited paper record.
		return nil
	}

	var reply string
	err := c.policy.Do(ctx, func() error {
		var err error
		reply, err = c.oracle.Complete(ctx, prompt)
		return err
	})
	if err != nil {
		c.log.Warn("oracle failed, using intent fallback", zap.String("paper", paper.PaperID), zap.Error(err))
		return fallbackByIntent(refs)
	}

	verdicts, err := parseVerdicts(reply, byNumber)
	if err != nil {
		c.log.Warn("unparseable oracle response, using intent fallback", zap.String("paper", paper.PaperID), zap.Error(err))
		return fallbackByIntent(refs)
	}

	return verdicts
}

// parseVerdicts extracts and validates the oracle's JSON payload,
// keeping only true-dependency entries.
func parseVerdicts(reply string, byNumber map[int]string) ([]Verdict, error) {
	payload, ok := extractJSONPayload(reply)
	if !ok {
		return nil, fmt.Errorf("no JSON payload in oracle response")
	}

	var resp oracleResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("decoding oracle response: %w", err)
	}
	if resp.Dependencies == nil {
		return nil, fmt.Errorf("oracle response missing dependencies field")
	}

	var verdicts []Verdict
	for _, v := range resp.Dependencies {
		if !v.IsDependency {
			continue
		}
		// The reference number is authoritative for identity; the
		// echoed paper_id is only a fallback.
		paperID, known := byNumber[v.ReferenceNumber]
		if !known || paperID == "" {
			paperID = v.PaperID
		}
		if paperID == "" {
			continue
		}
		verdicts = append(verdicts, Verdict{
			PaperID:  paperID,
			Reason:   v.Reason,
			Elements: v.SpecificElements,
		})
	}

	return verdicts, nil
}

// fallbackByIntent selects references whose citation-intent tags mark
// them as methodology or result citations, capped at FallbackLimit.
func fallbackByIntent(refs []s2.Reference) []Verdict {
	var verdicts []Verdict
	for _, ref := range refs {
		if len(verdicts) >= FallbackLimit {
			break
		}
		if ref.CitedPaper == nil || ref.CitedPaper.PaperID == "" {
			continue
		}
		if !hasDependencyIntent(ref.Intents) {
			continue
		}
		verdicts = append(verdicts, Verdict{
			PaperID: ref.CitedPaper.PaperID,
			Reason:  fmt.Sprintf("Citation intent indicates %s", strings.Join(ref.Intents, ", ")),
		})
	}
	return verdicts
}

// hasDependencyIntent reports whether the intent tags suggest the
// reference's results are actually used.
func hasDependencyIntent(intents []string) bool {
	for _, intent := range intents {
		if intent == "methodology" || intent == "result" {
			return true
		}
	}
	return false
}
