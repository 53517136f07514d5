package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hanlulong/openecon-data-sub002/internal/index"
)

const validatePrompt = `A user asked about "%s". The top-ranked indicator candidate is "%s" (%s). Does this candidate answer the user's question? Reply with exactly one word: yes or no.`

// ValidateCandidate asks the LLM to confirm or reject the indicator
// index's top-ranked candidate against the user's phrasing. Called only
// for candidates the index itself flagged LowConfidence, since a
// high-confidence exact-code/display-name match doesn't need a second
// opinion.
func (r *Resolver) ValidateCandidate(ctx context.Context, userPhrase string, candidate index.Candidate) (accepted bool, err error) {
	prompt := fmt.Sprintf(validatePrompt, userPhrase, candidate.Record.DisplayName, candidate.Record.Description)
	reply, err := r.llm.Complete(ctx, "You answer strictly with one word: yes or no.", prompt)
	if err != nil {
 return false, err
	}
	reply = strings.ToLower(strings.TrimSpace(reply))
	return strings.HasPrefix(reply, "y"), nil
}

// PickValidated walks ranked candidates in order, accepting the first one
// the LLM confirms; low-confidence candidates are validated, high-confidence
// ones are accepted outright. If every candidate is rejected, callers
// surface a clarification request rather than guessing.
func (r *Resolver) PickValidated(ctx context.Context, userPhrase string, candidates []index.Candidate) (index.Candidate, bool, error) {
	for _, c := range candidates {
 if !c.LowConfidence {
 return c, true, nil
 }
 ok, err := r.ValidateCandidate(ctx, userPhrase, c)
 if err != nil {
 return index.Candidate{}, false, err
 }
 if ok {
 return c, true, nil
 }
	}
	return index.Candidate{}, false, nil
}
