// Package ai wraps the optional generative backend used to enrich issue
// classification. The boundary is a typed contract: a Backend produces raw
// text, ExtractClassification turns it into a Classification or fails with an
// explicit error. Callers decide what a failure means (here: fall back to
// deterministic defaults, never surface the error).
package ai

import "context"

// Backend generates a free-text completion for a prompt.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
