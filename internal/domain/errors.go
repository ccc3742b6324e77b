package domain

import "errors"

var (
	// ErrEmptyQuestion signals a missing or blank question at the request boundary.
	ErrEmptyQuestion = errors.New("question is required")
	// ErrTooManyCandidates signals a candidate array above the configured cap.
	ErrTooManyCandidates = errors.New("too many candidates")
	// ErrNoValidCandidates signals that validation dropped every candidate.
	ErrNoValidCandidates = errors.New("no valid candidates")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a text-generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
)

// IsValidation reports whether err is a request-boundary validation error,
// as opposed to a collaborator failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyQuestion) ||
		errors.Is(err, ErrTooManyCandidates) ||
		errors.Is(err, ErrNoValidCandidates)
}
