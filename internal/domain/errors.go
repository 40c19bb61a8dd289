package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrPersonNotFound signals a missing person profile.
	ErrPersonNotFound = errors.New("person not found")
	// ErrOpportunityNotFound signals a missing opportunity.
	ErrOpportunityNotFound = errors.New("opportunity not found")
	// ErrConnectionRequestNotFound signals a missing connection request.
	ErrConnectionRequestNotFound = errors.New("connection request not found")
	// ErrForbidden signals an action the acting person may not take.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput signals a request that failed domain validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrVectorDimMismatch signals an embedding of unexpected size.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGeneratorError signals a text generation provider failure.
	ErrGeneratorError = errors.New("generator error")
	// ErrMalformedOracleResponse signals an AI response that failed parsing or validation.
	ErrMalformedOracleResponse = errors.New("malformed oracle response")
)
