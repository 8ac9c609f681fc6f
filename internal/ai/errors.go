package ai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable means a provider is missing the credentials or settings it
// needs. Callers treat it as a failed attempt.
var ErrUnavailable = errors.New("ai provider not configured, set its api_key")

// Attempt records one model tried during generation.
type Attempt struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Err      error  `json:"-"`
}

// GenerationError is returned once every candidate model has failed.
type GenerationError struct {
	Attempts []Attempt
	Last     error
}

func (e *GenerationError) Error() string {
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, a.Model)
	}
	if e.Last == nil {
		return "generation failed: no candidate models"
	}
	return fmt.Sprintf("generation failed after trying [%s]: %v", strings.Join(names, ", "), e.Last)
}

func (e *GenerationError) Unwrap() error {
	return e.Last
}

// EmbeddingError is returned when neither the remote nor the local
// embedding tier produced vectors.
type EmbeddingError struct {
	Primary error
	Local   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: remote: %v; local: %v", e.Primary, e.Local)
}

func (e *EmbeddingError) Unwrap() []error {
	return []error{e.Primary, e.Local}
}
