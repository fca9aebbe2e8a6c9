package provider

import (
	"errors"
	"fmt"

	"github.com/leadlab/enrich-cli/internal/resilience"
	"github.com/leadlab/enrich-cli/pkg/firecrawl"
	"github.com/leadlab/enrich-cli/pkg/jina"
	"github.com/leadlab/enrich-cli/pkg/openai"
	"github.com/leadlab/enrich-cli/pkg/perplexity"
)

// SchemaError means a provider responded but its payload did not match the
// expected structure. Not retryable; callers fall back or mark parse_error.
type SchemaError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: schema mismatch: %v", e.Provider, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// IsSchemaError reports whether err carries a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// classify tags vendor API errors as transient when their HTTP status says
// so, letting the shared retry and breaker logic treat all vendors alike.
func classify(err error) error {
	if err == nil {
		return nil
	}

	status := 0
	var pErr *perplexity.APIError
	var jErr *jina.APIError
	var fErr *firecrawl.APIError
	var oErr *openai.APIError
	switch {
	case errors.As(err, &pErr):
		status = pErr.StatusCode
	case errors.As(err, &jErr):
		status = jErr.StatusCode
	case errors.As(err, &fErr):
		status = fErr.StatusCode
	case errors.As(err, &oErr):
		status = oErr.StatusCode
	}
	if status != 0 && resilience.IsTransientHTTPStatus(status) {
		return resilience.NewTransientError(err, status)
	}
	return err
}
