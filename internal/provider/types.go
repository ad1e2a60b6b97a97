// Package provider contains the interchangeable LLM backends and the
// resolver that picks one of them for a translation job.
//
// Every vendor is exposed through the same Client capability; the pipeline
// never knows which REST shape sits behind a Generate call.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Client is the uniform generate capability over one LLM vendor.
type Client interface {
	Name() string
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// ErrNoProviderAvailable is returned by Resolve when not a single supported
// provider has a credential configured. It is terminal: no translation work
// can start.
var ErrNoProviderAvailable = errors.New("no LLM provider has credentials configured")

// ErrCredentialMissing is returned by a client whose credential was empty at
// call time.
var ErrCredentialMissing = errors.New("provider credential not configured")

// Error describes a non-2xx response from a provider API. The provider name
// and status travel with the error so job failure messages can name the
// culprit.
type Error struct {
	Provider string
	Status   int
	Body     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s returned status %d: %s", e.Provider, e.Status, e.Body)
}
