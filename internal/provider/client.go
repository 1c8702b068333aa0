// Package provider defines the abstract boundary between the router and
// whatever actually serves a chat completion: a real backend, or (as
// wired here) a randomized simulation used for routing demonstrations.
package provider

import (
	"context"

	"github.com/axiomrelay/gateway/pkg/types"
)

// Client is the abstraction the Router calls through. Concrete backend
// transports, retries, and auth are all behind this one method.
type Client interface {
	Chat(ctx context.Context, prompt string, timeoutMS int) (types.ChatResult, error)
}
