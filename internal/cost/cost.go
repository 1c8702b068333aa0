// Package cost estimates the price of a prompt against a provider's
// per-token rate before the request is ever sent.
package cost

import (
	"math"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingCache sync.Map
	defaultOnce   sync.Once
	defaultEnc    *tiktoken.Tiktoken
)

// EstimateTokens returns the token count for prompt under model's encoding.
// It prefers tiktoken's model-specific encoding, falling back to the
// cl100k_base encoding, and finally to a ceil(len/4) approximation if no
// tiktoken encoding can be resolved at all.
func EstimateTokens(model, prompt string) int {
	if prompt == "" {
		return 0
	}
	if enc := getEncoding(model); enc != nil {
		return len(enc.Encode(prompt, nil, nil))
	}
	return int(math.Ceil(float64(len(prompt)) / 4))
}

// EstimateCost returns token_count(prompt) * costPerToken for the given
// model and per-token price.
func EstimateCost(model string, costPerToken float64, prompt string) float64 {
	return float64(EstimateTokens(model, prompt)) * costPerToken
}

func getEncoding(model string) *tiktoken.Tiktoken {
	base := normalizeModelName(model)
	if cached, ok := encodingCache.Load(base); ok {
		if enc, ok := cached.(*tiktoken.Tiktoken); ok {
			return enc
		}
		return getDefaultEncoding()
	}

	enc, err := tiktoken.EncodingForModel(base)
	if err != nil {
		enc = getDefaultEncoding()
	}
	if enc != nil {
		encodingCache.Store(base, enc)
	}
	return enc
}

func getDefaultEncoding() *tiktoken.Tiktoken {
	defaultOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			defaultEnc = enc
		}
	})
	return defaultEnc
}

func normalizeModelName(model string) string {
	if model == "" {
		return model
	}
	if idx := strings.LastIndex(model, "/"); idx >= 0 && idx+1 < len(model) {
		return model[idx+1:]
	}
	return model
}
