package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const requestTimeout = 30 * time.Second

// ErrNoAPIKeys is returned when the provider is constructed without keys.
var ErrNoAPIKeys = errors.New("no API keys configured")

// Provider holds one OpenAI-compatible client per configured API key and
// rotates through them. A call that fails on one key is retried on the
// next, so a rate-limited key degrades throughput instead of dropping the
// caller.
type Provider struct {
	clients []*openai.Client
	cursor  atomic.Uint64
	log     zerolog.Logger
}

// NewProvider builds a client pool from the given keys against an
// OpenAI-compatible base URL.
func NewProvider(baseURL string, apiKeys []string, log zerolog.Logger) (*Provider, error) {
	if len(apiKeys) == 0 {
		return nil, ErrNoAPIKeys
	}

	clients := make([]*openai.Client, 0, len(apiKeys))
	for _, key := range apiKeys {
		cfg := openai.DefaultConfig(key)
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
		clients = append(clients, openai.NewClientWithConfig(cfg))
	}

	return &Provider{
		clients: clients,
		log:     log.With().Str("component", "llm-provider").Logger(),
	}, nil
}

// Do runs fn against each client in rotation order until one succeeds.
// The last error is returned when every key fails.
func (p *Provider) Do(ctx context.Context, fn func(ctx context.Context, client *openai.Client) error) error {
	start := p.cursor.Add(1)

	var lastErr error
	for i := 0; i < len(p.clients); i++ {
		client := p.clients[(start+uint64(i))%uint64(len(p.clients))]

		callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		err := fn(callCtx, client)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) {
			break
		}
		p.log.Warn().Err(err).Int("attempt", i+1).Msg("llm call failed, rotating key")
	}
	return lastErr
}

// Size reports how many keys the pool rotates over.
func (p *Provider) Size() int {
	return len(p.clients)
}
