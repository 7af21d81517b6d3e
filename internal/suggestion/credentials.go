package suggestion

import (
	"context"
	"errors"
	"strings"

	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/persistence"
)

var ErrCredentialRequired = errors.New("an API key is required")

// Prompter asks the user for an API key. An empty key means the user
// declined.
type Prompter interface {
	PromptAPIKey(ctx context.Context) (string, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context) (string, error)

func (f PrompterFunc) PromptAPIKey(ctx context.Context) (string, error) {
	return f(ctx)
}

// SuppliedKey is a key the caller passed explicitly with the request. It
// replaces any stored key.
type SuppliedKey string

func (k SuppliedKey) PromptAPIKey(context.Context) (string, error) {
	return string(k), nil
}

// CredentialProvider resolves the key used for suggestion calls.
type CredentialProvider interface {
	APIKey(ctx context.Context, prompter Prompter) (string, error)
}

// StoreCredentials takes an explicitly supplied key first, then the
// configured key, then the one in the durable store, then asks the prompter.
// Supplied and prompted keys are saved under key for next time.
type StoreCredentials struct {
	configured string
	store      persistence.Store
	key        string
	logger     logger.Logger
}

func NewStoreCredentials(configured string, store persistence.Store, key string, log logger.Logger) *StoreCredentials {
	return &StoreCredentials{
		configured: configured,
		store:      store,
		key:        key,
		logger:     log,
	}
}

// Scoped returns a copy that stores its key under key, typically one per
// session.
func (c *StoreCredentials) Scoped(key string) *StoreCredentials {
	scoped := *c
	scoped.key = key
	return &scoped
}

func (c *StoreCredentials) APIKey(ctx context.Context, prompter Prompter) (string, error) {
	if supplied, ok := prompter.(SuppliedKey); ok {
		if key := strings.TrimSpace(string(supplied)); key != "" {
			c.save(ctx, key)
			return key, nil
		}
	}

	if c.configured != "" {
		return c.configured, nil
	}

	if c.store != nil {
		stored, err := c.store.Get(ctx, c.key)
		switch {
		case err == nil && stored != "":
			return stored, nil
		case err != nil && !errors.Is(err, persistence.ErrNotFound):
			c.logger.Warn("Failed to read stored API key", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if prompter == nil {
		return "", ErrCredentialRequired
	}
	prompted, err := prompter.PromptAPIKey(ctx)
	if err != nil {
		return "", err
	}
	prompted = strings.TrimSpace(prompted)
	if prompted == "" {
		return "", ErrCredentialRequired
	}

	c.save(ctx, prompted)
	return prompted, nil
}

func (c *StoreCredentials) save(ctx context.Context, key string) {
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, c.key, key); err != nil {
		c.logger.Warn("Failed to save API key", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
