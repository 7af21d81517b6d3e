package suggestion

import (
	"context"
	"errors"
	"testing"

	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/persistence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("configured key wins", func(t *testing.T) {
		store := persistence.NewMemoryStore()
		require.NoError(t, store.Set(ctx, "openai_api_key", "sk-stored"))
		creds := NewStoreCredentials("sk-config", store, "openai_api_key", logger.NewTestLogger(t))

		key, err := creds.APIKey(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "sk-config", key)
	})

	t.Run("stored key", func(t *testing.T) {
		store := persistence.NewMemoryStore()
		require.NoError(t, store.Set(ctx, "openai_api_key", "sk-stored"))
		creds := NewStoreCredentials("", store, "openai_api_key", logger.NewTestLogger(t))

		key, err := creds.APIKey(ctx, PrompterFunc(func(context.Context) (string, error) {
			t.Fatal("prompter must not be called when a key is stored")
			return "", nil
		}))
		require.NoError(t, err)
		assert.Equal(t, "sk-stored", key)
	})

	t.Run("prompted key is saved", func(t *testing.T) {
		store := persistence.NewMemoryStore()
		creds := NewStoreCredentials("", store, "openai_api_key", logger.NewTestLogger(t))

		key, err := creds.APIKey(ctx, PrompterFunc(func(context.Context) (string, error) {
			return "  sk-prompted ", nil
		}))
		require.NoError(t, err)
		assert.Equal(t, "sk-prompted", key)

		saved, err := store.Get(ctx, "openai_api_key")
		require.NoError(t, err)
		assert.Equal(t, "sk-prompted", saved)
	})

	t.Run("no key anywhere", func(t *testing.T) {
		creds := NewStoreCredentials("", persistence.NewMemoryStore(), "openai_api_key", logger.NewTestLogger(t))

		_, err := creds.APIKey(ctx, nil)
		assert.ErrorIs(t, err, ErrCredentialRequired)

		_, err = creds.APIKey(ctx, PrompterFunc(func(context.Context) (string, error) { return "", nil }))
		assert.ErrorIs(t, err, ErrCredentialRequired)
	})

	t.Run("supplied key replaces stored key", func(t *testing.T) {
		store := persistence.NewMemoryStore()
		require.NoError(t, store.Set(ctx, "openai_api_key", "sk-revoked"))
		creds := NewStoreCredentials("sk-config", store, "openai_api_key", logger.NewTestLogger(t))

		key, err := creds.APIKey(ctx, SuppliedKey(" sk-fresh "))
		require.NoError(t, err)
		assert.Equal(t, "sk-fresh", key)

		saved, err := store.Get(ctx, "openai_api_key")
		require.NoError(t, err)
		assert.Equal(t, "sk-fresh", saved)
	})

	t.Run("blank supplied key falls through", func(t *testing.T) {
		store := persistence.NewMemoryStore()
		require.NoError(t, store.Set(ctx, "openai_api_key", "sk-stored"))
		creds := NewStoreCredentials("", store, "openai_api_key", logger.NewTestLogger(t))

		key, err := creds.APIKey(ctx, SuppliedKey("  "))
		require.NoError(t, err)
		assert.Equal(t, "sk-stored", key)
	})

	t.Run("scoped copies use their own key", func(t *testing.T) {
		store := persistence.NewMemoryStore()
		base := NewStoreCredentials("", store, "openai_api_key", logger.NewTestLogger(t))
		a := base.Scoped("openai_api_key:a")
		b := base.Scoped("openai_api_key:b")

		_, err := a.APIKey(ctx, SuppliedKey("sk-a"))
		require.NoError(t, err)

		_, err = b.APIKey(ctx, nil)
		assert.ErrorIs(t, err, ErrCredentialRequired)

		key, err := a.APIKey(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "sk-a", key)

		_, err = store.Get(ctx, "openai_api_key")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("prompter error", func(t *testing.T) {
		creds := NewStoreCredentials("", nil, "openai_api_key", logger.NewTestLogger(t))
		boom := errors.New("prompt closed")

		_, err := creds.APIKey(ctx, PrompterFunc(func(context.Context) (string, error) { return "", boom }))
		assert.ErrorIs(t, err, boom)
	})
}
