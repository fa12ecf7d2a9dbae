package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

func TestSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("creates directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "data")

		_, err := NewSlot(dir)
		require.NoError(t, err)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("empty slot", func(t *testing.T) {
		s, err := NewSlot(t.TempDir())
		require.NoError(t, err)

		v, err := s.Get(ctx, "shortenedUrls")

		assert.ErrorIs(t, err, entity.ErrSlotEmpty)
		assert.Nil(t, v)
	})

	t.Run("set and get", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewSlot(dir)
		require.NoError(t, err)

		require.NoError(t, s.Set(ctx, "shortenedUrls", []byte(`[{"shortCode":"abcd"}]`)))
		require.NoError(t, s.Set(ctx, "shortenedUrls", []byte(`[]`)))

		v, err := s.Get(ctx, "shortenedUrls")
		assert.NoError(t, err)
		assert.Equal(t, []byte(`[]`), v)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temporary files must not be left behind")
		assert.Equal(t, "shortenedUrls.json", entries[0].Name())
	})

	t.Run("invalid key", func(t *testing.T) {
		s, err := NewSlot(t.TempDir())
		require.NoError(t, err)

		for _, key := range []string{"", "..", "../escape", `a\b`} {
			assert.ErrorIs(t, s.Set(ctx, key, []byte("x")), ErrInvalidKey)

			_, err := s.Get(ctx, key)
			assert.ErrorIs(t, err, ErrInvalidKey)
		}
	})
}
