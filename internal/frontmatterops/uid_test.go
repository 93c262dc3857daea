package frontmatterops

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEnsureUID(t *testing.T) {
	t.Run("generates when missing", func(t *testing.T) {
		fields := map[string]any{"title": "Demo"}

		uid, changed, err := EnsureUID(fields)
		require.NoError(t, err)
		require.True(t, changed)
		require.Equal(t, uid, fields["uid"])

		_, err = uuid.Parse(uid)
		require.NoError(t, err)
	})

	t.Run("keeps existing", func(t *testing.T) {
		fields := map[string]any{"uid": " abc-123 "}

		uid, changed, err := EnsureUID(fields)
		require.NoError(t, err)
		require.False(t, changed)
		require.Equal(t, "abc-123", uid)
		require.Equal(t, " abc-123 ", fields["uid"], "existing value must not be rewritten")
	})

	t.Run("nil fields", func(t *testing.T) {
		_, _, err := EnsureUID(nil)
		require.Error(t, err)
	})
}
