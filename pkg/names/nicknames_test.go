package names

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNicknames(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	t.Run("empty path returns built-in table", func(t *testing.T) {
		nicknames := LoadNicknames("", logger)
		assert.Equal(t, DefaultNicknames(), nicknames)
	})

	t.Run("missing file falls back to built-in table", func(t *testing.T) {
		nicknames := LoadNicknames("/nonexistent/nicknames.json", logger)
		assert.Equal(t, DefaultNicknames(), nicknames)
	})

	t.Run("malformed JSON falls back to built-in table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nicknames.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"John Smith": "Johnny"`), 0o644))

		nicknames := LoadNicknames(path, logger)
		assert.Equal(t, DefaultNicknames(), nicknames)
	})

	t.Run("valid file overrides built-in table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nicknames.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"John Smith": ["Johnny", "Jack"]}`), 0o644))

		nicknames := LoadNicknames(path, logger)
		assert.Equal(t, Nicknames{"John Smith": {"Johnny", "Jack"}}, nicknames)

		scorer := NewScorer(nicknames)
		match, confidence := scorer.NicknameMatch("Johnny", "John Smith")
		assert.True(t, match)
		assert.Equal(t, 0.9, confidence)
	})
}
