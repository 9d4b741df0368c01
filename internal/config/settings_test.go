package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/dates"
)

func newViper() *viper.Viper {
	v := viper.New()
	Defaults(v)
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("XDG_DATA_HOME", "/data")

	s, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "sqlite", s.Database.Driver)
	assert.Equal(t, filepath.Join("/data", "sift", "sift.db"), s.Database.Path)
	assert.Equal(t, dates.HintAuto, s.DateHint)

	assert.True(t, s.AI.Enabled)
	assert.Equal(t, "gemini", s.AI.Provider)
	assert.Equal(t, "from-env", s.AI.APIKey)
	assert.Equal(t, 30, s.AI.RateLimit)
	assert.Equal(t, 2, s.AI.MaxRetries)
	assert.Equal(t, 60*time.Second, s.AI.Timeout)

	assert.Equal(t, ImportAI(), s.AI.Import)
	assert.Equal(t, RecategorizeAI(), s.AI.Recategorize)
}

func TestFromViper_Overrides(t *testing.T) {
	v := newViper()
	v.Set("database.driver", "BOLT")
	v.Set("database.path", "$HOME/ledger.db")
	v.Set("import.date_format", "dmy")
	v.Set("ai.provider", "anthropic")
	v.Set("ai.api_key", "explicit")
	v.Set("ai.batch_size", 10)
	v.Set("ai.recategorize.model", "claude-sonnet-4-5")
	v.Set("ai.recategorize.temperature", 0.2)
	t.Setenv("HOME", "/home/test")

	s, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "bolt", s.Database.Driver)
	assert.Equal(t, "/home/test/ledger.db", s.Database.Path)
	assert.Equal(t, dates.HintDMY, s.DateHint)
	assert.Equal(t, "explicit", s.AI.APIKey)
	assert.Equal(t, "anthropic", s.AI.Import.Provider)
	assert.Equal(t, 10, s.AI.Import.BatchSize)
	assert.Equal(t, "claude-sonnet-4-5", s.AI.Recategorize.ModelName)
	assert.InDelta(t, 0.2, s.AI.Recategorize.Temperature, 0.0001)
	assert.True(t, s.AI.Recategorize.EnableThinking)

	cc := s.ClassifierConfig()
	assert.Equal(t, "anthropic", cc.Provider)
	assert.Equal(t, "explicit", cc.APIKey)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := map[string]func(v *viper.Viper){
		"driver":      func(v *viper.Viper) { v.Set("database.driver", "postgres") },
		"date format": func(v *viper.Viper) { v.Set("import.date_format", "YMD") },
		"batch size":  func(v *viper.Viper) { v.Set("ai.batch_size", 0) },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			v := newViper()
			mutate(v)
			_, err := FromViper(v)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/test")
	t.Setenv("LEDGER", "books")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, "/home/test", ExpandPath("~"))
	assert.Equal(t, "/home/test/x/y.db", ExpandPath("~/x/y.db"))
	assert.Equal(t, "/home/test/books.db", ExpandPath("$HOME/$LEDGER.db"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
}
