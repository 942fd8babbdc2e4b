package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbilling/billingkit/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json format with static attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Level: "info", Format: "json"},
			logger.WithOutput(&buf),
			logger.WithAttr(slog.String("component", "featuregen")))

		log.Info("synced", slog.Int("features", 3))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "synced", record["msg"])
		assert.Equal(t, "featuregen", record["component"])
		assert.EqualValues(t, 3, record["features"])
	})

	t.Run("level filters lower records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Level: "warn"}, logger.WithOutput(&buf))

		log.Info("ignored")
		log.Warn("kept")

		assert.NotContains(t, buf.String(), "ignored")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Format: "text"}, logger.WithOutput(&buf))

		log.Info("hello")
		assert.True(t, strings.Contains(buf.String(), "msg=hello"))
	})

	t.Run("unknown settings degrade to defaults", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Level: "chatty", Format: "yaml"}, logger.WithOutput(&buf))

		log.Debug("filtered at the default info level")
		log.Info("present")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record), "fallback format is json")
		assert.Equal(t, "present", record["msg"])
	})
}
