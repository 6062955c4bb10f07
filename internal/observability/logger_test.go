// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/streamsift/internal/config"
)

func testLoggerConfig(format string) config.LoggerConfig {
	cfg := config.NewDefaultConfig().Logger
	cfg.Format = format
	cfg.Level = "debug"
	cfg.LogFile = ""
	return cfg
}

func TestInitializeJSONFormat(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(testLoggerConfig("json"), zapcore.AddSync(&buf))

	GetLogger().Info("capture started")
	require.NotEmpty(t, buf.String())

	var entry map[string]any
	line := strings.SplitN(strings.TrimSpace(buf.String()), "\n", 2)[0]
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "capture started", entry["msg"])
	assert.Equal(t, "streamsift", entry["logger"])
}

func TestInitializeConsoleFormatColorizesLevel(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(testLoggerConfig("console"), zapcore.AddSync(&buf))

	GetLogger().Warn("slow page")
	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "\x1b[33m", "warn level should use the configured yellow")
	assert.Contains(t, out, "slow page")
}

func TestInitializeOnlyOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var first, second bytes.Buffer
	Initialize(testLoggerConfig("json"), zapcore.AddSync(&first))
	Initialize(testLoggerConfig("json"), zapcore.AddSync(&second))

	GetLogger().Info("only the first writer wins")
	assert.NotEmpty(t, first.String())
	assert.Empty(t, second.String())
}

func TestNamedAttachesComponent(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(testLoggerConfig("json"), zapcore.AddSync(&buf))

	Named("ranker").Info("ranked")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "streamsift.ranker", entry["logger"])
}

func TestGetLoggerFallbackBeforeInit(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
	// Must not panic and must not install itself as the global.
	logger.Debug("fallback logger in use")
	assert.Nil(t, globalLogger.Load())
}
