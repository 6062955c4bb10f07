// File: cmd/capture_test.go
package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/streamsift/internal/config"
	"github.com/xkilldash9x/streamsift/internal/driver"
	"github.com/xkilldash9x/streamsift/internal/plugin"
)

func TestNormalizeTargets(t *testing.T) {
	t.Parallel()

	got, err := normalizeTargets([]string{
		"globoplay.globo.com/v/1467373/",
		"http://example.com/live",
		"https://play.example.tv/sportv",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://globoplay.globo.com/v/1467373/",
		"http://example.com/live",
		"https://play.example.tv/sportv",
	}, got)
}

func TestNormalizeTargetsRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
	}{
		{name: "loopback literal", target: "https://127.0.0.1/stream"},
		{name: "private range", target: "192.168.1.20/live"},
		{name: "link local metadata", target: "http://169.254.169.254/latest"},
		{name: "unsupported scheme", target: "ftp://example.com/feed"},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := normalizeTargets([]string{tc.target})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid target")
		})
	}
}

func TestNormalizeTargetsFailsFast(t *testing.T) {
	t.Parallel()

	// One bad target aborts the whole batch before any browser work.
	_, err := normalizeTargets([]string{"https://example.com/ok", "https://[::1]/bad"})
	require.Error(t, err)
}

func TestCollectChannelTargets(t *testing.T) {
	t.Parallel()

	results := []*driver.Result{
		{
			Target: "https://globoplay.globo.com/v/1467373/",
			Channels: []plugin.Channel{
				{Name: "CBN", URL: "https://globoplay.globo.com/cbn/ao-vivo/"},
				{Name: "Dup of target", URL: "https://globoplay.globo.com/v/1467373/"},
				{Name: "Private", URL: "https://10.0.0.8/hidden"},
			},
		},
		nil,
		{
			Target: "https://globoplay.globo.com/sportv/",
			Channels: []plugin.Channel{
				{Name: "CBN again", URL: "https://globoplay.globo.com/cbn/ao-vivo/"},
				{Name: "GloboNews", URL: "https://globoplay.globo.com/globonews/ao-vivo/"},
			},
		},
	}
	captured := []string{
		"https://globoplay.globo.com/v/1467373/",
		"https://globoplay.globo.com/sportv/",
	}

	got := collectChannelTargets(results, captured, zap.NewNop())

	assert.Equal(t, []string{
		"https://globoplay.globo.com/cbn/ao-vivo/",
		"https://globoplay.globo.com/globonews/ao-vivo/",
	}, got)
}

func TestCollectChannelTargetsNoChannels(t *testing.T) {
	t.Parallel()

	got := collectChannelTargets([]*driver.Result{nil, {Target: "https://example.com"}}, []string{"https://example.com"}, zap.NewNop())
	assert.Empty(t, got)
}

func TestApplyProfileExplicitDirWins(t *testing.T) {
	t.Parallel()

	cfg := config.BrowserConfig{
		UseProfile:  true,
		Profile:     "Pessoal",
		UserDataDir: "/tmp/custom-user-data",
	}

	require.NoError(t, applyProfile(&cfg, zap.NewNop()))
	assert.Equal(t, "/tmp/custom-user-data", cfg.UserDataDir)
	assert.Empty(t, cfg.Args)
}

func TestApplyProfileNotRequested(t *testing.T) {
	t.Parallel()

	cfg := config.BrowserConfig{Family: "chrome"}

	require.NoError(t, applyProfile(&cfg, zap.NewNop()))
	assert.Empty(t, cfg.UserDataDir)
}

func TestApplyProfileRejectsFirefox(t *testing.T) {
	t.Parallel()

	cfg := config.BrowserConfig{Family: "firefox", UseProfile: true}

	err := applyProfile(&cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--cookies")
}
