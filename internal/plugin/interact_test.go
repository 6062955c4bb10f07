// File: internal/plugin/interact_test.go
package plugin

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePage scripts the capability surface so interaction protocols can run
// without a browser.
type fakePage struct {
	mu      sync.Mutex
	visible map[string]bool
	clicks  []string
	scripts []string
	slept   []time.Duration
	evalFn  func(script string, out any) error
	url     string
}

func (p *fakePage) Navigate(u string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = u
	return nil
}

func (p *fakePage) Click(selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, selector)
	return nil
}

func (p *fakePage) WaitVisible(selector string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.visible[selector] {
		return nil
	}
	return errors.New("selector never became visible")
}

func (p *fakePage) Evaluate(script string, out any) error {
	p.mu.Lock()
	p.scripts = append(p.scripts, script)
	fn := p.evalFn
	p.mu.Unlock()
	if fn != nil {
		return fn(script, out)
	}
	return nil
}

func (p *fakePage) Sleep(d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slept = append(p.slept, d)
	return nil
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func TestGenericClicksFirstVisibleSelector(t *testing.T) {
	page := &fakePage{visible: map[string]bool{
		".vjs-big-play-button": true,
		".play-icon":           true,
	}}

	require.NoError(t, NewGeneric(zap.NewNop()).Interact(page))

	require.Len(t, page.clicks, 1, "only the first matching selector should be clicked")
	assert.Equal(t, ".vjs-big-play-button", page.clicks[0])
	assert.NotEmpty(t, page.slept, "the player needs settle time after the click")
}

func TestGenericSucceedsWithNothingToClick(t *testing.T) {
	page := &fakePage{visible: map[string]bool{}}

	// Autoplaying pages have no play control; that is not a failure.
	require.NoError(t, NewGeneric(zap.NewNop()).Interact(page))
	assert.Empty(t, page.clicks)
	assert.NotEmpty(t, page.slept)
}

func TestGloboplayDismissesModalsThenPlays(t *testing.T) {
	var dismissCalls int
	page := &fakePage{
		visible: map[string]bool{"button.poster__play-wrapper": true},
		evalFn: func(script string, out any) error {
			if strings.Contains(script, "warning-block") {
				dismissCalls++
				if b, ok := out.(*bool); ok {
					*b = dismissCalls == 1
				}
			}
			return nil
		},
	}

	require.NoError(t, NewGloboplay(zap.NewNop()).Interact(page))

	assert.Equal(t, 2, dismissCalls, "keeps dismissing until no modal is left")
	require.NotEmpty(t, page.clicks)
	assert.Equal(t, "button.poster__play-wrapper", page.clicks[0])
}

func TestGloboplayDiscoverChannels(t *testing.T) {
	page := &fakePage{
		evalFn: func(script string, out any) error {
			switch {
			case script == "document.body.scrollHeight":
				*(out.(*int)) = 2000
			case strings.Contains(script, "idRegex"):
				*(out.(*[]Channel)) = []Channel{
					{ID: "1234567", Name: "Globoplay. Globo SP, Ao vivo agora", URL: "https://globoplay.globo.com/ao-vivo/1234567/"},
					{ID: "7654321", Name: "Canal BBB 12 - Quarto", URL: "https://globoplay.globo.com/ao-vivo/7654321/"},
				}
			}
			return nil
		},
	}

	channels, err := NewGloboplay(zap.NewNop()).DiscoverChannels(page)
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "Globo SP", channels[0].Name)
	assert.Equal(t, "Quarto", channels[1].Name)
}

func TestCleanChannelName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Globo SP", "Globo SP"},
		{"Globoplay. Globo SP, Ao vivo agora", "Globo SP"},
		{"Canal BBB 12 - Quarto do Líder", "Quarto do Líder"},
		{"GE TV, Ao vivo", "GE TV"},
		{"Assine o Globo Internacional agora", "Globo Internacional"},
		{"Multishow, Ao Vivo", "Multishow"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CleanChannelName(tc.in), "input %q", tc.in)
	}
}
