package cookies

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeCookieFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadJSONCookies(t *testing.T) {
	t.Parallel()
	path := writeCookieFile(t, `[
  {"name":"GLBID","value":"abc123","domain":".globo.com","path":"/","expirationDate":1924992000,"secure":true,"httpOnly":true,"sameSite":"lax"},
  {"name":"session","value":"xyz","domain":"play.example.com","expires":1924992000},
  {"name":"","value":"dropped","domain":".globo.com"}
]`)

	params, err := Load(path, zap.NewNop())

	require.NoError(t, err)
	require.Len(t, params, 2, "nameless entries are skipped")

	glbid := params[0]
	assert.Equal(t, "GLBID", glbid.Name)
	assert.Equal(t, "abc123", glbid.Value)
	assert.Equal(t, ".globo.com", glbid.Domain)
	assert.Equal(t, "/", glbid.Path)
	assert.True(t, glbid.Secure)
	assert.True(t, glbid.HTTPOnly)
	assert.Equal(t, network.CookieSameSiteLax, glbid.SameSite)
	require.NotNil(t, glbid.Expires)
	assert.Equal(t, int64(1924992000), time.Time(*glbid.Expires).Unix())

	assert.Equal(t, "/", params[1].Path, "missing path defaults to /")
	require.NotNil(t, params[1].Expires)
}

func TestLoadNetscapeCookies(t *testing.T) {
	t.Parallel()
	path := writeCookieFile(t, `# Netscape HTTP Cookie File
# This is a generated file! Do not edit.

.globo.com	TRUE	/	TRUE	1924992000	GLBID	abc123
#HttpOnly_.globo.com	TRUE	/	FALSE	1924992000	GLBSID	hidden
play.example.com	FALSE	/live	FALSE	0	tmp	1
broken line without tabs
.globo.com	TRUE	/	TRUE	1924992000	short
`)

	params, err := Load(path, zap.NewNop())

	require.NoError(t, err)
	require.Len(t, params, 3, "malformed lines are skipped")

	assert.Equal(t, "GLBID", params[0].Name)
	assert.Equal(t, ".globo.com", params[0].Domain)
	assert.True(t, params[0].Secure)
	assert.False(t, params[0].HTTPOnly)
	require.NotNil(t, params[0].Expires)

	assert.Equal(t, "GLBSID", params[1].Name)
	assert.True(t, params[1].HTTPOnly, "#HttpOnly_ prefix is honored")
	assert.False(t, params[1].Secure)

	assert.Equal(t, "tmp", params[2].Name)
	assert.Equal(t, "/live", params[2].Path)
	assert.Nil(t, params[2].Expires, "zero expiry means a session cookie")
}

func TestLoadUnreadableFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "missing"), zap.NewNop())
	assert.ErrorContains(t, err, "cannot read cookie file")
}

func TestLoadRejectsBrokenJSON(t *testing.T) {
	t.Parallel()
	path := writeCookieFile(t, `[{"name": "unterminated"`)
	_, err := Load(path, zap.NewNop())
	assert.ErrorContains(t, err, "cannot parse JSON cookie file")
}

func TestSameSiteOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, network.CookieSameSiteStrict, sameSiteOf("Strict"))
	assert.Equal(t, network.CookieSameSiteLax, sameSiteOf("lax"))
	assert.Equal(t, network.CookieSameSiteNone, sameSiteOf("no_restriction"))
	assert.Equal(t, network.CookieSameSite(""), sameSiteOf("whatever"))
	assert.Equal(t, network.CookieSameSite(""), sameSiteOf(""))
}
