package serverselect

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushire/campushire/internal/cli/config"
	"github.com/campushire/campushire/internal/cli/userconfig"
)

func newSelector(t *testing.T) *Selector {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	return &Selector{
		Config: &config.Config{Servers: []config.Server{
			{URL: "https://prod.test/api", Alias: "production"},
			{URL: "https://staging.test/api", Alias: "staging"},
		}},
		Project: filepath.Join(t.TempDir(), "campushire.json"),
	}
}

func TestResolve_ByAlias(t *testing.T) {
	s := newSelector(t)

	server, err := s.Resolve("staging")
	require.NoError(t, err)
	assert.Equal(t, "https://staging.test/api", server.URL)

	_, err = s.Resolve("missing")
	assert.Error(t, err)

	_, ok, err := userconfig.Selected(s.Project)
	require.NoError(t, err)
	assert.False(t, ok, "an explicit alias does not change the selection")
}

func TestResolve_RememberedSelection(t *testing.T) {
	s := newSelector(t)
	require.NoError(t, s.Select(&s.Config.Servers[1]))

	server, err := s.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "staging", server.Alias)
}

func TestResolve_RenamedAliasFollowsURL(t *testing.T) {
	s := newSelector(t)
	require.NoError(t, userconfig.Remember(s.Project, "stage", "https://staging.test/api/"))

	server, err := s.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "staging", server.Alias)

	sel, ok, err := userconfig.Selected(s.Project)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "staging", sel.Alias)
}

func TestResolve_SingleServerIsRemembered(t *testing.T) {
	s := newSelector(t)
	require.NoError(t, userconfig.Remember(s.Project, "gone", "https://gone.test/api"))
	s.Config = &config.Config{Servers: []config.Server{{URL: "https://only.test/api", Alias: "only"}}}

	server, err := s.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "only", server.Alias)

	sel, ok, err := userconfig.Selected(s.Project)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://only.test/api", sel.URL)
}

func TestResolve_NoServers(t *testing.T) {
	s := newSelector(t)
	s.Config = &config.Config{}

	_, err := s.Resolve("")
	assert.ErrorContains(t, err, "no servers configured")
}

func TestFind(t *testing.T) {
	s := newSelector(t)

	server, err := s.Find("https://prod.test/api")
	require.NoError(t, err)
	assert.Equal(t, "production", server.Alias)

	server, err = s.Find("staging")
	require.NoError(t, err)
	assert.Equal(t, "https://staging.test/api", server.URL)

	_, err = s.Find("nowhere")
	assert.Error(t, err)
}

func TestChoices(t *testing.T) {
	s := newSelector(t)
	s.HasSession = func(server *config.Server) bool {
		return server.Alias == "production"
	}
	require.NoError(t, s.Select(&s.Config.Servers[1]))

	choices, err := s.Choices()
	require.NoError(t, err)
	require.Len(t, choices, 2)

	assert.Equal(t, "production", choices[0].Server.Alias)
	assert.True(t, choices[0].LoggedIn)
	assert.False(t, choices[0].Selected)

	assert.Equal(t, "staging", choices[1].Server.Alias)
	assert.False(t, choices[1].LoggedIn)
	assert.True(t, choices[1].Selected)
}
