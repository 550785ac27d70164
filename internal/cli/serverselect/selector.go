// Package serverselect decides which configured server a command talks to
// and remembers the choice per project.
package serverselect

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog/log"

	"github.com/campushire/campushire/internal/cli/config"
	"github.com/campushire/campushire/internal/cli/userconfig"
)

// Choice is one configured server as shown to the user
type Choice struct {
	Server   *config.Server
	Selected bool
	// LoggedIn means a credential is stored for the server. It is not
	// checked against the API.
	LoggedIn bool
}

// Selector resolves servers for the project config at Project
type Selector struct {
	Config  *config.Config
	Project string

	// HasSession reports whether a credential is stored for a server.
	// Optional; without it no server is shown as logged in.
	HasSession func(server *config.Server) bool
}

// Find looks a server up by alias, then by URL
func (s *Selector) Find(aliasOrURL string) (*config.Server, error) {
	if server, err := s.Config.GetServerByAlias(aliasOrURL); err == nil {
		return server, nil
	}
	if server, err := s.Config.GetServerByURL(aliasOrURL); err == nil {
		return server, nil
	}
	return nil, fmt.Errorf("server '%s' not found in %s", aliasOrURL, config.ConfigFileName)
}

// Current returns the remembered selection if it still matches a configured
// server. A stale selection is forgotten.
func (s *Selector) Current() (*config.Server, error) {
	sel, ok, err := userconfig.Selected(s.Project)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	if !ok {
		return nil, nil
	}

	if server, err := s.Config.GetServerByAlias(sel.Alias); err == nil && server.URL == sel.URL {
		return server, nil
	}
	// The alias may have been renamed; the URL is what the credential is tied to
	if server, err := s.Config.GetServerByURL(sel.URL); err == nil {
		s.remember(server)
		return server, nil
	}

	log.Debug().Str("alias", sel.Alias).Str("url", sel.URL).Msg("Selected server no longer configured")
	if err := userconfig.Forget(s.Project); err != nil {
		log.Warn().Err(err).Msg("Failed to clear selected server")
	}
	return nil, nil
}

// Select remembers server as the project's selection
func (s *Selector) Select(server *config.Server) error {
	return userconfig.Remember(s.Project, server.Alias, server.URL)
}

// Resolve picks the server for a command: the alias flag, else the
// remembered selection, else the only configured server, else a prompt.
// Automatic and prompted picks are remembered.
func (s *Selector) Resolve(alias string) (*config.Server, error) {
	if alias != "" {
		return s.Config.GetServerByAlias(alias)
	}

	current, err := s.Current()
	if err != nil {
		return nil, err
	}
	if current != nil {
		return current, nil
	}

	var server *config.Server
	switch len(s.Config.Servers) {
	case 0:
		return nil, fmt.Errorf("no servers configured in %s. Run 'campushire init <api-url>' first", config.ConfigFileName)
	case 1:
		server = &s.Config.Servers[0]
	default:
		server, err = s.Prompt()
		if err != nil {
			return nil, err
		}
	}

	s.remember(server)
	return server, nil
}

// Choices lists every configured server with its selection and session
// markers, in config order
func (s *Selector) Choices() ([]Choice, error) {
	current, err := s.Current()
	if err != nil {
		return nil, err
	}

	choices := make([]Choice, len(s.Config.Servers))
	for i := range s.Config.Servers {
		server := &s.Config.Servers[i]
		choices[i] = Choice{
			Server:   server,
			Selected: current != nil && current.Alias == server.Alias,
			LoggedIn: s.HasSession != nil && s.HasSession(server),
		}
	}
	return choices, nil
}

// Prompt asks the user to pick a server, starting on the current selection
func (s *Selector) Prompt() (*config.Server, error) {
	choices, err := s.Choices()
	if err != nil {
		return nil, err
	}
	if len(choices) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", config.ConfigFileName)
	}

	cursor := 0
	for i, c := range choices {
		if c.Selected {
			cursor = i
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   `> {{ .Server.Alias | cyan }} ({{ .Server.URL }}){{ if .LoggedIn }} {{ "logged in" | green }}{{ end }}`,
		Inactive: `  {{ .Server.Alias }} ({{ .Server.URL }}){{ if .LoggedIn }} {{ "logged in" | faint }}{{ end }}`,
		Selected: `{{ .Server.Alias | green }} ({{ .Server.URL }})`,
	}

	prompt := promptui.Select{
		Label:     "Select a server",
		Items:     choices,
		Templates: templates,
		Size:      10,
		CursorPos: cursor,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}
	return choices[index].Server, nil
}

func (s *Selector) remember(server *config.Server) {
	if err := s.Select(server); err != nil {
		log.Warn().Err(err).Msg("Failed to save selected server")
	}
}
