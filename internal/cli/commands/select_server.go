package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/campushire/campushire/internal/cli/config"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "select-server [alias-or-url]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands in this project.

If no param is provided, an interactive prompt will be shown. Servers you
have a stored session for are marked as logged in.

Examples:
  $ campushire select-server                              # Interactive selection
  $ campushire select-server server-1                     # Select by alias
  $ campushire select-server https://hire.example.edu/api # Select by URL
  $ campushire select-server --list                       # Show servers and sessions`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return runListServers(cmd.OutOrStdout())
			}
			var aliasOrURL string
			if len(args) > 0 {
				aliasOrURL = args[0]
			}
			return runSelectServer(cmd.OutOrStdout(), aliasOrURL)
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List configured servers instead of selecting one")

	return cmd
}

func runSelectServer(out io.Writer, aliasOrURL string) error {
	selector, err := loadSelector()
	if err != nil {
		return err
	}

	var server *config.Server
	if aliasOrURL != "" {
		server, err = selector.Find(aliasOrURL)
	} else {
		server, err = selector.Prompt()
	}
	if err != nil {
		return err
	}

	if err := selector.Select(server); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Fprintf(out, "Selected server: %s (%s)\n", server.Alias, server.URL)
	if selector.HasSession(server) {
		fmt.Fprintln(out, "✓ You have a stored session on this server.")
	} else {
		fmt.Fprintln(out, "Run 'campushire login' to sign in.")
	}
	return nil
}

func runListServers(out io.Writer) error {
	selector, err := loadSelector()
	if err != nil {
		return err
	}

	choices, err := selector.Choices()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ALIAS\tURL\tSESSION\tSELECTED")
	for _, c := range choices {
		session := "none"
		if c.LoggedIn {
			session = "stored"
		}
		selected := "-"
		if c.Selected {
			selected = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Server.Alias, c.Server.URL, session, selected)
	}
	return w.Flush()
}
