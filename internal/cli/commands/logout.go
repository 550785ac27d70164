package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session for a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(WithServerAlias(serverAlias))
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses the selected server if not specified)")

	return cmd
}

// runLogout does not contact the server; it only clears local state
func runLogout(opts ...Option) error {
	env, err := newSessionEnv(opts...)
	if err != nil {
		return err
	}
	defer env.close()

	env.manager.Logout()

	fmt.Fprintf(env.out, "✓ Logged out of %s (%s)\n", env.server.Alias, env.server.URL)
	return nil
}
