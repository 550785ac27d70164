package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context(), WithServerAlias(serverAlias))
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses the selected server if not specified)")

	return cmd
}

func runWhoami(ctx context.Context, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := newSessionEnv(opts...)
	if err != nil {
		return err
	}
	defer env.close()

	st, err := requireSession(ctx, env)
	if err != nil {
		return err
	}
	user := st.Identity

	w := tabwriter.NewWriter(env.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SERVER\t%s (%s)\n", env.server.Alias, env.server.URL)
	fmt.Fprintf(w, "ID\t%s\n", user.ID)
	fmt.Fprintf(w, "NAME\t%s\n", user.Name)
	fmt.Fprintf(w, "EMAIL\t%s\n", user.Email)
	fmt.Fprintf(w, "ROLE\t%s\n", user.Role)
	fmt.Fprintf(w, "VERIFIED\t%t\n", user.IsVerified)
	fmt.Fprintf(w, "BLOCKED\t%t\n", user.IsBlocked)
	return w.Flush()
}
