package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/campushire/campushire/internal/identity"
	"github.com/campushire/campushire/internal/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password, serverAlias string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a campushire server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), email, password, WithServerAlias(serverAlias))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set CAMPUSHIRE_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set CAMPUSHIRE_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses the selected server if not specified)")

	return cmd
}

func runLogin(ctx context.Context, email, password string, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("CAMPUSHIRE_EMAIL")
	}
	if password == "" {
		password = os.Getenv("CAMPUSHIRE_PASSWORD")
	}

	// Validate email
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or CAMPUSHIRE_EMAIL env var)")
	}

	env, err := newSessionEnv(opts...)
	if err != nil {
		return err
	}
	defer env.close()

	// Prompt for password if not provided via flag or env var
	if password == "" {
		password, err = readPassword(env.in, env.out, "Password: ")
		if err != nil {
			return err
		}
	}

	mgr := env.manager
	mgr.Bootstrap(ctx)

	fmt.Fprintf(env.out, "Logging in to %s (%s)...\n", env.server.Alias, env.server.URL)

	res := mgr.Login(ctx, email, password)
	if !res.Success {
		return errors.New("login failed: " + res.Error)
	}

	user := mgr.State().Identity
	fmt.Fprintln(env.out, "✓ Login successful!")
	printUserSummary(env, user)

	return nil
}

// printUserSummary prints who is logged in and any account restrictions
func printUserSummary(env *sessionEnv, user *identity.User) {
	fmt.Fprintf(env.out, "  User: %s (%s)\n", user.Name, user.Email)
	fmt.Fprintf(env.out, "  Role: %s\n", user.Role)

	mgr := env.manager
	if mgr.IsBlocked() {
		fmt.Fprintln(env.out, "⚠ Your account has been blocked. Contact an administrator.")
	}
	if mgr.HasAnyRole(identity.RoleStudent, identity.RoleAlumni) && !mgr.IsVerified() {
		fmt.Fprintln(env.out, "⚠ Your account is pending verification.")
	}
}

// requireSession bootstraps the stored session and fails if nobody is logged in
func requireSession(ctx context.Context, env *sessionEnv) (*session.State, error) {
	env.manager.Bootstrap(ctx)

	st := env.manager.State()
	if !st.Authenticated() {
		return nil, fmt.Errorf("not logged in to %s. Please run 'campushire login' first", env.server.Alias)
	}
	return &st, nil
}
