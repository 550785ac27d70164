package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/campushire/campushire/internal/identity"
)

type registerFlags struct {
	name       string
	email      string
	password   string
	role       string
	department string
	batch      string
	company    string
	jobTitle   string
	idCard     string
	server     string
}

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	flags := &registerFlags{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a campushire account",
		Long: `Create a campushire account.

Students and alumni must supply their department, batch and a scan of their
ID card; their account is reviewed before it is verified. Recruiters supply
their company and job title and are logged in immediately.

Examples:
  $ campushire register --name "Sam Rahman" --email sam@uni.edu --role student \
      --department CSE --batch 2022 --id-card ./card.png
  $ campushire register --name "Rita Ortiz" --email rita@acme.com --role recruiter \
      --company Acme --job-title "Talent Lead"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := flags.registration()
			if err != nil {
				return err
			}
			return runRegister(cmd.Context(), reg, WithServerAlias(flags.server))
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "Full name")
	cmd.Flags().StringVar(&flags.email, "email", "", "Email address (or set CAMPUSHIRE_EMAIL)")
	cmd.Flags().StringVar(&flags.password, "password", "", "Password (or set CAMPUSHIRE_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&flags.role, "role", "", "Account role: student, alumni or recruiter (will prompt if not provided)")
	cmd.Flags().StringVar(&flags.department, "department", "", "Department (students and alumni)")
	cmd.Flags().StringVar(&flags.batch, "batch", "", "Batch or graduation year (students and alumni)")
	cmd.Flags().StringVar(&flags.company, "company", "", "Company (recruiters)")
	cmd.Flags().StringVar(&flags.jobTitle, "job-title", "", "Job title (recruiters)")
	cmd.Flags().StringVar(&flags.idCard, "id-card", "", "Path to a scan of your university ID card (students and alumni)")
	cmd.Flags().StringVar(&flags.server, "server", "", "Server alias (uses the selected server if not specified)")

	return cmd
}

// registration turns the flags into a form, prompting for the role when it
// was omitted on an interactive terminal
func (f *registerFlags) registration() (*identity.Registration, error) {
	roleName := f.role
	if roleName == "" {
		if !term.IsTerminal(int(syscall.Stdin)) {
			return nil, errors.New("--role is required in non-interactive mode")
		}
		selected, err := promptRole()
		if err != nil {
			return nil, err
		}
		roleName = selected
	}

	role, err := identity.ParseRole(roleName)
	if err != nil {
		return nil, err
	}

	return &identity.Registration{
		Name:       f.name,
		Email:      f.email,
		Password:   f.password,
		Role:       role,
		Department: f.department,
		Batch:      f.batch,
		Company:    f.company,
		JobTitle:   f.jobTitle,
		IDCardPath: f.idCard,
	}, nil
}

func promptRole() (string, error) {
	prompt := promptui.Select{
		Label: "Register as",
		Items: []string{
			identity.RoleStudent.String(),
			identity.RoleAlumni.String(),
			identity.RoleRecruiter.String(),
		},
	}

	_, result, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("role selection cancelled: %w", err)
	}
	return result, nil
}

func runRegister(ctx context.Context, reg *identity.Registration, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if reg.Email == "" {
		reg.Email = os.Getenv("CAMPUSHIRE_EMAIL")
	}
	if reg.Password == "" {
		reg.Password = os.Getenv("CAMPUSHIRE_PASSWORD")
	}
	if reg.Email == "" {
		return fmt.Errorf("email is required (use --email flag or CAMPUSHIRE_EMAIL env var)")
	}
	if reg.Role == identity.RoleAdmin {
		return fmt.Errorf("admin accounts cannot be self-registered")
	}
	if reg.IDCardPath != "" {
		if _, err := os.Stat(reg.IDCardPath); err != nil {
			return fmt.Errorf("cannot read ID card: %w", err)
		}
	}

	env, err := newSessionEnv(opts...)
	if err != nil {
		return err
	}
	defer env.close()

	if reg.Password == "" {
		reg.Password, err = readPassword(env.in, env.out, "Choose a password: ")
		if err != nil {
			return err
		}
	}

	if err := reg.Validate(); err != nil {
		return fmt.Errorf("invalid registration: %w", err)
	}

	mgr := env.manager
	mgr.Bootstrap(ctx)

	fmt.Fprintf(env.out, "Registering %s as %s on %s...\n", reg.Email, reg.Role, env.server.Alias)

	res := mgr.Register(ctx, reg)
	if !res.Success {
		return errors.New("registration failed: " + res.Error)
	}

	fmt.Fprintln(env.out, "✓ Registration successful!")
	if res.Message != "" {
		fmt.Fprintf(env.out, "  %s\n", res.Message)
	}

	if !res.SessionStarted {
		fmt.Fprintln(env.out, "\nYou can run 'campushire login' once your account has been verified.")
		return nil
	}

	fmt.Fprintln(env.out, "✓ You are now logged in.")
	printUserSummary(env, mgr.State().Identity)
	return nil
}
