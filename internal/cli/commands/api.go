package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/campushire/campushire/internal/cli/client"
)

// NewAPICmd creates the api command
func NewAPICmd() *cobra.Command {
	var data, serverAlias string

	cmd := &cobra.Command{
		Use:   "api <METHOD> <path>",
		Short: "Send an authenticated request to the campushire API",
		Long: `Send an authenticated request to the campushire API and print the
response body.

Examples:
  $ campushire api GET /me
  $ campushire api POST /jobs --data '{"title":"Backend Intern"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAPI(cmd.Context(), args[0], args[1], data, WithServerAlias(serverAlias))
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses the selected server if not specified)")

	return cmd
}

func runAPI(ctx context.Context, method, path, data string, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	method = strings.ToUpper(method)
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("unsupported method '%s'", method)
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var body []byte
	if data != "" {
		if !json.Valid([]byte(data)) {
			return errors.New("--data must be valid JSON")
		}
		body = []byte(data)
	}

	env, err := newSessionEnv(opts...)
	if err != nil {
		return err
	}
	defer env.close()

	if _, err := requireSession(ctx, env); err != nil {
		return err
	}

	resp, err := env.client.Raw(ctx, method, path, body)
	if err != nil {
		if client.IsUnauthorized(err) {
			// The session manager has already logged out
			return fmt.Errorf("session expired. Please run 'campushire login' again")
		}
		return fmt.Errorf("request failed: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, resp, "", "  "); err != nil {
		// Not JSON, print as is
		_, err = env.out.Write(resp)
		return err
	}
	pretty.WriteByte('\n')
	_, err = pretty.WriteTo(env.out)
	return err
}
