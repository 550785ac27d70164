package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/campushire/campushire/internal/cli/auth"
	"github.com/campushire/campushire/internal/cli/config"
)

// serverRow returns the whitespace-separated fields of the listing row for alias
func serverRow(t *testing.T, listing, alias string) []string {
	t.Helper()
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == alias {
			return fields
		}
	}
	t.Fatalf("no row for %q in:\n%s", alias, listing)
	return nil
}

// TestSelectServer_ListAndSelect tests that the listing marks stored sessions
// and follows the selection
func TestSelectServer_ListAndSelect(t *testing.T) {
	tempDir := chdirTemp(t)
	t.Setenv("HOME", t.TempDir())
	keyring.MockInit()

	cfg := &config.Config{Servers: []config.Server{
		{URL: "https://prod.test/api", Alias: "production"},
		{URL: "https://staging.test/api", Alias: "staging"},
	}}
	if err := config.Save(filepath.Join(tempDir, config.ConfigFileName), cfg); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	if err := auth.NewKeyringStore("https://prod.test/api").Set(context.Background(), auth.TokenKey, testToken); err != nil {
		t.Fatalf("failed to store token: %v", err)
	}

	var out bytes.Buffer
	if err := runListServers(&out); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if row := serverRow(t, out.String(), "production"); row[2] != "stored" || row[3] != "-" {
		t.Errorf("unexpected production row: %v", row)
	}
	if row := serverRow(t, out.String(), "staging"); row[2] != "none" || row[3] != "-" {
		t.Errorf("unexpected staging row: %v", row)
	}

	out.Reset()
	if err := runSelectServer(&out, "https://staging.test/api"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if !strings.Contains(out.String(), "Selected server: staging (https://staging.test/api)") {
		t.Errorf("unexpected output: %s", out.String())
	}
	if !strings.Contains(out.String(), "campushire login") {
		t.Errorf("expected a login hint for a server without a session: %s", out.String())
	}

	out.Reset()
	if err := runListServers(&out); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if row := serverRow(t, out.String(), "staging"); row[3] != "*" {
		t.Errorf("expected staging to be selected: %v", row)
	}

	out.Reset()
	if err := runSelectServer(&out, "production"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if !strings.Contains(out.String(), "stored session") {
		t.Errorf("expected the stored session to be reported: %s", out.String())
	}
}

// TestSelectServer_Unknown tests selecting a server that is not configured
func TestSelectServer_Unknown(t *testing.T) {
	tempDir := chdirTemp(t)
	t.Setenv("HOME", t.TempDir())

	cfg := &config.Config{Servers: []config.Server{{URL: "https://prod.test/api", Alias: "production"}}}
	if err := config.Save(filepath.Join(tempDir, config.ConfigFileName), cfg); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	err := runSelectServer(&bytes.Buffer{}, "nowhere")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}
