package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dopejs/staticenv/internal/client"
	"github.com/dopejs/staticenv/internal/config"
	"github.com/dopejs/staticenv/internal/envvar"
	"github.com/dopejs/staticenv/internal/logging"
	"github.com/dopejs/staticenv/internal/web"
)

func setTestHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	config.ResetDefaultStore()
	t.Cleanup(func() { config.ResetDefaultStore() })
	return dir
}

// resetFlags restores every flag to its default so runs don't leak into
// each other through the package-level commands.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes the root command with args and returns its combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func addTestEnvironment(t *testing.T, env envvar.Environment) envvar.Environment {
	t.Helper()
	added, err := config.AddEnvironment(env)
	if err != nil {
		t.Fatal(err)
	}
	return added
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "staticenv "+Version+"\n" {
		t.Errorf("version output = %q", out)
	}
}

func TestRootRejectsArgs(t *testing.T) {
	setTestHome(t)
	if _, err := runCLI(t, "bogus"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestConsoleSourceLocal(t *testing.T) {
	setTestHome(t)

	src, readOnly, err := consoleSource(context.Background(), "", logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if readOnly {
		t.Error("fresh store should be writable")
	}
	envs, err := src.Environments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 1 || envs[0].ID != config.ProductionID {
		t.Errorf("envs = %+v", envs)
	}

	if err := config.DefaultStore().SetReadOnly(true); err != nil {
		t.Fatal(err)
	}
	_, readOnly, err = consoleSource(context.Background(), "", logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if !readOnly {
		t.Error("read_only setting should carry into the console")
	}
}

func TestConsoleSourceRemote(t *testing.T) {
	setTestHome(t)
	store := config.DefaultStore()
	if err := store.SetReadOnly(true); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(web.NewServer(store, 0, Version, logging.Discard()).Handler())
	defer srv.Close()

	src, readOnly, err := consoleSource(context.Background(), srv.URL, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*client.Client); !ok {
		t.Errorf("source = %T, want *client.Client", src)
	}
	if !readOnly {
		t.Error("remote read_only should carry into the console")
	}
}

func TestConsoleSourceRemoteUnreachable(t *testing.T) {
	setTestHome(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := consoleSource(context.Background(), srv.URL, logging.Discard())
	if err == nil || !strings.Contains(err.Error(), "cannot reach") {
		t.Errorf("err = %v", err)
	}
}

func TestRunCompletion(t *testing.T) {
	tests := []struct {
		shell   string
		wantOut string
	}{
		{"zsh", "#compdef"},
		{"bash", "bash completion"},
		{"fish", "complete -c staticenv"},
		{"powershell", "Register-ArgumentCompleter"},
		{"invalid", "unsupported shell"}, // prints error but doesn't return error
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			out, err := runCLI(t, "completion", tt.shell)
			if err != nil {
				t.Fatalf("completion %s: %v", tt.shell, err)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("completion %s output missing %q", tt.shell, tt.wantOut)
			}
		})
	}
}

func TestCompleteEnvironments(t *testing.T) {
	setTestHome(t)
	addTestEnvironment(t, envvar.Environment{BuildID: "12", PullRequestTitle: "Dark mode"})

	names, directive := completeEnvironments(nil, nil, "")
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %d", directive)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 completions, got %v", names)
	}
	if names[0] != "production\tProduction" {
		t.Errorf("names[0] = %q", names[0])
	}
	if !strings.HasSuffix(names[1], "\tDark mode") {
		t.Errorf("names[1] = %q", names[1])
	}

	// only the first argument is an environment
	names, _ = completeEnvironments(nil, []string{"production"}, "")
	if len(names) != 0 {
		t.Errorf("expected no completions, got %v", names)
	}
}
