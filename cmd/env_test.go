package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/dopejs/staticenv/internal/config"
	"github.com/dopejs/staticenv/internal/envvar"
)

func TestEnvList(t *testing.T) {
	setTestHome(t)
	if err := config.SetVariables(config.ProductionID, map[string]string{"A": "1", "B": "2"}); err != nil {
		t.Fatal(err)
	}
	addTestEnvironment(t, envvar.Environment{BuildID: "42", PullRequestTitle: "Fix header", HasFunctions: true})

	out, err := runCLI(t, "env", "list")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"ID", "Production", "default", "Fix header", "42", "yes", "2"} {
		if !strings.Contains(out, want) {
			t.Errorf("env list output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Production") > strings.Index(out, "Fix header") {
		t.Error("production should be listed first")
	}
}

func TestEnvAdd(t *testing.T) {
	setTestHome(t)

	out, err := runCLI(t, "env", "add", "--build", "7", "--branch", "feature/x", "--functions")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `Added environment "feature/x"`) {
		t.Errorf("output = %q", out)
	}

	envs := config.ListEnvironments()
	if len(envs) != 2 {
		t.Fatalf("expected 2 environments, got %d", len(envs))
	}
	added := envs[1]
	if added.BuildID != "7" || added.SourceBranch != "feature/x" || !added.HasFunctions {
		t.Errorf("added = %+v", added)
	}
	if added.ID == "" {
		t.Error("expected an assigned id")
	}

	// a build id can only be registered once
	if _, err := runCLI(t, "env", "add", "--build", "7"); err == nil {
		t.Error("expected duplicate build error")
	}
}

func TestEnvAddRequiresBuild(t *testing.T) {
	setTestHome(t)
	if _, err := runCLI(t, "env", "add", "--branch", "main"); err == nil {
		t.Error("expected error without --build")
	}
}

func TestEnvRemove(t *testing.T) {
	setTestHome(t)
	env := addTestEnvironment(t, envvar.Environment{BuildID: "9", PullRequestTitle: "Dark mode"})

	out, err := runCLI(t, "env", "rm", "dark MODE")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, env.ID) {
		t.Errorf("output = %q", out)
	}
	if _, err := config.GetEnvironment(env.ID); !errors.Is(err, config.ErrEnvironmentNotFound) {
		t.Errorf("environment still present: %v", err)
	}
}

func TestEnvRemoveProduction(t *testing.T) {
	setTestHome(t)
	_, err := runCLI(t, "env", "remove", "production")
	if !errors.Is(err, config.ErrProductionLocked) {
		t.Errorf("err = %v", err)
	}
}

func TestEnvWritesRefusedWhenReadOnly(t *testing.T) {
	setTestHome(t)
	if err := config.DefaultStore().SetReadOnly(true); err != nil {
		t.Fatal(err)
	}
	_, err := runCLI(t, "env", "add", "--build", "3")
	if !errors.Is(err, config.ErrReadOnly) {
		t.Errorf("err = %v", err)
	}
	if len(config.ListEnvironments()) != 1 {
		t.Error("nothing should be added")
	}
}

func TestFindEnvironment(t *testing.T) {
	envs := []envvar.Environment{
		{ID: "production", BuildID: envvar.ProductionBuildID},
		{ID: "a1", BuildID: "11", PullRequestTitle: "Dark mode"},
		{ID: "b2", BuildID: "12", SourceBranch: "feature/login"},
	}

	tests := []struct {
		ref  string
		want string
	}{
		{"production", "production"},
		{"Production", "production"},
		{"a1", "a1"},
		{"12", "b2"},
		{"dark mode", "a1"},
		{" feature/login ", "b2"},
	}
	for _, tt := range tests {
		got, err := findEnvironment(envs, tt.ref)
		if err != nil {
			t.Errorf("findEnvironment(%q): %v", tt.ref, err)
			continue
		}
		if got.ID != tt.want {
			t.Errorf("findEnvironment(%q) = %s, want %s", tt.ref, got.ID, tt.want)
		}
	}
}

func TestFindEnvironmentSuggestions(t *testing.T) {
	envs := []envvar.Environment{
		{ID: "production", BuildID: envvar.ProductionBuildID},
		{ID: "a1", BuildID: "11", PullRequestTitle: "Dark mode"},
	}

	_, err := findEnvironment(envs, "prod")
	if !errors.Is(err, config.ErrEnvironmentNotFound) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "did you mean Production") {
		t.Errorf("err = %v", err)
	}

	// a typo is not a subsequence but is close by edit distance
	_, err = findEnvironment(envs, "Dakr mode")
	if err == nil || !strings.Contains(err.Error(), "Dark mode") {
		t.Errorf("err = %v", err)
	}

	_, err = findEnvironment(envs, "zzzzzz")
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("err = %v", err)
	}
}
