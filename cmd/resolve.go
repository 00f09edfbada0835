package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/dopejs/staticenv/internal/config"
	"github.com/dopejs/staticenv/internal/envvar"
)

// maxSuggestions caps the "did you mean" list.
const maxSuggestions = 3

// loadStore returns the default store, surfacing load errors that
// DefaultStore alone would swallow.
func loadStore() (*config.Store, error) {
	store := config.DefaultStore()
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

// writableStore is loadStore for commands that change variables.
func writableStore() (*config.Store, error) {
	store, err := loadStore()
	if err != nil {
		return nil, err
	}
	if store.ReadOnly() {
		return nil, fmt.Errorf("%w (settings.read_only is set in %s)", config.ErrReadOnly, store.Path())
	}
	return store, nil
}

// findEnvironment resolves ref as an id, a build id or a display name, in
// that order. Names compare case-insensitively.
func findEnvironment(envs []envvar.Environment, ref string) (envvar.Environment, error) {
	ref = strings.TrimSpace(ref)
	for _, e := range envs {
		if e.ID == ref {
			return e, nil
		}
	}
	for _, e := range envs {
		if e.BuildID == ref {
			return e, nil
		}
	}
	for _, e := range envs {
		if strings.EqualFold(e.DisplayName(), ref) {
			return e, nil
		}
	}

	msg := fmt.Sprintf("environment %q not found", ref)
	if s := suggestEnvironments(envs, ref); len(s) > 0 {
		msg += fmt.Sprintf("; did you mean %s?", strings.Join(s, ", "))
	}
	return envvar.Environment{}, fmt.Errorf("%s: %w", msg, config.ErrEnvironmentNotFound)
}

// suggestEnvironments ranks display names and ids close to ref. Names that
// contain ref as a subsequence come first, then near misses by edit distance.
func suggestEnvironments(envs []envvar.Environment, ref string) []string {
	if ref == "" {
		return nil
	}
	targets := make([]string, 0, len(envs)*2)
	for _, e := range envs {
		targets = append(targets, e.DisplayName())
		if !strings.EqualFold(e.ID, e.DisplayName()) {
			targets = append(targets, e.ID)
		}
	}

	ranks := fuzzy.RankFindFold(ref, targets)
	sort.Sort(ranks)

	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] && len(out) < maxSuggestions {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, r := range ranks {
		add(r.Target)
	}
	if len(out) == 0 {
		lower := strings.ToLower(ref)
		limit := len(lower)/3 + 1
		for _, t := range targets {
			if fuzzy.LevenshteinDistance(lower, strings.ToLower(t)) <= limit {
				add(t)
			}
		}
	}
	return out
}

// completeEnvironments offers environment ids and names for the first
// positional argument.
func completeEnvironments(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	store, err := loadStore()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, e := range store.ListEnvironments() {
		out = append(out, fmt.Sprintf("%s\t%s", e.ID, e.DisplayName()))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
