package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dopejs/staticenv/internal/envvar"
)

var envCmd = &cobra.Command{
	Use:     "env",
	Aliases: []string{"envs"},
	Short:   "Manage deployment environments",
}

var envListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List environments",
	Args:    cobra.NoArgs,
	RunE:    runEnvList,
}

var envAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a preview environment",
	Args:  cobra.NoArgs,
	RunE:  runEnvAdd,
}

var envRemoveCmd = &cobra.Command{
	Use:               "remove <env>",
	Aliases:           []string{"rm"},
	Short:             "Remove a preview environment and its variables",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeEnvironments,
	RunE:              runEnvRemove,
}

func init() {
	envAddCmd.Flags().String("build", "", "build id of the deployment (required)")
	envAddCmd.Flags().String("branch", "", "source branch")
	envAddCmd.Flags().String("pr", "", "pull request title")
	envAddCmd.Flags().String("hostname", "", "hostname the environment is served on")
	envAddCmd.Flags().Bool("functions", false, "the environment has a managed functions backend")
	envAddCmd.MarkFlagRequired("build")

	envCmd.AddCommand(envListCmd)
	envCmd.AddCommand(envAddCmd)
	envCmd.AddCommand(envRemoveCmd)
}

func runEnvList(cmd *cobra.Command, args []string) error {
	store, err := loadStore()
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "BUILD", "FUNCTIONS", "VARIABLES", "UPDATED")
	for _, e := range store.ListEnvironments() {
		vars, err := store.GetVariables(e.ID)
		if err != nil {
			return err
		}
		functions := "no"
		if e.HasFunctions {
			functions = "yes"
		}
		updated := "-"
		if !e.UpdatedAt.IsZero() {
			updated = humanize.Time(e.UpdatedAt)
		}
		t.Row(e.ID, e.DisplayName(), e.BuildID, functions, strconv.Itoa(len(vars)), updated)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

func runEnvAdd(cmd *cobra.Command, args []string) error {
	store, err := writableStore()
	if err != nil {
		return err
	}
	build, _ := cmd.Flags().GetString("build")
	branch, _ := cmd.Flags().GetString("branch")
	pr, _ := cmd.Flags().GetString("pr")
	hostname, _ := cmd.Flags().GetString("hostname")
	functions, _ := cmd.Flags().GetBool("functions")

	env, err := store.AddEnvironment(envvar.Environment{
		BuildID:          build,
		SourceBranch:     branch,
		PullRequestTitle: pr,
		Hostname:         hostname,
		HasFunctions:     functions,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added environment %q (%s)\n", env.DisplayName(), env.ID)
	return nil
}

func runEnvRemove(cmd *cobra.Command, args []string) error {
	store, err := writableStore()
	if err != nil {
		return err
	}
	env, err := findEnvironment(store.ListEnvironments(), args[0])
	if err != nil {
		return err
	}
	if err := store.DeleteEnvironment(env.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed environment %q (%s)\n", env.DisplayName(), env.ID)
	return nil
}
