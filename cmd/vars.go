package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize/english"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dopejs/staticenv/internal/config"
	"github.com/dopejs/staticenv/internal/envvar"
)

// maskedValue replaces values in listings unless --show is given.
const maskedValue = "••••••••"

// stdinReader is read by `vars import <env> -`. Tests can replace it.
var stdinReader io.Reader = os.Stdin

var varsCmd = &cobra.Command{
	Use:     "vars",
	Aliases: []string{"var"},
	Short:   "Read and change an environment's variables",
}

var varsListCmd = &cobra.Command{
	Use:               "list <env>",
	Aliases:           []string{"ls"},
	Short:             "List variables, values masked",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeEnvironments,
	RunE:              runVarsList,
}

var varsSetCmd = &cobra.Command{
	Use:               "set <env> <name> <value>",
	Short:             "Set one variable",
	Args:              cobra.ExactArgs(3),
	ValidArgsFunction: completeEnvironments,
	RunE:              runVarsSet,
}

var varsUnsetCmd = &cobra.Command{
	Use:               "unset <env> <name>",
	Short:             "Remove one variable",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeEnvironments,
	RunE:              runVarsUnset,
}

var varsExportCmd = &cobra.Command{
	Use:               "export <env>",
	Short:             "Write variables as dotenv, JSON or YAML",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeEnvironments,
	RunE:              runVarsExport,
}

var varsImportCmd = &cobra.Command{
	Use:   "import <env> <file>",
	Short: "Merge variables from a dotenv, JSON or YAML file",
	Long: "Merge variables from a file into an environment. The format is taken from\n" +
		"--format or the file extension. Use - to read standard input.",
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 1 {
			return nil, cobra.ShellCompDirectiveDefault
		}
		return completeEnvironments(cmd, args, toComplete)
	},
	RunE: runVarsImport,
}

func init() {
	varsListCmd.Flags().Bool("show", false, "print values in clear text")
	varsExportCmd.Flags().StringP("format", "f", string(envvar.FormatDotenv), "output format: dotenv, json or yaml")
	varsExportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	varsImportCmd.Flags().StringP("format", "f", "", "input format: dotenv, json or yaml (default from extension)")
	varsImportCmd.Flags().Bool("replace", false, "replace all variables instead of merging")

	for _, c := range []*cobra.Command{varsExportCmd, varsImportCmd} {
		c.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			out := make([]string, 0, len(envvar.Formats))
			for _, f := range envvar.Formats {
				out = append(out, string(f))
			}
			return out, cobra.ShellCompDirectiveNoFileComp
		})
	}

	varsCmd.AddCommand(varsListCmd)
	varsCmd.AddCommand(varsSetCmd)
	varsCmd.AddCommand(varsUnsetCmd)
	varsCmd.AddCommand(varsExportCmd)
	varsCmd.AddCommand(varsImportCmd)
}

// environmentVariables resolves ref and returns its variables in display order.
func environmentVariables(store *config.Store, ref string) (envvar.Environment, []envvar.Variable, error) {
	env, err := findEnvironment(store.ListEnvironments(), ref)
	if err != nil {
		return envvar.Environment{}, nil, err
	}
	kv, err := store.GetVariables(env.ID)
	if err != nil {
		return envvar.Environment{}, nil, err
	}
	return env, envvar.FromKeyValue(kv), nil
}

func runVarsList(cmd *cobra.Command, args []string) error {
	store, err := loadStore()
	if err != nil {
		return err
	}
	env, vars, err := environmentVariables(store, args[0])
	if err != nil {
		return err
	}
	show, _ := cmd.Flags().GetBool("show")

	out := cmd.OutOrStdout()
	if len(vars) == 0 {
		fmt.Fprintf(out, "No variables in %s.\n", env.DisplayName())
		return nil
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "VALUE")
	for _, v := range vars {
		value := maskedValue
		if show {
			value = v.Value
		}
		t.Row(v.Name, value)
	}
	fmt.Fprintln(out, t.Render())
	fmt.Fprintf(out, "%s in %s\n", english.Plural(len(vars), "variable", ""), env.DisplayName())
	return nil
}

func runVarsSet(cmd *cobra.Command, args []string) error {
	store, err := writableStore()
	if err != nil {
		return err
	}
	env, vars, err := environmentVariables(store, args[0])
	if err != nil {
		return err
	}
	name := strings.TrimSpace(args[1])

	// an existing name (in any case) is updated in place
	index := -1
	for i, v := range vars {
		if strings.EqualFold(v.Name, name) {
			index = i
			break
		}
	}
	if err := envvar.ValidateEntry(vars, index, name); err != nil {
		return err
	}
	if err := store.SetVariable(env.ID, name, args[2]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", name, env.DisplayName())
	return nil
}

func runVarsUnset(cmd *cobra.Command, args []string) error {
	store, err := writableStore()
	if err != nil {
		return err
	}
	env, err := findEnvironment(store.ListEnvironments(), args[0])
	if err != nil {
		return err
	}
	removed, err := store.UnsetVariable(env.ID, args[1])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("variable %q is not set in %s", args[1], env.DisplayName())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", args[1], env.DisplayName())
	return nil
}

func runVarsExport(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := envvar.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	store, err := loadStore()
	if err != nil {
		return err
	}
	_, vars, err := environmentVariables(store, args[0])
	if err != nil {
		return err
	}
	data, err := envvar.Encode(format, vars)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" || output == "-" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return errors.Wrapf(os.WriteFile(output, data, 0600), "write %s", output)
}

func runVarsImport(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	replace, _ := cmd.Flags().GetBool("replace")
	path := args[1]

	format, err := importFormat(formatFlag, path)
	if err != nil {
		return err
	}
	data, err := readImport(path)
	if err != nil {
		return err
	}
	incoming, err := envvar.Decode(format, data)
	if err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}

	store, err := writableStore()
	if err != nil {
		return err
	}
	env, current, err := environmentVariables(store, args[0])
	if err != nil {
		return err
	}

	merged := mergeVariables(current, incoming, replace)
	if err := store.SetVariables(env.ID, envvar.ToKeyValue(merged)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s into %s\n",
		english.Plural(len(incoming), "variable", ""), env.DisplayName())
	return nil
}

// importFormat honours an explicit --format, else guesses from the extension.
func importFormat(flag, path string) (envvar.Format, error) {
	if flag != "" {
		return envvar.ParseFormat(flag)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return envvar.FormatJSON, nil
	case ".yaml", ".yml":
		return envvar.FormatYAML, nil
	}
	return envvar.FormatDotenv, nil
}

func readImport(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdinReader)
		return data, errors.Wrap(err, "read stdin")
	}
	data, err := os.ReadFile(path)
	return data, errors.Wrapf(err, "read %s", path)
}

// mergeVariables overlays incoming on current. Names match
// case-insensitively and the incoming spelling wins.
func mergeVariables(current, incoming []envvar.Variable, replace bool) []envvar.Variable {
	if replace {
		return incoming
	}
	out := append([]envvar.Variable(nil), current...)
	for _, in := range incoming {
		found := false
		for i := range out {
			if strings.EqualFold(out[i].Name, in.Name) {
				out[i] = in
				found = true
				break
			}
		}
		if !found {
			out = append(out, in)
		}
	}
	return out
}
