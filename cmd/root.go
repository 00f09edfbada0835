package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dopejs/staticenv/internal/client"
	"github.com/dopejs/staticenv/internal/config"
	"github.com/dopejs/staticenv/internal/logging"
	"github.com/dopejs/staticenv/tui"
)

var Version = "0.3.0"

// healthTimeout bounds the reachability check made before opening the
// console on a remote server.
const healthTimeout = 5 * time.Second

var rootCmd = &cobra.Command{
	Use:   "staticenv",
	Short: "Edit environment variables of a static web app",
	Long: "Open a terminal console for the environment variables of each deployment\n" +
		"environment. The local config file is edited unless --remote points at a\n" +
		"running `staticenv serve`.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runConsole,
}

func init() {
	rootCmd.Flags().String("remote", "", "base URL of a staticenv server to edit instead of the local file")
	rootCmd.Flags().Bool("read-only", false, "open the console without write permissions")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(varsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

func runConsole(cmd *cobra.Command, args []string) error {
	remote, _ := cmd.Flags().GetString("remote")
	readOnly, _ := cmd.Flags().GetBool("read-only")

	logger, closer := logging.New(config.LogPath())
	defer closer.Close()

	src, sourceReadOnly, err := consoleSource(cmd.Context(), remote, logger)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"remote":    remote,
		"read_only": readOnly || sourceReadOnly,
	}).Info("console started")

	return tui.Run(src, tui.Options{
		ReadOnly: readOnly || sourceReadOnly,
		Logger:   logger,
	})
}

// consoleSource picks the data source for the console and reports whether
// it refuses writes.
func consoleSource(ctx context.Context, remote string, logger logrus.FieldLogger) (tui.Source, bool, error) {
	if remote == "" {
		store := config.DefaultStore()
		if err := store.Load(); err != nil {
			return nil, false, err
		}
		return tui.NewStoreSource(store), store.ReadOnly(), nil
	}

	cli, err := client.New(remote)
	if err != nil {
		return nil, false, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	health, err := cli.Health(ctx)
	if err != nil {
		return nil, false, errors.Wrapf(err, "cannot reach %s", remote)
	}
	logger.WithField("version", health.Version).Debug("remote server reachable")
	return cli, health.ReadOnly, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "staticenv %s\n", Version)
	},
}
