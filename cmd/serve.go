package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dopejs/staticenv/internal/config"
	"github.com/dopejs/staticenv/internal/daemon"
	"github.com/dopejs/staticenv/internal/logging"
	"github.com/dopejs/staticenv/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the variables API on 127.0.0.1",
	Long: "Start an HTTP JSON API over the local config file, bound to 127.0.0.1.\n" +
		"Consoles on other terminals connect with `staticenv --remote`.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background server",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if err := daemon.Stop(); err != nil {
			if errors.Is(err, daemon.ErrNotRunning) {
				fmt.Fprintln(out, "Server is not running.")
				return nil
			}
			return err
		}
		fmt.Fprintln(out, "Server stopped.")
		return nil
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show background server status",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if pid, running := daemon.IsRunning(); running {
			fmt.Fprintf(out, "Server is running (PID %d) on http://127.0.0.1:%d\n", pid, config.GetWebPort())
			return
		}
		fmt.Fprintln(out, "Server is not running.")
	},
}

var serveEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Install the server as a per-user system service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := daemon.EnableService(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed %s service.\n", daemon.ServiceName)
		return nil
	},
}

var serveDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Uninstall the system service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := daemon.DisableService(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s service.\n", daemon.ServiceName)
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, fmt.Sprintf("port to listen on (default settings.web_port or %d)", config.DefaultWebPort))
	serveCmd.Flags().BoolP("daemon", "d", false, "run in the background")
	serveCmd.AddCommand(serveStopCmd)
	serveCmd.AddCommand(serveStatusCmd)
	serveCmd.AddCommand(serveEnableCmd)
	serveCmd.AddCommand(serveDisableCmd)
}

// servePort returns --port when given, else the configured port.
func servePort(cmd *cobra.Command) int {
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		return port
	}
	return config.GetWebPort()
}

func runServe(cmd *cobra.Command, args []string) error {
	port := servePort(cmd)
	if daemon.IsChild() {
		return runServer(cmd, port)
	}
	if pid, running := daemon.IsRunning(); running {
		fmt.Fprintf(cmd.OutOrStdout(), "Server already running (PID %d).\n", pid)
		return nil
	}
	if background, _ := cmd.Flags().GetBool("daemon"); background {
		return startDaemon(cmd, port)
	}
	return runServer(cmd, port)
}

func runServer(cmd *cobra.Command, port int) error {
	logger, closer := logging.New(config.LogPath())
	defer closer.Close()

	store, err := loadStore()
	if err != nil {
		return err
	}
	srv := web.NewServer(store, port, Version, logger)
	if !daemon.IsChild() {
		fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (ctrl+c to stop)\n", srv.Addr())
	}

	if err := daemon.WritePid(os.Getpid()); err != nil {
		logger.WithError(err).Warn("cannot write pid file")
	}
	defer daemon.RemovePid()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		logger.WithField("signal", sig.String()).Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func startDaemon(cmd *cobra.Command, port int) error {
	exe, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "cannot determine executable path")
	}
	if err := os.MkdirAll(config.ConfigDirPath(), 0755); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	logFile, err := os.OpenFile(config.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrap(err, "cannot open log file")
	}
	defer logFile.Close()

	child := exec.Command(exe, "serve", "--port", strconv.Itoa(port))
	child.Env = append(os.Environ(), daemon.ChildEnv+"=1")
	child.Stdout = logFile
	child.Stderr = logFile
	child.SysProcAttr = daemon.SysProcAttr()
	if err := child.Start(); err != nil {
		return errors.Wrap(err, "failed to start server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := web.WaitForReady(ctx, fmt.Sprintf("127.0.0.1:%d", port)); err != nil {
		return errors.Wrap(err, "server started but did not become ready")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Server started in background (PID %d) on http://127.0.0.1:%d\n", child.Process.Pid, port)
	return nil
}
