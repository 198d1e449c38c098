package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/yukikurage/task-manager/internal/client"
)

var Version = "dev"

// app carries the client shared by every subcommand.
type app struct {
	server      string
	sessionPath string
	timeout     time.Duration
	jsonOutput  bool

	api *client.Client
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "Command line client for the task manager API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.server, "server", envOr("TASKCTL_SERVER", "http://localhost:8080"), "API base URL (env TASKCTL_SERVER)")
	flags.StringVar(&a.sessionPath, "session", envOr("TASKCTL_SESSION", client.DefaultSessionPath()), "session file (env TASKCTL_SESSION)")
	flags.DurationVar(&a.timeout, "timeout", 10*time.Second, "per-request timeout")
	flags.BoolVarP(&a.jsonOutput, "json", "j", false, "print raw JSON")

	rootCmd.AddCommand(registerCmd(a))
	rootCmd.AddCommand(loginCmd(a))
	rootCmd.AddCommand(logoutCmd(a))
	rootCmd.AddCommand(whoamiCmd(a))
	rootCmd.AddCommand(usersCmd(a))
	rootCmd.AddCommand(tasksCmd(a))

	return rootCmd
}

func (a *app) init() error {
	a.api = client.New(a.server, client.NewFileStore(a.sessionPath), client.WithTimeout(a.timeout))
	a.api.Session().OnExpired(func() {
		fmt.Fprintln(os.Stderr, "Session expired. Run `taskctl login` to sign in again.")
	})
	return a.api.Session().Init()
}

func (a *app) context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
