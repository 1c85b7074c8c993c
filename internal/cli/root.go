// Package cli implements taskctl, a command-line client for the task list
// service.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/locvowork/tasktracker/pkg/gateway"
)

const (
	serverEnv     = "TASKCTL_SERVER"
	defaultServer = "http://localhost:8080"
)

type options struct {
	server  string
	timeout time.Duration
	retries int
}

func (o *options) client() *gateway.Client {
	retry := gateway.DefaultRetryConfig()
	retry.MaxAttempts = o.retries + 1
	return gateway.New(o.server, gateway.WithTimeout(o.timeout), gateway.WithRetry(retry))
}

// NewRootCmd builds the taskctl command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage task lists on a task tracker server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv(serverEnv)
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", server, "Base URL of the task tracker server (env "+serverEnv+")")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Per-request timeout")
	rootCmd.PersistentFlags().IntVar(&opts.retries, "retries", 2, "Retries for failed reads")

	rootCmd.AddCommand(newListsCmd(opts))
	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newTasksCmd(opts))
	rootCmd.AddCommand(newTaskCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))
	rootCmd.AddCommand(newSummaryCmd(opts))
	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
