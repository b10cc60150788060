package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	vecfuse "github.com/kailas-cloud/vecfuse/pkg/sdk"
)

// storeFlags select where named pipelines live.
type storeFlags struct {
	redis     string
	valkey    string
	password  string
	keyPrefix string
}

func newRootCmd() *cobra.Command {
	var store storeFlags

	rootCmd := &cobra.Command{
		Use:   "fusectl",
		Short: "vecfuse command line tool",
		Long: `fusectl fuses packed hybrid query results offline, validates search
pipeline definitions and manages named pipelines stored in Redis or Valkey.

Without --redis or --valkey, named pipelines only exist for the duration
of one command.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&store.redis, "redis", "", "Redis address holding named pipelines")
	rootCmd.PersistentFlags().StringVar(&store.valkey, "valkey", "", "Valkey address holding named pipelines")
	rootCmd.PersistentFlags().StringVar(&store.password, "password", "", "database password")
	rootCmd.PersistentFlags().StringVar(&store.keyPrefix, "key-prefix", "", "key prefix of stored pipelines")
	rootCmd.MarkFlagsMutuallyExclusive("redis", "valkey")

	rootCmd.AddCommand(
		fuseCmd(&store),
		validatePipelineCmd(),
		pipelinesCmd(&store),
		versionCmd(),
	)
	return rootCmd
}

func openClient(ctx context.Context, store *storeFlags, opts ...vecfuse.Option) (*vecfuse.Client, error) {
	switch {
	case store.redis != "":
		opts = append(opts, vecfuse.WithRedis(store.redis, store.password))
	case store.valkey != "":
		opts = append(opts, vecfuse.WithValkey(store.valkey, store.password))
	}
	if store.keyPrefix != "" {
		opts = append(opts, vecfuse.WithKeyPrefix(store.keyPrefix))
	}
	return vecfuse.New(ctx, opts...)
}

// readInput reads a file argument, or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return data, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
