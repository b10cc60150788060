package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vecfuse/internal/version"
	vecfuse "github.com/kailas-cloud/vecfuse/pkg/sdk"
)

func decodeSpec(cmd *cobra.Command, args []string) (vecfuse.PipelineSpec, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return vecfuse.PipelineSpec{}, err
	}
	var spec vecfuse.PipelineSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return vecfuse.PipelineSpec{}, fmt.Errorf("decode pipeline: %w", err)
	}
	return spec, nil
}

func validatePipelineCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "validate-pipeline [file|-]",
		Short: "Validate a search pipeline definition without storing it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := decodeSpec(cmd, args)
			if err != nil {
				return err
			}

			// Always in memory: validation never touches a shared store.
			client, err := vecfuse.New(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			info, _, err := client.Pipelines().Put(cmd.Context(), name, spec)
			if err != nil {
				return err
			}
			info.CreatedAt = nil
			return printJSON(cmd, info)
		},
	}

	cmd.Flags().StringVar(&name, "name", "pipeline", "pipeline name to validate against")
	return cmd
}

func pipelinesCmd(store *storeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipelines",
		Short: "Manage named search pipelines",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "put <name> [file|-]",
			Short: "Create or replace a pipeline",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				spec, err := decodeSpec(cmd, args[1:])
				if err != nil {
					return err
				}
				client, err := openClient(cmd.Context(), store)
				if err != nil {
					return err
				}
				defer client.Close()

				info, created, err := client.Pipelines().Put(cmd.Context(), args[0], spec)
				if err != nil {
					return err
				}
				if created {
					cmd.PrintErrf("created pipeline %s\n", info.Name)
				} else {
					cmd.PrintErrf("replaced pipeline %s\n", info.Name)
				}
				return printJSON(cmd, info)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List pipelines",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, err := openClient(cmd.Context(), store)
				if err != nil {
					return err
				}
				defer client.Close()

				infos, err := client.Pipelines().List(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, infos)
			},
		},
		&cobra.Command{
			Use:   "get <name>",
			Short: "Show a pipeline",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := openClient(cmd.Context(), store)
				if err != nil {
					return err
				}
				defer client.Close()

				info, err := client.Pipelines().Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, info)
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a pipeline",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := openClient(cmd.Context(), store)
				if err != nil {
					return err
				}
				defer client.Close()

				if err := client.Pipelines().Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted pipeline %s\n", args[0])
				return err
			},
		},
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fusectl %s\n", version.String())
		},
	}
}
