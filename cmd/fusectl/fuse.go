package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	vecfuse "github.com/kailas-cloud/vecfuse/pkg/sdk"
)

func fuseCmd(store *storeFlags) *cobra.Command {
	var (
		pipeline      string
		normalization string
		combination   string
		rankConstant  int
		weights       []float32
		from          int
		explain       bool
	)

	cmd := &cobra.Command{
		Use:   "fuse [file|-]",
		Short: "Fuse packed per-shard hybrid query results",
		Long: `Read a fusion request (shards with packed hit lists and an optional
fetch phase) as JSON and print the fused result.

Without --pipeline or technique flags the request is fused with min_max
normalization and arithmetic_mean combination.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			var in vecfuse.FuseInput
			if err := json.Unmarshal(data, &in); err != nil {
				return fmt.Errorf("decode request: %w", err)
			}

			client, err := openClient(cmd.Context(), store)
			if err != nil {
				return err
			}
			defer client.Close()

			var opts []vecfuse.FuseOption
			if pipeline != "" {
				opts = append(opts, vecfuse.UsePipeline(pipeline))
			}
			if normalization != "" || combination != "" || weights != nil {
				opts = append(opts, vecfuse.WithTechniques(normalization, combination, weights...))
			}
			if rankConstant != 0 {
				opts = append(opts, vecfuse.WithRankConstant(rankConstant))
			}
			if from != 0 {
				opts = append(opts, vecfuse.From(from))
			}
			if explain {
				opts = append(opts, vecfuse.Explain())
			}

			res, err := client.Fuse(cmd.Context(), in, opts...)
			if err != nil {
				if kind := vecfuse.ErrorKind(err); kind != "" {
					return fmt.Errorf("%s: %w", kind, err)
				}
				return err
			}
			return printJSON(cmd, res)
		},
	}

	cmd.Flags().StringVar(&pipeline, "pipeline", "", "named pipeline to fuse with")
	cmd.Flags().StringVar(&normalization, "normalization", "", "inline normalization technique (min_max, l2, z_score, rrf)")
	cmd.Flags().StringVar(&combination, "combination", "", "inline combination technique (arithmetic_mean, geometric_mean, harmonic_mean, sum)")
	cmd.Flags().IntVar(&rankConstant, "rank-constant", 0, "rank constant of inline rrf normalization")
	cmd.Flags().Float32SliceVar(&weights, "weights", nil, "per-sub-query weights")
	cmd.Flags().IntVar(&from, "from", 0, "global pagination offset")
	cmd.Flags().BoolVar(&explain, "explain", false, "include per-document explanation trails")
	cmd.MarkFlagsMutuallyExclusive("pipeline", "normalization")
	cmd.MarkFlagsMutuallyExclusive("pipeline", "combination")

	return cmd
}
