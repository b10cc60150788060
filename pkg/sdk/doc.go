// Package vecfuse embeds the vecfuse hybrid-search score-fusion engine.
//
// A coordinator that fanned a hybrid query out to shards hands every
// shard's packed hit list to Fuse and gets back per-shard re-sorted lists
// with one fused score per document:
//
//	client, _ := vecfuse.New(ctx, vecfuse.WithDefaults("min_max", "arithmetic_mean"))
//	defer client.Close()
//
//	res, err := client.Fuse(ctx, vecfuse.FuseInput{
//	    Shards: []vecfuse.ShardInput{{
//	        Shard: vecfuse.ShardID{Index: "products", Number: 0},
//	        Hits:  vecfuse.Pack([][]vecfuse.ScoredDoc{bm25Hits, knnHits}),
//	    }},
//	}, vecfuse.Explain())
//
// Named pipelines are stored in memory by default, or in Redis/Valkey with
// WithRedis/WithValkey:
//
//	client.Pipelines().Put(ctx, "hybrid", vecfuse.PipelineSpec{
//	    Normalization: "l2",
//	    Combination:   "harmonic_mean",
//	    Weights:       []float32{0.3, 0.7},
//	})
package vecfuse
