// Package enhancer enriches responses through a dependency-ordered
// pipeline of enhancers.
//
// A Pipeline is built once from a set of Enhancers. Construction
// validates names and dependencies and fixes the execution order:
// dependencies first, then higher priority, then registration order.
// Each run hands every enabled stage a copy of the current response. A
// stage that returns an error, panics, times out or breaks the response
// contract is discarded and the run continues with the previous response.
//
// Two enhancers are provided:
//
//   - MetadataEnhancer adds timestamps, host and process facts, session
//     and operation details, and custom values.
//   - TeamActivityEnhancer mines repository history for contributors,
//     related branches, open pull requests, reviewers and conflicts. It
//     caches fetched history per instance and degrades per sub-feature.
//
// Usage:
//
//	p, err := enhancer.NewPipeline([]enhancer.Enhancer{
//	    enhancer.NewMetadataEnhancer(enhancer.DefaultMetadataConfig()),
//	    enhancer.NewTeamActivityEnhancer(gitCtx, enhancer.DefaultTeamActivityConfig()),
//	})
//	if err != nil {
//	    return err
//	}
//	out := p.Run(ctx, response.Success("Committed", data), ec)
package enhancer
