// Package response defines the enriched result envelope and the helpers
// callers use to compose results.
//
// A Response carries a status, a message, free-form data and caller
// context. Enhancers add metadata, suggestions, risks and a team activity
// block; suggestions and risks only ever grow.
//
//	r := response.Success("Branch created", map[string]any{"branch": "feature/auth"})
//	r.AddSuggestion("push", "Push the branch to origin", "medium")
//
// The package also converts to and from the flat legacy result shape,
// merges and filters responses, times operations and validates responses
// against a Schema.
package response
