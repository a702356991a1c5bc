// Package config resolves enrich configuration from layered sources.
//
// Precedence, highest first:
//  1. Command-line flags (ResolveWithFlags)
//  2. Environment variables (ENRICH_TEAM_WINDOW_DAYS for "team.window_days")
//  3. Local config (.enrich.yaml in the git root)
//  4. Global config (~/.config/enrich/config.yaml)
//  5. Built-in defaults
//
// Config files are YAML. Nested mappings become dotted keys:
//
//	team:
//	  window_days: 14
//	  conflicts: false
//	pr:
//	  provider: gh
//
// Every resolved value remembers its Source, so an invalid value can be
// reported together with where it came from:
//
//	resolved := config.NewResolver(config.DefaultResolverConfig()).Resolve()
//	settings, err := config.Parse(resolved)
//	if err != nil {
//	    return err // e.g. team.cache_ttl="soon" (from env): want a duration
//	}
//	pipelineCfg := settings.TeamActivityConfig()
//
// SaveConfig writes single keys back to either file for `enrich config set`.
package config
