package preflight

import (
	"context"

	"teko/internal/config"
	"teko/internal/services/discogs"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Pinger is satisfied by the collection store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunAll executes every check that applies to cfg. A nil catalog means the
// Discogs client could not be built and is reported as missing credentials;
// a nil store skips the database check.
func RunAll(ctx context.Context, cfg *config.Config, catalog discogs.Catalog, store Pinger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if store != nil {
		results = append(results, CheckDatabase(ctx, cfg.DatabasePath(), store))
	}
	results = append(results, CheckDiscogs(ctx, cfg, catalog))
	results = append(results, CheckVision(cfg))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
