// Package pkg provides the core libraries for homematch.
//
// # Overview
//
// Homematch improves the allocation of social housing. A market is a set of
// houses and households connected by a partial one-to-one matching; a scorer
// rates how well a household fits a house. The libraries rewire the
// unmatched part of a market so that the total score grows, or move matched
// households around in exchange rings that leave every participant strictly
// better off. The pkg directory is organized into four main areas:
//
//  1. [market], [score], [tree] - Domain model and scoring
//  2. [rewire], [assign], [exchange] - Optimization engines
//  3. [marketdoc], [ingest], [render] - Serialization, import and output
//  4. [pipeline], [cache], [store], [config] - Orchestration and infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	Registry export (CSV) or market document (JSON)
//	         ↓
//	    [ingest] / [marketdoc] (load a market.Matching)
//	         ↓
//	    [pipeline] (pick engine, cache, record run)
//	         ↓
//	    [rewire] | [assign] | [exchange]
//	         ↓
//	    improved market document + score.Report
//
// # Quick Start
//
// Rewire every free vertex with the exhaustive optimizer:
//
//	m := market.New()
//	_ = m.AddHouse(market.House{ID: 1, Rent: 500, Rooms: 2})
//	_ = m.AddHousehold(market.Household{ID: 11, Income: 30000, Members: 2})
//
//	o := &rewire.Optimizer{Scorer: score.NewFit()}
//	out, report, err := o.OptimizeAvailable(ctx, m)
//
// Markets too large for exhaustive search go to the assignment engine:
//
//	out, report, err := assign.Improve(ctx, m, scorer, assign.Options{},
//	    m.HouseholdlessHouses(), m.HouselessHouseholds())
//
// Pareto-improving exchanges among matched households:
//
//	e := &exchange.Engine{Scorer: scorer}
//	out, stats, err := e.Run(ctx, m)
//
// # Main Packages
//
// ## Domain
//
// [market] - The bipartite matching of houses and households with
// copy-on-write clones. Sentinel errors report duplicate IDs, missing
// vertices and conflicting connections.
//
// [score] - The Scorer interface with table and attribute-based fit scorers,
// the Evaluator that totals a matching and the Report describing an
// optimization pass.
//
// [tree] - A generic ordered tree used to enumerate injective assignments.
//
// ## Engines
//
// [rewire] - Exhaustive search over every way to pair the free vertices.
// First-level branches run in parallel.
//
// [assign] - Maximum-weight perfect matching via successive shortest paths
// with vertex prices. Unequal sides are padded with dummy vertices.
//
// [exchange] - Strict improvement rings over the household preference graph
// of the matched part of a market.
//
// ## Infrastructure
//
// [pipeline] - Load → optimize → cache → record, shared by CLI and API.
// [pipeline.Classify] maps engine errors to [errors] codes.
//
// [cache] - Result cache with file, Redis and null backends.
//
// [store] - Run history with MongoDB, memory and null backends.
//
// [config] - TOML configuration with defaults.
//
// [observability] - Hooks for metrics on optimizations, cache access and
// HTTP requests.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/rewire/...             # Specific package
//
// [market]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/market
// [score]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/score
// [tree]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/tree
// [rewire]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/rewire
// [assign]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/assign
// [exchange]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/exchange
// [marketdoc]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/marketdoc
// [ingest]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/ingest
// [render]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/pipeline
// [pipeline.Classify]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/pipeline#Classify
// [errors]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/errors
// [cache]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/store
// [config]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/homematch/pkg/observability
package pkg
