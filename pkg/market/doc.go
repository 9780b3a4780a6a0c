// Package market models a housing market as a bipartite matching between
// houses and households.
//
// # Overview
//
// A [Matching] holds two ordered vertex sets (houses and households) and at
// most one connection per vertex. It is always a matching in the
// graph-theoretic sense: connections only ever join a house to a household,
// and no vertex has more than one incident connection.
//
// All optimization engines work on independent copies obtained with
// [Matching.Clone]. Cloning copies only the per-vertex partner arrays; vertex
// attributes and ID indexes are shared copy-on-write and detached on the first
// structural change (adding or removing a vertex) on either copy. Connecting
// and disconnecting never touch shared state, which keeps the exhaustive search
// cheap even when it explores many hypothetical futures.
//
// # Identities
//
// Vertex IDs are non-negative integers that are unique within their side.
// [NewID] hands out process-unique IDs; loaders that read IDs from a file call
// [ReserveID] so later calls to NewID never collide with them.
//
// # Errors
//
// Structural violations are reported with sentinel errors such as
// [ErrDuplicateHouseID], [ErrHouseAlreadyMatched] or [ErrSameSide]. They are
// never recovered inside this package.
package market
