// Package portt tracks a single investment portfolio: an append-only ledger
// of buy/sell transactions, derived positions with average cost basis, live
// price acquisition with caching and stale fallback, and a metrics engine
// that turns positions plus quotes into a point-in-time portfolio snapshot
// (market value, unrealized P&L, percent return, rolling volatility, risk
// label).
//
// The package is a library. The durable state is the transaction log and the
// symbol alias overrides; everything else (positions, quotes, snapshots) is
// recomputed on demand. See the cmd package for the command line front end.
package portt
