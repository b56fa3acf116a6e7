// Package stratum is the statement-execution core of a relational engine.
//
// It owns three pieces that have to agree with each other under concurrent
// access: cost-based selection of an index per table access (package
// planner), an executor that drives prepared statements to completion under
// optimistic concurrency, and a per-statement result cache keyed on global
// modification counters.
//
// Parsing, the catalog, the storage/transaction engine, and the wire protocol
// all live elsewhere; this package consumes them through the narrow
// interfaces in statement.go.
package stratum
