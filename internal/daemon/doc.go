// Package daemon hosts the long-running redub process: it enforces
// single-instance execution, owns the queue store and the session engine,
// refreshes throughput statistics, and serves the HTTP API.
package daemon
