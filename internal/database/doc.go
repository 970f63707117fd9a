// Package database provides connection pool management for the Postgres
// sink holding the aggregated wide rows and the business-info lookup
// table.
package database
