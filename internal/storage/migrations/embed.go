// Package migrations applies the embedded schema: the competitions
// table on PostgreSQL and the volume history table on ClickHouse.
package migrations

import "embed"

// PostgresFS holds the competition-store migrations, applied in
// filename order.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the volume-history migrations, applied in
// filename order.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
