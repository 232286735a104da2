package sql

import (
	"embed"
)

// Migrations holds per-dialect DDL under migrations/<dialect>/NNN_name.sql.
//
//go:embed migrations
var Migrations embed.FS

//go:embed queries/summary.sql
var Summary string

//go:embed queries/distribution.sql
var Distribution string
