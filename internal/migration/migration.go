// Package migration holds the SQL schema for project databases.
package migration

import _ "embed"

// Create contains the statements that build a fresh database. It is only
// executed when the main tables don't exist yet.
//
//go:embed create-tables.sql
var Create string
