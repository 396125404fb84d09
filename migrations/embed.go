package migrations

import "embed"

// Files exposes embedded SQL migration files, one directory per driver,
// ordered lexicographically within each directory.
//
//go:embed sqlite/*.sql postgres/*.sql
var Files embed.FS
