package archive

import _ "embed"

// Schema creates the archive table; applied by the migrate_archive tool
//
//go:embed schema.sql
var Schema string
