package migrations

import "embed"

// FS holds the SQL schema migrations, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
