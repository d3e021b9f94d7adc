// Package migrations embeds the alarm journal schema into the binary.
package migrations

import "embed"

// FS holds every *.up.sql migration at its root.
//
//go:embed *.sql
var FS embed.FS
