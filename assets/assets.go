// Package assets embeds the static files shipped with the binaries.
package assets

import "embed"

// FS holds email templates and the common passwords list.
//
//go:embed all:templates common-passwords.txt.gz
var FS embed.FS

const (
	EmailTemplatesDir   = "templates/email"
	CommonPasswordsPath = "common-passwords.txt.gz"
)
