// Package appfs embeds the static assets shipped with the binaries.
package appfs

import "embed"

//go:embed all:templates seed
var FS embed.FS

const (
	EmailTemplatesDir = "templates/email"
	ForumSeedFile     = "seed/forum_posts.json"
)
