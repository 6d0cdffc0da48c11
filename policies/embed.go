// Package policies embeds the built-in classification scripts. Select one
// with a "builtin:" policy path, e.g. "builtin:strict".
package policies

import "embed"

//go:embed *.risor
var FS embed.FS
