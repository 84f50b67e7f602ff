// Package surveys embeds the built-in survey catalog.
package surveys

import (
	"embed"

	"github.com/aretw0/canvass/pkg/adapters/definition"
)

//go:embed *.yaml
var files embed.FS

// Loader returns a catalog loader over the embedded surveys.
func Loader() *definition.Loader {
	return definition.NewFSLoader(files, ".")
}
