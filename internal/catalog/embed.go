package catalog

import (
	"embed"
	"io/fs"
)

//go:embed templates
var embedded embed.FS

// Default returns the catalog of transform templates that ship with the
// module.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}
