package definition

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/aretw0/canvass/pkg/domain"
)

// Loader implements ports.CatalogLoader over a directory of survey documents
// (*.yaml, *.yml, *.json), one survey per file.
type Loader struct {
	fsys fs.FS
	root string
}

// NewLoader reads surveys from a directory on disk.
func NewLoader(dir string) *Loader {
	return &Loader{fsys: os.DirFS(dir), root: "."}
}

// NewFSLoader reads surveys from root inside fsys (e.g. an embed.FS).
func NewFSLoader(fsys fs.FS, root string) *Loader {
	if root == "" {
		root = "."
	}
	return &Loader{fsys: fsys, root: root}
}

// IsDocument reports whether name has a survey document extension.
func IsDocument(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// Surveys parses every document under the root, in lexical file order.
// A document without an id takes its file name (without extension).
func (l *Loader) Surveys() ([]*domain.Survey, error) {
	entries, err := fs.ReadDir(l.fsys, l.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey directory: %w", err)
	}

	var surveys []*domain.Survey
	for _, entry := range entries {
		if entry.IsDir() || !IsDocument(entry.Name()) {
			continue
		}
		name := path.Join(l.root, entry.Name())
		data, err := fs.ReadFile(l.fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		survey, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if survey.ID == "" {
			survey.ID = strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		}
		surveys = append(surveys, survey)
	}
	return surveys, nil
}

// Load parses the directory and freezes the surveys into a catalog.
func (l *Loader) Load(ctx context.Context) (*domain.Catalog, error) {
	surveys, err := l.Surveys()
	if err != nil {
		return nil, err
	}
	return domain.NewCatalog(surveys...)
}

// LoadFile parses a single document from disk.
func LoadFile(name string) (*domain.Survey, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	survey, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if survey.ID == "" {
		base := path.Base(strings.ReplaceAll(name, `\`, "/"))
		survey.ID = strings.TrimSuffix(base, path.Ext(base))
	}
	return survey, nil
}
