package refdata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
)

// ErrTableNotFound is returned by a Source that does not hold the table.
var ErrTableNotFound = errors.New("table not found")

// TableRef identifies one table of one skill.
type TableRef struct {
	Skill  string
	Table  string
	Format Format
}

// File returns the file name of the referenced table.
func (r TableRef) File() string {
	return TableSchema{Name: r.Table, Format: r.Format}.File()
}

// Source returns the raw content of reference tables.
type Source interface {
	Open(ctx context.Context, ref TableRef) ([]byte, error)
}

// EmbeddedSource serves each skill's tables from its own filesystem,
// normally the go:embed tables directory compiled into the binary.
type EmbeddedSource map[string]fs.FS

// Open reads ref.File() from the skill's filesystem.
func (s EmbeddedSource) Open(_ context.Context, ref TableRef) ([]byte, error) {
	fsys, ok := s[ref.Skill]
	if !ok || fsys == nil {
		return nil, fmt.Errorf("skill %q: %w", ref.Skill, ErrTableNotFound)
	}
	return readFile(fsys, ref.File())
}

// DirSource serves tables from a directory tree laid out as <skill>/<table>.<format>.
type DirSource struct {
	fsys fs.FS
}

// NewDirSource wraps a filesystem such as os.DirFS(dir).
func NewDirSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys}
}

// Open reads <skill>/<file> from the tree.
func (s *DirSource) Open(_ context.Context, ref TableRef) ([]byte, error) {
	return readFile(s.fsys, path.Join(ref.Skill, ref.File()))
}

func readFile(fsys fs.FS, name string) ([]byte, error) {
	b, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return b, nil
}

// FallbackSource consults each source in order, moving on only when a
// source does not hold the table. Other errors stop the search.
type FallbackSource []Source

// Open returns the first source's content for ref.
func (s FallbackSource) Open(ctx context.Context, ref TableRef) ([]byte, error) {
	for _, src := range s {
		b, err := src.Open(ctx, ref)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, ErrTableNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s/%s: %w", ref.Skill, ref.File(), ErrTableNotFound)
}
