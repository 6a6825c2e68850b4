package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/starford/wanderlog/internal/checksum"
)

// DefaultExtension is the content file extension used when none is configured.
const DefaultExtension = ".mdx"

// FS implements Source over an ordered list of local directories.
type FS struct {
	roots []string // absolute, in configured order
	exts  []string // lowercase, with leading dot
}

// NewFS creates an FS over roots. Roots are resolved to absolute paths but are
// not required to exist. With no extensions given, DefaultExtension is used.
func NewFS(roots []string, exts ...string) (*FS, error) {
	if len(roots) == 0 {
		return nil, errors.New("content: no roots configured")
	}
	abs := make([]string, 0, len(roots))
	for _, r := range roots {
		a, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("content: resolve root %s: %w", r, err)
		}
		abs = append(abs, a)
	}
	if len(exts) == 0 {
		exts = []string{DefaultExtension}
	}
	norm := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		norm = append(norm, e)
	}
	return &FS{roots: abs, exts: norm}, nil
}

// Roots returns the configured roots.
func (f *FS) Roots() []string {
	out := make([]string, len(f.roots))
	copy(out, f.roots)
	return out
}

// Extensions returns the accepted content file extensions.
func (f *FS) Extensions() []string {
	out := make([]string, len(f.exts))
	copy(out, f.exts)
	return out
}

func (f *FS) isContent(name string) bool {
	lower := strings.ToLower(name)
	for _, e := range f.exts {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}

// Discover walks each root in configured order. Within a root, files come in
// the order filepath.WalkDir yields them.
func (f *FS) Discover(ctx context.Context) ([]File, error) {
	var out []File
	for _, root := range f.roots {
		info, err := os.Stat(root)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("content: stat root %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("content: root is not a directory: %s", root)
		}

		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || !f.isContent(d.Name()) {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			out = append(out, File{
				Root:    root,
				Path:    p,
				Rel:     filepath.ToSlash(rel),
				ModTime: fi.ModTime(),
				Size:    fi.Size(),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("content: walk %s: %w", root, err)
		}
	}
	return out, nil
}

// within rejects any path that escapes its root (directory traversal).
func within(root, p string) bool {
	cleaned := filepath.Clean(p)
	return strings.HasPrefix(cleaned, root+string(os.PathSeparator))
}

// Read returns the raw bytes of a discovered file. The file must lie under
// one of the configured roots.
func (f *FS) Read(file File) ([]byte, error) {
	known := false
	for _, r := range f.roots {
		if r == file.Root {
			known = true
			break
		}
	}
	if !known || !within(file.Root, file.Path) {
		return nil, fmt.Errorf("content: path outside content roots: %s", file.Path)
	}
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", file.Rel, err)
	}
	return data, nil
}

// Fingerprint hashes the current state of every discovered file.
func (f *FS) Fingerprint(ctx context.Context) (string, error) {
	files, err := f.Discover(ctx)
	if err != nil {
		return "", err
	}
	return FingerprintOf(files), nil
}

// FingerprintOf hashes the root, relative path, size and modification time of
// each file, in order.
func FingerprintOf(files []File) string {
	lines := make([]string, 0, len(files))
	for _, file := range files {
		lines = append(lines, file.Root+"|"+file.Rel+"|"+
			strconv.FormatInt(file.Size, 10)+"|"+
			strconv.FormatInt(file.ModTime.UnixNano(), 10))
	}
	return checksum.Lines(lines)
}

var _ Source = (*FS)(nil)
