package scan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Locator finds candidate application databases inside a data source and
// materializes them as local files an analyzer can open with a SQLite
// driver.
type Locator interface {
	// FindCandidateFiles returns paths whose base name matches namePattern
	// (exactly, or as a substring when exact is false) and whose path
	// contains packageHint when one is given.
	FindCandidateFiles(namePattern string, exact bool, packageHint string) ([]string, error)

	// MaterializeLocally produces a local filesystem copy of the file at
	// sourcePath. The returned cleanup must be called on every exit path;
	// it releases the copy.
	MaterializeLocally(sourcePath string) (localPath string, cleanup func(), err error)
}

// DirLocator walks an extracted data-source directory tree. The filesystem
// is abstracted so tests can run against an in-memory tree.
type DirLocator struct {
	fs   afero.Fs
	root string
}

// NewDirLocator returns a Locator over the extraction root directory.
func NewDirLocator(root string) *DirLocator {
	return &DirLocator{fs: afero.NewOsFs(), root: root}
}

// NewDirLocatorFs returns a Locator over root on the given filesystem.
func NewDirLocatorFs(fs afero.Fs, root string) *DirLocator {
	return &DirLocator{fs: fs, root: root}
}

// FindCandidateFiles walks the source tree for matching database files.
// Journal and WAL sidecars are never candidates themselves.
func (l *DirLocator) FindCandidateFiles(namePattern string, exact bool, packageHint string) ([]string, error) {
	var found []string
	err := afero.Walk(l.fs, l.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal to discovery.
			return nil
		}
		if info.IsDir() {
			return nil
		}
		name := info.Name()
		if strings.HasSuffix(name, "-journal") || strings.HasSuffix(name, "-wal") || strings.HasSuffix(name, "-shm") {
			return nil
		}
		if exact {
			if name != namePattern {
				return nil
			}
		} else if !strings.Contains(name, namePattern) {
			return nil
		}
		if packageHint != "" && !strings.Contains(filepath.ToSlash(path), packageHint) {
			return nil
		}
		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking data source: %w", err)
	}
	return found, nil
}

// MaterializeLocally copies the database and any WAL sidecar next to it
// into a private temp directory. Cleanup removes the whole directory.
func (l *DirLocator) MaterializeLocally(sourcePath string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "commscan-db-")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	localPath := filepath.Join(tmpDir, filepath.Base(sourcePath))
	if err := l.copyOut(sourcePath, localPath); err != nil {
		cleanup()
		return "", nil, err
	}

	// Best effort on the sidecars; a WAL left behind by the app holds
	// committed rows the main file does not.
	for _, suffix := range []string{"-wal", "-shm"} {
		src := sourcePath + suffix
		if ok, _ := afero.Exists(l.fs, src); ok {
			_ = l.copyOut(src, localPath+suffix)
		}
	}

	return localPath, cleanup, nil
}

func (l *DirLocator) copyOut(src, dst string) error {
	in, err := l.fs.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return nil
}
