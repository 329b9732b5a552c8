package hashengine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

var errWalkInterrupted = errors.New("walk interrupted by shutdown")

// SkipFunc is told about every entry the walker could not read. The walk continues afterwards.
type SkipFunc func(path string, err error)

// DirectoryWalker enumerates regular files under a root in lexicographic path order.
// Symbolic links, devices, sockets and pipes are never reported, and unreadable
// entries are skipped without aborting the walk.
type DirectoryWalker struct {
	fs     afero.Fs
	onSkip SkipFunc
}

// NewDirectoryWalker creates a walker over fs. onSkip may be nil.
func NewDirectoryWalker(fs afero.Fs, onSkip SkipFunc) *DirectoryWalker {
	return &DirectoryWalker{fs: fs, onSkip: onSkip}
}

// lstat avoids following links when the filesystem supports it
func (w *DirectoryWalker) lstat(path string) (os.FileInfo, error) {
	if lstater, ok := w.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return w.fs.Stat(path)
}

func (w *DirectoryWalker) skip(path string, err error) {
	debugLog(DebugWalk, "skipping %s: %v", path, err)
	if w.onSkip != nil {
		w.onSkip(path, err)
	}
}

// Walk streams regular files under root to visit, one at a time, so a caller can stop
// between files by returning false. A closed shutdownChan ends the walk with an error.
// Only a root that cannot be read at all is reported as an error. The root itself
// may be a link to a directory; links found below it are never followed.
func (w *DirectoryWalker) Walk(root string, shutdownChan <-chan struct{}, visit func(path string) bool) error {
	defer VerboseEnter()()

	root = filepath.Clean(root)
	rootInfo, err := w.fs.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat root %s: %w", root, err)
	}
	if !rootInfo.IsDir() {
		return fmt.Errorf("root %s is not a directory", root)
	}

	// Sorted queue: always expand the lexicographically smallest path first so the
	// visit order is deterministic and independent of directory read order
	pathQueue := []string{root}

	for len(pathQueue) > 0 {
		select {
		case <-shutdownChan:
			return errWalkInterrupted
		default:
		}

		currentPath := pathQueue[0]
		pathQueue = pathQueue[1:]

		info := rootInfo
		if currentPath != root {
			info, err = w.lstat(currentPath)
			if err != nil {
				w.skip(currentPath, err)
				continue
			}
		}

		mode := info.Mode()
		switch {
		case mode&os.ModeSymlink != 0:
			debugLog(DebugWalk, "ignoring symlink %s", currentPath)

		case info.IsDir():
			names, err := w.readDirNames(currentPath)
			if err != nil {
				if currentPath == root {
					return fmt.Errorf("failed to read root %s: %w", root, err)
				}
				w.skip(currentPath, err)
				continue
			}

			newPaths := make([]string, 0, len(names))
			for _, name := range names {
				newPaths = append(newPaths, filepath.Join(currentPath, name))
			}
			pathQueue = insertSorted(pathQueue, newPaths)

		case mode.IsRegular():
			debugLog(DebugWalk, "found file %s", currentPath)
			if !visit(currentPath) {
				return nil
			}

		default:
			debugLog(DebugWalk, "ignoring special file %s (%s)", currentPath, mode.Type())
		}
	}

	return nil
}

func (w *DirectoryWalker) readDirNames(dir string) ([]string, error) {
	f, err := w.fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdirnames(-1)
}

// insertSorted inserts new paths into an existing sorted slice maintaining order
func insertSorted(existing []string, newPaths []string) []string {
	if len(newPaths) == 0 {
		return existing
	}
	sort.Strings(newPaths)
	if len(existing) == 0 {
		return newPaths
	}

	result := make([]string, 0, len(existing)+len(newPaths))

	i, j := 0, 0
	for i < len(existing) && j < len(newPaths) {
		if existing[i] <= newPaths[j] {
			result = append(result, existing[i])
			i++
		} else {
			result = append(result, newPaths[j])
			j++
		}
	}

	result = append(result, existing[i:]...)
	result = append(result, newPaths[j:]...)

	return result
}
