package git

import (
	"fmt"
	"os"
	"sync/atomic"

	billy "github.com/go-git/go-billy/v5"
)

// LimitedFs wraps a billy.Filesystem and enforces limits on the number of
// files created and the total bytes written. Clones of hostile or runaway
// repositories fail instead of exhausting memory.
type LimitedFs struct {
	Fs            billy.Filesystem
	MaxFiles      int64
	TotalFileSize int64

	fileCount atomic.Int64
	bytes     atomic.Int64
}

var _ billy.Filesystem = (*LimitedFs)(nil)

// ErrLimitExceeded is returned when a filesystem limit is hit.
var ErrLimitExceeded = fmt.Errorf("filesystem limit exceeded")

func (l *LimitedFs) trackFile() error {
	if l.fileCount.Add(1) > l.MaxFiles {
		return fmt.Errorf("%w: more than %d files", ErrLimitExceeded, l.MaxFiles)
	}
	return nil
}

func (l *LimitedFs) trackBytes(n int) error {
	if l.bytes.Add(int64(n)) > l.TotalFileSize {
		return fmt.Errorf("%w: more than %d bytes written", ErrLimitExceeded, l.TotalFileSize)
	}
	return nil
}

// Create creates the named file, counting it against the file limit.
func (l *LimitedFs) Create(filename string) (billy.File, error) {
	if err := l.trackFile(); err != nil {
		return nil, err
	}
	f, err := l.Fs.Create(filename)
	if err != nil {
		return nil, err
	}
	return &limitedFile{File: f, fs: l}, nil
}

// Open opens the named file for reading.
func (l *LimitedFs) Open(filename string) (billy.File, error) {
	f, err := l.Fs.Open(filename)
	if err != nil {
		return nil, err
	}
	return &limitedFile{File: f, fs: l}, nil
}

// OpenFile opens the named file, counting newly created files against the limit.
func (l *LimitedFs) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&os.O_CREATE != 0 {
		if err := l.trackFile(); err != nil {
			return nil, err
		}
	}
	f, err := l.Fs.OpenFile(filename, flag, perm)
	if err != nil {
		return nil, err
	}
	return &limitedFile{File: f, fs: l}, nil
}

// Stat returns file info for the named file.
func (l *LimitedFs) Stat(filename string) (os.FileInfo, error) { return l.Fs.Stat(filename) }

// Rename renames a file.
func (l *LimitedFs) Rename(oldpath, newpath string) error { return l.Fs.Rename(oldpath, newpath) }

// Remove removes the named file.
func (l *LimitedFs) Remove(filename string) error { return l.Fs.Remove(filename) }

// Join joins path elements.
func (l *LimitedFs) Join(elem ...string) string { return l.Fs.Join(elem...) }

// TempFile creates a temporary file, counting it against the file limit.
func (l *LimitedFs) TempFile(dir, prefix string) (billy.File, error) {
	if err := l.trackFile(); err != nil {
		return nil, err
	}
	f, err := l.Fs.TempFile(dir, prefix)
	if err != nil {
		return nil, err
	}
	return &limitedFile{File: f, fs: l}, nil
}

// ReadDir lists the named directory.
func (l *LimitedFs) ReadDir(path string) ([]os.FileInfo, error) { return l.Fs.ReadDir(path) }

// MkdirAll creates a directory tree, counting each call against the file limit.
func (l *LimitedFs) MkdirAll(filename string, perm os.FileMode) error {
	if err := l.trackFile(); err != nil {
		return err
	}
	return l.Fs.MkdirAll(filename, perm)
}

// Lstat returns file info without following symlinks.
func (l *LimitedFs) Lstat(filename string) (os.FileInfo, error) { return l.Fs.Lstat(filename) }

// Symlink creates a symlink, counting it against the file limit.
func (l *LimitedFs) Symlink(target, link string) error {
	if err := l.trackFile(); err != nil {
		return err
	}
	return l.Fs.Symlink(target, link)
}

// Readlink returns the target of a symlink.
func (l *LimitedFs) Readlink(link string) (string, error) { return l.Fs.Readlink(link) }

// Chroot returns a filesystem rooted at path, sharing this filesystem's limits.
func (l *LimitedFs) Chroot(path string) (billy.Filesystem, error) {
	fs, err := l.Fs.Chroot(path)
	if err != nil {
		return nil, err
	}
	return &LimitedFs{Fs: fs, MaxFiles: l.MaxFiles, TotalFileSize: l.TotalFileSize}, nil
}

// Root returns the root path of the filesystem.
func (l *LimitedFs) Root() string { return l.Fs.Root() }

// limitedFile tracks bytes written through a file against the owning
// filesystem's byte budget.
type limitedFile struct {
	billy.File
	fs *LimitedFs
}

func (f *limitedFile) Write(p []byte) (int, error) {
	if err := f.fs.trackBytes(len(p)); err != nil {
		return 0, err
	}
	return f.File.Write(p)
}
