package page

import (
	"bytes"
	"fmt"
	"io"
	"path"

	"github.com/go-git/go-billy/v5"
)

// File is a file selected in a file input.
type File struct {
	// Name is the file name sent with the part, without directories.
	Name string

	// Size is the length in bytes, or -1 if unknown.
	Size int64

	// ContentType overrides content sniffing when set.
	ContentType string

	open func() (io.ReadCloser, error)
}

// NewFile creates a file whose content is produced by open.
func NewFile(name string, size int64, open func() (io.ReadCloser, error)) File {
	return File{Name: name, Size: size, open: open}
}

// FileFromBytes creates an in-memory file.
func FileFromBytes(name string, data []byte) File {
	return NewFile(name, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// FileFromFS creates a file backed by p on fs. The file is opened lazily, each
// time its content is written.
func FileFromFS(fs billy.Filesystem, p string) (File, error) {
	info, err := fs.Stat(p)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", p)
	}
	return NewFile(path.Base(p), info.Size(), func() (io.ReadCloser, error) {
		return fs.Open(p)
	}), nil
}

// Open returns the file content. A file without content reads as empty.
func (f File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return f.open()
}
