package upload

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// BytesSource wraps in-memory content.
func BytesSource(name string, data []byte) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FileSource reads a file from disk; the display name is the base name.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// MultipartSource reads one part of a parsed multipart form.
func MultipartSource(fh *multipart.FileHeader) Source {
	return Source{
		Name: filepath.Base(fh.Filename),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
