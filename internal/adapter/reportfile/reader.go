// Package reportfile reads the raw coverage report document from disk.
package reportfile

import (
	"context"
	"fmt"
	"os"
)

// Reader loads report documents from the local filesystem.
type Reader struct{}

// NewReader constructs a filesystem report reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadReport returns the report document as text. A missing or unreadable
// file is fatal and propagates to the caller.
func (r *Reader) ReadReport(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read coverage report %s: %w", path, err)
	}
	return string(data), nil
}
