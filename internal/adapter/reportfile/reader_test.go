package reportfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/coverage-commenter/internal/adapter/reportfile"
)

func TestReadReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scoverage.xml")
	require.NoError(t, os.WriteFile(path, []byte("<scoverage/>"), 0o600))

	document, err := reportfile.NewReader().ReadReport(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "<scoverage/>", document)
}

func TestReadReport_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.xml")

	_, err := reportfile.NewReader().ReadReport(context.Background(), path)

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), path)
}
