package knowledgebase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func TestFolder_ListMissingDir(t *testing.T) {
	f := NewFolder(filepath.Join(t.TempDir(), "absent"))

	names, err := f.List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFolder_ListFiltersPDFs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "A.PDF", "notes.txt", ".hidden.pdf", "processed_files.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0755))
	f := NewFolder(dir)

	names, err := f.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"A.PDF", "b.pdf"}, names)
}

func TestFolder_SaveCreatesDirAndReplaces(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "knowledge_base")
	f := NewFolder(dir)
	ctx := context.Background()

	require.NoError(t, f.Save(ctx, "doc.pdf", strings.NewReader("v1")))
	require.NoError(t, f.Save(ctx, "doc.pdf", strings.NewReader("v2")))

	data, err := os.ReadFile(f.Path("doc.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFolder_SaveRejectsPaths(t *testing.T) {
	f := NewFolder(t.TempDir())

	err := f.Save(context.Background(), "../escape.pdf", strings.NewReader("x"))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestFolder_SaveFailedCopyLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	f := NewFolder(dir)

	err := f.Save(context.Background(), "doc.pdf", failingReader{})

	require.Error(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
