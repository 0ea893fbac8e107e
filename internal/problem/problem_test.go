package problem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextStatementDerivesIDFromContent(t *testing.T) {
	a := NewTextStatement("fix the off-by-one in pagination", "", nil)
	b := NewTextStatement("fix the off-by-one in pagination", "", nil)

	require.Len(t, a.ID(), 6)
	require.Equal(t, a.ID(), b.ID())
	require.NotEqual(t, a.ID(), NewTextStatement("different", "", nil).ID())
}

func TestTextStatementKeepsExplicitID(t *testing.T) {
	s := NewTextStatement("text", "issue-42", map[string]any{"repo": "demo"})
	require.Equal(t, "issue-42", s.ID())
	require.Equal(t, "demo", s.ExtraFields()["repo"])
}

func TestFileStatementReadsContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.md")
	require.NoError(t, os.WriteFile(path, []byte("crash on empty input"), 0o644))

	s, err := NewFileStatement(path, "", nil)
	require.NoError(t, err)
	require.Equal(t, "crash on empty input", s.Text())
	require.Len(t, s.ID(), 6)

	_, err = NewFileStatement(filepath.Join(t.TempDir(), "missing.md"), "", nil)
	require.Error(t, err)
}

func TestEmptyStatementHasUniqueID(t *testing.T) {
	a := NewEmptyStatement()
	b := NewEmptyStatement()
	require.NotEmpty(t, a.ID())
	require.NotEqual(t, a.ID(), b.ID())
	require.Empty(t, a.Text())
	require.NotNil(t, a.ExtraFields())
}
