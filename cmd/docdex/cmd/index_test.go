package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdex/docdex/internal/search"
)

// setupWorkspace points all artifact paths at a temp directory and seeds a
// small corpus, using the static embedder so no network is involved.
func setupWorkspace(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	docsDir := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docsDir, 0o755))
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(docsDir, name+".txt"), []byte(content), 0o644))
	}

	t.Setenv("DOCDEX_DATA_DIR", docsDir)
	t.Setenv("DOCDEX_CACHE_PATH", filepath.Join(dir, "cache.db"))
	t.Setenv("DOCDEX_INDEX_PATH", filepath.Join(dir, "index.bin"))
	t.Setenv("DOCDEX_INDEX_META_PATH", filepath.Join(dir, "index.meta"))
	t.Setenv("DOCDEX_EMBEDDER", "static")
	return dir
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestIndexCmd_BuildsArtifacts(t *testing.T) {
	dir := setupWorkspace(t, map[string]string{
		"apollo":  "The Apollo guidance computer steered the lunar module.",
		"voyager": "Voyager probes explored the outer planets of the solar system.",
	})

	out, err := runCommand(t, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2 documents")

	assert.FileExists(t, filepath.Join(dir, "index.bin"))
	assert.FileExists(t, filepath.Join(dir, "index.meta"))
	assert.FileExists(t, filepath.Join(dir, "cache.db"))
}

func TestIndexCmd_EmptyCorpus(t *testing.T) {
	setupWorkspace(t, nil)

	_, err := runCommand(t, "index")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .txt documents")
}

func TestSearchCmd_EndToEnd(t *testing.T) {
	setupWorkspace(t, map[string]string{
		"apollo":  "The Apollo guidance computer steered the lunar module.",
		"recipes": "Whisk the eggs and fold in the flour for the cake batter.",
	})

	_, err := runCommand(t, "index")
	require.NoError(t, err)

	out, err := runCommand(t, "search", "apollo guidance computer", "--format", "json", "--limit", "2")
	require.NoError(t, err)

	var results []search.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "apollo", results[0].DocID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchCmd_NoIndex(t *testing.T) {
	setupWorkspace(t, map[string]string{"doc": "text"})

	_, err := runCommand(t, "search", "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docdex index")
}

func TestRootCmd_FailureIsPrinted(t *testing.T) {
	setupWorkspace(t, map[string]string{"doc": "text"})

	// A failing subcommand must surface its error on the error stream, not
	// just through the exit code.
	out, err := runCommand(t, "search", "anything")
	require.Error(t, err)
	assert.Contains(t, out, "Error:")
	assert.Contains(t, out, err.Error())
}

func TestStatusCmd_ReportsState(t *testing.T) {
	setupWorkspace(t, map[string]string{
		"apollo": "The Apollo guidance computer steered the lunar module.",
	})

	out, err := runCommand(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Corpus: 1 documents")
	assert.Contains(t, out, "not built")

	_, err = runCommand(t, "index")
	require.NoError(t, err)

	out, err = runCommand(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Index: 1 documents")
}

func TestEvalCmd_ReportsLatency(t *testing.T) {
	setupWorkspace(t, map[string]string{
		"apollo": "The Apollo guidance computer steered the lunar module.",
	})

	_, err := runCommand(t, "index")
	require.NoError(t, err)

	out, err := runCommand(t, "eval", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Average latency")
}
