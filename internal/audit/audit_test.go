package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditor(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "audit")
	auditor := NewAuditor(tempDir)

	t.Run("SaveJSON creates audit directory and saves file", func(t *testing.T) {
		testData := map[string]any{
			"mlpId": "oai:1",
			"links": []string{"a.epub", "a.pdf"},
		}

		filename, err := auditor.SaveJSON("catalog-run-1", testData)
		require.NoError(t, err)
		assert.Equal(t, "catalog-run-1.json", filename)

		fileContent, err := os.ReadFile(filepath.Join(tempDir, filename))
		require.NoError(t, err)

		var savedData map[string]any
		require.NoError(t, json.Unmarshal(fileContent, &savedData))
		assert.Equal(t, "oai:1", savedData["mlpId"])
		assert.Equal(t, []any{"a.epub", "a.pdf"}, savedData["links"])
	})

	t.Run("SaveJSON generates unique filenames without a name", func(t *testing.T) {
		filename1, err := auditor.SaveJSON("", map[string]string{"key": "value"})
		require.NoError(t, err)

		filename2, err := auditor.SaveJSON("", map[string]string{"key": "value"})
		require.NoError(t, err)

		assert.NotEqual(t, filename1, filename2)
	})
}

func TestAuditor_Enabled(t *testing.T) {
	var nilAuditor *Auditor

	assert.False(t, nilAuditor.Enabled())
	assert.False(t, NewAuditor("").Enabled())
	assert.True(t, NewAuditor("./audit").Enabled())
}

func TestAuditor_PruneOlderThan(t *testing.T) {
	dir := t.TempDir()
	auditor := NewAuditor(dir)

	_, err := auditor.SaveJSON("old", []string{})
	require.NoError(t, err)
	_, err = auditor.SaveJSON("fresh", []string{})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644))

	past := time.Now().Add(-10 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.json"), past, past))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "notes.txt"), past, past))

	removed, err := auditor.PruneOlderThan(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(filepath.Join(dir, "old.json"))
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, filepath.Join(dir, "fresh.json"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))

	removed, err = NewAuditor(filepath.Join(dir, "missing")).PruneOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
