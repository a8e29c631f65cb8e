package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTextFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [file...]", ingestCmd.Use)
}

func TestIngestCmd_RequiresFiles(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestIngestCmd_IngestsFileWithMetadata(t *testing.T) {
	stub, cleanup := setupTestServices()
	defer cleanup()

	path := writeTextFile(t, "sentencia_007.txt", "texto del fallo")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{
		"ingest", path,
		"--court", "Camara Civil",
		"--date", "2021-06-01",
		"--topics", "contratos,daños",
	})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	require.Len(t, stub.ingested, 1)
	doc := stub.ingested[0]
	assert.Equal(t, "sentencia_007", doc.ID)
	assert.Equal(t, "texto del fallo", doc.Text)
	assert.Equal(t, "sentencia_007.txt", doc.Metadata.SourceFile)
	assert.Equal(t, "Camara Civil", doc.Metadata.Court)
	require.NotNil(t, doc.Metadata.DecisionDate)
	assert.Equal(t, "2021-06-01", *doc.Metadata.DecisionDate)
	assert.Equal(t, []string{"contratos", "daños"}, doc.Metadata.Topics)

	assert.Equal(t, 1, stub.rebuilds)
	assert.Contains(t, buf.String(), "1 chunks stored")
}

func TestIngestCmd_NoRebuildFlag(t *testing.T) {
	stub, cleanup := setupTestServices()
	defer cleanup()

	path := writeTextFile(t, "sentencia_008.txt", "texto")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "--no-rebuild", path})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Zero(t, stub.rebuilds)
}

func TestIngestCmd_RejectsIDWithMultipleFiles(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	a := writeTextFile(t, "a.txt", "a")
	b := writeTextFile(t, "b.txt", "b")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "--id", "doc", a, b})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
}
