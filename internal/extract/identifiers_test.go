package extract_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oicr-gsi/pipeline-timings/internal/extract"
)

func TestReadIdentifiersSkipsHeaderAndBlanks(testInstance *testing.T) {
	identifiersPath := filepath.Join(testInstance.TempDir(), "workflow_ids.txt")
	fileContent := "workflow_run_id\n100\n\n  200  \n300\n"
	require.NoError(testInstance, os.WriteFile(identifiersPath, []byte(fileContent), 0o644))

	identifiers, readError := extract.ReadIdentifiers(identifiersPath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, []string{"100", "200", "300"}, identifiers)
}

func TestReadIdentifiersWithoutHeader(testInstance *testing.T) {
	identifiersPath := filepath.Join(testInstance.TempDir(), "workflow_ids.txt")
	require.NoError(testInstance, os.WriteFile(identifiersPath, []byte("100\n200\n"), 0o644))

	identifiers, readError := extract.ReadIdentifiers(identifiersPath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, []string{"100", "200"}, identifiers)
}

func TestReadIdentifiersRequiresPath(testInstance *testing.T) {
	_, readError := extract.ReadIdentifiers("  ")
	require.ErrorIs(testInstance, readError, extract.ErrIdentifiersPathRequired)
}

func TestAppendIdentifiersWritesHeaderOnlyWhenFileIsNew(testInstance *testing.T) {
	identifiersPath := filepath.Join(testInstance.TempDir(), "workflow_ids.txt")

	require.NoError(testInstance, extract.AppendIdentifiers(identifiersPath, []string{"100", "200"}))
	firstContent, firstReadError := os.ReadFile(identifiersPath)
	require.NoError(testInstance, firstReadError)
	require.Equal(testInstance, "workflow_run_id\n100\n200\n", string(firstContent))

	require.NoError(testInstance, extract.AppendIdentifiers(identifiersPath, []string{"300"}))
	secondContent, secondReadError := os.ReadFile(identifiersPath)
	require.NoError(testInstance, secondReadError)
	require.Equal(testInstance, "workflow_run_id\n100\n200\n300\n", string(secondContent))
}
