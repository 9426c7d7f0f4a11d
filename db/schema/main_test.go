package schema

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// findProjectRoot searches for the project root directory (where go.mod is located)
// starting from the current working directory and moving upwards.
func findProjectRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err, "Failed to get working directory")

	for i := 0; i < 5; i++ { // Limit search to 5 levels up
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd
		}
		prevWd := wd
		wd = filepath.Dir(wd)
		if wd == prevWd { // Reached the root of the filesystem
			break
		}
	}
	t.Fatalf("Failed to find project root (go.mod)")
	return ""
}

// TestSchemaFilesNotEmpty ensures that all schema .sql files are not empty.
// This is a basic sanity check to catch accidental empty files.
func TestSchemaFilesNotEmpty(t *testing.T) {
	rootPath := findProjectRoot(t)
	schemaPath := filepath.Join(rootPath, "db", "schema")

	files, err := os.ReadDir(schemaPath)
	require.NoError(t, err, "Failed to read schema directory: %s", schemaPath)

	for _, file := range files {
		fileName := file.Name()
		if strings.HasSuffix(fileName, ".sql") {
			filePath := filepath.Join(schemaPath, fileName)
			content, err := os.ReadFile(filePath)
			require.NoError(t, err, "Failed to read schema file: %s", filePath)
			require.NotEmpty(t, content, "Schema file is empty: %s", fileName)
		}
	}
}

// TestSchemaFileNames ensures that all schema files follow the naming
// convention "NNN_description.sql" where NNN is a number.
func TestSchemaFileNames(t *testing.T) {
	rootPath := findProjectRoot(t)
	schemaPath := filepath.Join(rootPath, "db", "schema")

	files, err := os.ReadDir(schemaPath)
	require.NoError(t, err, "Failed to read schema directory: %s", schemaPath)

	for _, file := range files {
		fileName := file.Name()
		if !strings.HasSuffix(fileName, ".sql") {
			continue
		}
		parts := strings.SplitN(fileName, "_", 2)
		require.Len(t, parts, 2, "Schema file %s does not match NNN_description.sql", fileName)
		_, err := strconv.Atoi(parts[0])
		require.NoError(t, err, "Schema file %s does not start with a number", fileName)
	}
}
