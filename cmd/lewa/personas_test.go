package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPersonas(t *testing.T, args ...string) (string, error) {
	t.Helper()
	personasFile = ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"personas"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPersonasListsEmbeddedTable(t *testing.T) {
	out, err := runPersonas(t)
	require.NoError(t, err)
	assert.Contains(t, out, "religious_studies")
	assert.Contains(t, out, "11 subjects, 22 personas: ok")
}

func TestPersonasRejectsIncompleteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	body := strings.Join([]string{
		"subjects:",
		"  - id: biology",
		"    name: Biology",
		"    levels:",
		"      Foundational:",
		"        instructions: You are a Biology tutor.",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := runPersonas(t, "--file", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing level")
}
