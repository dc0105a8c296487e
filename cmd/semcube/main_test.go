package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semcube/config"
	"github.com/c360studio/semcube/convert"
	"github.com/c360studio/semcube/index"
)

const testProfile = `
prefixes:
  ex: http://example.org/
types:
  - id: Person
    rdf_types: [ex:Person]
    attributes:
      - id: name
        predicate: ex:name
        kind: data
        cardinality: single
      - id: knows
        predicate: ex:knows
        kind: reference
        cardinality: list
`

const testData = `# people
<http://example.org/P1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/Person> .
<http://example.org/P1> <http://example.org/name> "Alice"^^<http://www.w3.org/2001/XMLSchema#string> .
<http://example.org/P1> <http://example.org/knows> <http://example.org/P2> .
<http://example.org/P2> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/Person> .
<http://example.org/P2> <http://example.org/name> "Bob"^^<http://www.w3.org/2001/XMLSchema#string> .
`

// testEnv isolates HOME, the working directory and SEMCUBE_* variables, and
// writes the profile and data files into the working directory.
func testEnv(t *testing.T) (work string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{config.EnvNATSURL, config.EnvIndexFolder, config.EnvLogLevel, config.EnvProfile} {
		t.Setenv(name, "")
	}
	work = t.TempDir()
	t.Chdir(work)

	writeTestFile(t, filepath.Join(work, "people.yaml"), testProfile)
	writeTestFile(t, filepath.Join(work, "people.nt"), testData)
	return work
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "semcube version 0.1.0 (build: dev)\n", out)
}

func TestConvert(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "", "convert", "--profile", "people.yaml", "--input", "people.nt", "--root", "http://example.org/P1")
	require.NoError(t, err)

	var doc convert.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.NotNil(t, doc.Data)
	assert.Equal(t, "http://example.org/P1", doc.Data.URI)
	assert.Equal(t, "Person", doc.Data.Type)
	assert.Equal(t, []any{"http://example.org/P2"}, doc.Data.References["knows"])
	require.Len(t, doc.Included, 1)
	assert.Equal(t, "http://example.org/P2", doc.Included[0].URI)
	assert.Equal(t, 1, strings.Count(out, "\n"), "compact output is a single line")
}

func TestConvert_StdinAndPretty(t *testing.T) {
	testEnv(t)

	out, err := execute(t, testData, "convert", "-p", "people.yaml", "-r", "http://example.org/P2", "--pretty")
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"data\": {")

	var doc convert.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "http://example.org/P2", doc.Data.URI)
	assert.Empty(t, doc.Included)
}

func TestConvert_ProfileFromConfig(t *testing.T) {
	work := testEnv(t)
	writeTestFile(t, filepath.Join(work, config.ProjectConfigFile), "profile: people.yaml\n")

	_, err := execute(t, "", "convert", "-i", "people.nt", "-r", "http://example.org/P1")
	assert.NoError(t, err)
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing root", args: []string{"convert", "-p", "people.yaml", "-i", "people.nt"}},
		{name: "missing profile", args: []string{"convert", "-i", "people.nt", "-r", "http://example.org/P1"}},
		{name: "unknown root", args: []string{"convert", "-p", "people.yaml", "-i", "people.nt", "-r", "http://example.org/nobody"}},
		{name: "missing input", args: []string{"convert", "-p", "people.yaml", "-i", "absent.nt", "-r", "http://example.org/P1"}},
		{name: "bad log level", args: []string{"convert", "--log-level", "loud", "-p", "people.yaml", "-i", "people.nt", "-r", "http://example.org/P1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testEnv(t)
			_, err := execute(t, "", tt.args...)
			assert.Error(t, err)
		})
	}
}

func indexFolder(t *testing.T, work string) string {
	t.Helper()
	folder := filepath.Join(work, "indexes")
	writeTestFile(t, filepath.Join(folder, "people", "profile.yaml"), testProfile)
	writeTestFile(t, filepath.Join(folder, "people", "person", index.CollectionFile),
		"profile: ../profile.yaml\nselect: \"?s a <http://example.org/Person>\"\n")
	return folder
}

func TestIndex(t *testing.T) {
	work := testEnv(t)
	folder := indexFolder(t, work)

	out, err := execute(t, "", "index", "--folder", folder, "--data", "people.nt", "--clear")
	require.NoError(t, err)

	var run index.Run
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 2, run.Indexed)
	assert.Zero(t, run.Failed())
}

func TestIndex_FolderFromConfig(t *testing.T) {
	work := testEnv(t)
	indexFolder(t, work)

	out, err := execute(t, testData, "index", "--index", "people", "--collection", "person", "--uri", "http://example.org/P2")
	require.NoError(t, err)

	var run index.Run
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Equal(t, 1, run.Indexed)
}

func TestIndex_FlagCombinations(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "collection without index", args: []string{"--collection", "person"}},
		{name: "uri without collection", args: []string{"--index", "people", "--uri", "http://example.org/P1"}},
		{name: "query with two indexes", args: []string{"--index", "people,archive", "--collection", "person", "--query", "?s a <http://example.org/Person>"}},
		{name: "unknown index", args: []string{"--index", "missing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work := testEnv(t)
			folder := indexFolder(t, work)
			args := append([]string{"index", "--folder", folder, "--data", "people.nt"}, tt.args...)
			_, err := execute(t, "", args...)
			assert.Error(t, err)
		})
	}
}
