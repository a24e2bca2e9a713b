package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the CLI against an ephemeral data layer and returns
// captured output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("MEDISYNC_IN_MEMORY", "true")
	t.Setenv("MEDISYNC_CACHE_PATH", filepath.Join(dir, "patients.json"))
	t.Setenv("MEDISYNC_SIGNAL_PATH", filepath.Join(dir, "datachanged.signal"))

	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

// runCommandIn is like runCommand but runs against a shared durable data
// directory, so state survives across invocations.
func runCommandIn(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	t.Setenv("MEDISYNC_IN_MEMORY", "false")
	t.Setenv("MEDISYNC_DB_PATH", filepath.Join(dir, "medisync.db"))
	t.Setenv("MEDISYNC_CACHE_PATH", filepath.Join(dir, "patients.json"))
	t.Setenv("MEDISYNC_SIGNAL_PATH", filepath.Join(dir, "datachanged.signal"))

	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand_RejectsInvalidFormat(t *testing.T) {
	_, err := runCommand(t, "--format", "xml", "schema")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMigrateCommand_AppliesThenIdle(t *testing.T) {
	out, err := runCommand(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "applied 0000_init.sql")
	assert.Contains(t, out, "applied 0001_indexes.sql")

	// A fresh in-memory store per invocation: this exercises output only;
	// idempotence itself is covered in the migrate package tests.
}

func TestQueryCommand_RunsSelect(t *testing.T) {
	out, err := runCommand(t, "query", "SELECT * FROM patients")
	require.NoError(t, err)
	assert.Contains(t, out, "0 row(s)")
}

func TestQueryCommand_RejectsWrite(t *testing.T) {
	out, err := runCommand(t, "query", "DELETE FROM patients")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	// The formatter is the only channel carrying the policy message; the
	// returned error holds just the exit status, so nothing prints twice.
	assert.Equal(t, 1, strings.Count(out, "only SELECT queries are allowed"))
	assert.NotContains(t, err.Error(), "only SELECT queries are allowed")
}

func TestQueryCommand_RejectsMultiStatementBatch(t *testing.T) {
	out, err := runCommand(t, "query", "SELECT 1; DELETE FROM patients")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "only SELECT queries are allowed")
}

func TestSchemaCommand_ListsTables(t *testing.T) {
	out, err := runCommand(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "patients")
	assert.Contains(t, out, "medical_history")
	assert.Contains(t, out, "allergies")
}

func TestSyncCommand_EmptyCache(t *testing.T) {
	out, err := runCommand(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "synced 0")
}

func TestSeedCommand_LoadsFixtures(t *testing.T) {
	fixture := filepath.Join(t.TempDir(), "patients.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte(`
- id: "1700000000000"
  firstName: Ada
  lastName: Lovelace
  dateOfBirth: "1815-12-10"
  phoneNumber: "555-0100"
- firstName: Grace
  lastName: Hopper
  dateOfBirth: "1906-12-09"
`), 0o644))

	out, err := runCommand(t, "seed", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "saved 2 patient(s)")
}

func TestSeedCommand_MissingFile(t *testing.T) {
	_, err := runCommand(t, "seed", "/nonexistent/patients.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPatientCommands_ListShowSearchDelete(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "patients.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte(`
- id: "1700000000000"
  firstName: Ada
  lastName: Lovelace
  dateOfBirth: "1815-12-10"
  phoneNumber: "555-0100"
- id: "1700000000001"
  firstName: Grace
  lastName: Hopper
  dateOfBirth: "1906-12-09"
`), 0o644))

	_, err := runCommandIn(t, dir, "seed", fixture)
	require.NoError(t, err)

	out, err := runCommandIn(t, dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Hopper, Grace")
	assert.Contains(t, out, "Lovelace, Ada")
	assert.Contains(t, out, "2 patient(s)")

	out, err = runCommandIn(t, dir, "show", "1700000000000")
	require.NoError(t, err)
	assert.Contains(t, out, "Lovelace, Ada (1700000000000)")
	assert.Contains(t, out, "1815-12-10")

	out, err = runCommandIn(t, dir, "search", "Hopper")
	require.NoError(t, err)
	assert.Contains(t, out, "1 patient(s)")
	assert.NotContains(t, out, "Lovelace")

	out, err = runCommandIn(t, dir, "delete", "1700000000000")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 1700000000000")

	out, err = runCommandIn(t, dir, "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Lovelace")
	assert.Contains(t, out, "1 patient(s)")
}

func TestShowCommand_UnknownPatient(t *testing.T) {
	_, err := runCommand(t, "show", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "not found")
}

func TestQueryCommand_JSONFormat(t *testing.T) {
	out, err := runCommand(t, "--format", "json", "query", "SELECT 1 AS one")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "ok"`)
	assert.Contains(t, out, `"rowCount": 1`)
}
