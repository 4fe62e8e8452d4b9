package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/canteen/config"
	"github.com/shashiranjanraj/canteen/pkg/testkit"
)

// setup points the CLI at a fake backend with file storage in a temp dir.
func setup(t *testing.T) *testkit.Backend {
	t.Helper()
	be := testkit.NewBackend(t)
	dir := t.TempDir()
	t.Setenv("CANTEEN_API_BASE_URL", be.URL())
	t.Setenv("CANTEEN_STORAGE_DRIVER", "file")
	t.Setenv("CANTEEN_STORAGE_LOCAL_ROOT", filepath.Join(dir, "state"))
	t.Setenv("CANTEEN_CACHE_DRIVER", "memory")
	require.NoError(t, config.LoadFiles(filepath.Join(dir, "none.json"), filepath.Join(dir, "none.yaml"), filepath.Join(dir, ".env")))
	return be
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestShoppingFlow(t *testing.T) {
	be := setup(t)
	be.AddUser("alice", "secret", "user")
	mains := be.AddCategory("Mains", 1)
	rice := be.AddDish(mains, "Fried rice", "12.50")

	_, toasts, err := run(t, "login", "-u", "alice", "-p", "secret")
	require.NoError(t, err)
	assert.Contains(t, toasts, "✓ signed in")

	out, _, err := run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "alice (customer")

	out, _, err = run(t, "menu", "dishes")
	require.NoError(t, err)
	assert.Contains(t, out, "Fried rice")
	assert.Contains(t, out, "12.50")

	out, _, err = run(t, "cart", "add", fmt.Sprint(rice), "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "25.00")

	out, _, err = run(t, "order", "submit", "--remark", "no onions")
	require.NoError(t, err)
	assert.Contains(t, out, "placed")
	assert.Equal(t, 1, be.OrderCount())

	out, _, err = run(t, "cart", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Cart is empty.")

	out, _, err = run(t, "order", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "pending payment")
	assert.Contains(t, out, "25.00")
}

func TestRejectedCallPrintsBackendMessage(t *testing.T) {
	be := setup(t)
	be.AddUser("alice", "secret", "user")

	_, _, err := run(t, "login", "-u", "alice", "-p", "secret")
	require.NoError(t, err)

	_, _, err = run(t, "admin", "stats")
	require.Error(t, err)
	assert.Equal(t, "admin only", err.Error())
}

func TestFailureReachesTerminalOnce(t *testing.T) {
	be := setup(t)
	be.AddUser("alice", "secret", "user")

	_, _, err := run(t, "login", "-u", "alice", "-p", "secret")
	require.NoError(t, err)

	_, stderr, err := run(t, "admin", "stats")
	require.Error(t, err)
	var buf bytes.Buffer
	buf.WriteString(stderr)
	report(&buf, err)
	assert.Equal(t, 1, strings.Count(buf.String(), "admin only"), buf.String())
}

func TestReportPrintsLocalErrors(t *testing.T) {
	setup(t)

	_, stderr, err := run(t, "order", "show", "abc")
	require.Error(t, err)
	var buf bytes.Buffer
	buf.WriteString(stderr)
	report(&buf, err)
	assert.Equal(t, "invalid id \"abc\"\n", buf.String())
}

func TestWrongPasswordSaysSo(t *testing.T) {
	be := setup(t)
	be.AddUser("alice", "secret", "user")

	_, _, err := run(t, "login", "-u", "alice", "-p", "nope")
	require.Error(t, err)
	var buf bytes.Buffer
	report(&buf, err)
	assert.Contains(t, buf.String(), "wrong username or password")
}

func TestRevokedSessionHint(t *testing.T) {
	be := setup(t)
	be.AddUser("alice", "secret", "user")

	_, _, err := run(t, "login", "-u", "alice", "-p", "secret")
	require.NoError(t, err)
	be.RevokeTokens()

	_, toasts, err := run(t, "order", "list")
	require.Error(t, err)
	assert.Contains(t, toasts, "canteen login")

	out, _, err := run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in.")
}

func TestBadID(t *testing.T) {
	setup(t)

	_, _, err := run(t, "order", "show", "abc")
	assert.EqualError(t, err, `invalid id "abc"`)
}
