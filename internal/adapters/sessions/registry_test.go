package sessions

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okunev/nutfarm/internal/domain"
)

func newRegistry(t *testing.T) (*Registry, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "sessions")
	config := viper.New()
	config.Set("sessions.dir", dir)

	registry, err := NewRegistry(config)
	require.NoError(t, err)
	return registry, dir
}

func writeSession(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("opaque"), 0o600))
}

func TestRegistryListMissingDirIsEmpty(t *testing.T) {
	t.Parallel()

	registry, _ := newRegistry(t)

	accounts, err := registry.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestRegistryListsSessionFilesOnly(t *testing.T) {
	t.Parallel()

	registry, dir := newRegistry(t)
	writeSession(t, dir, "79001234567.session")
	writeSession(t, dir, "79009999999.session")
	writeSession(t, dir, "notes.txt")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "backup.session"), 0o700))

	accounts, err := registry.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, domain.AccountID("79001234567"), accounts[0].ID)
	assert.Equal(t, domain.AccountID("79009999999"), accounts[1].ID)
	assert.Equal(t, filepath.Join(dir, "79001234567.session"), accounts[0].SessionPath)
}

func TestRegistryGet(t *testing.T) {
	t.Parallel()

	registry, dir := newRegistry(t)
	writeSession(t, dir, "79001234567.session")

	account, err := registry.Get(context.Background(), "79001234567")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "79001234567.session"), account.SessionPath)

	_, err = registry.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestRegistryPathForSanitizesPhone(t *testing.T) {
	t.Parallel()

	registry, dir := newRegistry(t)

	assert.Equal(t, filepath.Join(dir, "79001234567.session"), registry.PathFor("+7 900 123 45 67"))
}
