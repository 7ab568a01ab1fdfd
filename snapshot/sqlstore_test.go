package snapshot_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eggmove/eggmove/snapshot"
	"github.com/eggmove/eggmove/testhelpers"
)

func TestSQLStoreImportLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dump.db")
	store, err := snapshot.OpenSQLStore(path)
	require.NoError(t, err)

	orig := testhelpers.Sample()
	require.NoError(t, store.Import(ctx, orig))
	// A second import replaces rather than appends.
	require.NoError(t, store.Import(ctx, orig))
	require.NoError(t, store.Close())

	loaded, err := snapshot.Open(ctx, path, snapshot.OpenOptions{})
	require.NoError(t, err)
	assert.Equal(t, orig.Fingerprint(), loaded.Fingerprint())
	assert.Equal(t, orig.SpeciesNames(), loaded.SpeciesNames())
	assert.Len(t, loaded.Records("endure", "x-y"), len(orig.Records("endure", "x-y")))
}

func TestOpenMissingSQLite(t *testing.T) {
	_, err := snapshot.Open(context.Background(), filepath.Join(t.TempDir(), "nope.db"), snapshot.OpenOptions{})
	assert.Error(t, err)
}
