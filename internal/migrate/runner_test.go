package migrate

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/iqrf-gateway/db"
)

func TestDiscoverUpMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_nodes_up.sql":    {Data: []byte("SELECT 2")},
		"0001_init_up.sql":     {Data: []byte("SELECT 1")},
		"0001_init_down.sql":   {Data: []byte("SELECT 0")},
		"readme.md":            {Data: []byte("x")},
		"abc_up.sql":           {Data: []byte("SELECT 9")},
		"sub/0010_more_up.sql": {Data: []byte("SELECT 10")},
	}
	files, err := Runner{}.discoverUpMigrations(fsys)
	require.NoError(t, err)

	var versions []int64
	for _, f := range files {
		versions = append(versions, f.Version)
	}
	assert.Equal(t, []int64{1, 2, 10}, versions)
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := Runner{}.discoverUpMigrations(db.Migrations)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, int64(1), files[0].Version)
}

func TestRunnerSource(t *testing.T) {
	_, err := Runner{}.source()
	assert.Error(t, err)

	src, err := Runner{FS: db.Migrations}.source()
	require.NoError(t, err)
	assert.NotNil(t, src)
}

func TestDiscoverDownMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_init_up.sql":    {Data: []byte("SELECT 1")},
		"0001_init_down.sql":  {Data: []byte("SELECT 0")},
		"0002_nodes_down.sql": {Data: []byte("SELECT 0")},
	}
	files, err := discover(fsys, "down")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "0002_nodes_down.sql", files[1].Path)
}
