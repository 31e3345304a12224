package migrations

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_Order(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/002_indexes.sql": {Data: []byte("CREATE INDEX a ON b(c);")},
		"sql/001_init.sql":    {Data: []byte("CREATE TABLE b(c INT);")},
		"sql/README.md":       {Data: []byte("ignored")},
	}

	migs, err := Collect(fsys, "sql")
	require.NoError(t, err)
	require.Len(t, migs, 2)

	assert.Equal(t, "001", migs[0].Version)
	assert.Equal(t, "001_init.sql", migs[0].Name)
	assert.Equal(t, "002", migs[1].Version)
	assert.Contains(t, migs[1].SQL, "CREATE INDEX")
}

func TestCollect_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/001_a.sql": {Data: []byte("SELECT 1;")},
		"sql/001_b.sql": {Data: []byte("SELECT 2;")},
	}

	_, err := Collect(fsys, "sql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration version 001")
}

func TestEmbeddedSchema(t *testing.T) {
	migs, err := Collect(Files, Dir)
	require.NoError(t, err)
	require.NotEmpty(t, migs)

	schema := migs[0].SQL
	for _, want := range []string{
		"CONSTRAINT uq_post_user_upvote UNIQUE (post_id, user_id)",
		"CREATE TABLE IF NOT EXISTS conversation_participants",
		"CREATE TABLE IF NOT EXISTS notifications",
		"CREATE TABLE IF NOT EXISTS wishlist",
	} {
		assert.True(t, strings.Contains(schema, want), "schema is missing %q", want)
	}
}
