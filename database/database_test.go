package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func embeddedMigrations(t *testing.T) fs.FS {
	t.Helper()
	sub, err := fs.Sub(EmbeddedMigrations, "migrations")
	require.NoError(t, err)
	return sub
}

func TestSplitStatements(t *testing.T) {
	sql := `
-- leading comment; with a semicolon
CREATE TABLE a (x TEXT);
INSERT INTO a VALUES ('semi;colon'), ('it''s');
INSERT INTO a VALUES ('tail')`

	got := splitStatements(sql)

	require.Len(t, got, 3)
	assert.Equal(t, "CREATE TABLE a (x TEXT)", got[0])
	assert.Equal(t, "INSERT INTO a VALUES ('semi;colon'), ('it''s')", got[1])
	assert.Equal(t, "INSERT INTO a VALUES ('tail')", got[2])
}

func TestNew_AppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fertpro.db")

	db, err := New(path, embeddedMigrations(t), zap.NewNop())
	require.NoError(t, err)

	applied, err := db.Migrations()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_forum_posts.sql", "002_forum_replies.sql"}, applied)

	var posts int
	require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM forum_posts").Scan(&posts))
	assert.Equal(t, 3, posts)
	require.NoError(t, db.Close())

	// Reopening must not re-run the seed.
	db, err = New(path, embeddedMigrations(t), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM forum_posts").Scan(&posts))
	assert.Equal(t, 3, posts)
}

func TestNew_RecoverableStatementSkipped(t *testing.T) {
	migrations := fstest.MapFS{
		"001_a.sql": {Data: []byte("CREATE TABLE t (a TEXT);")},
		"002_b.sql": {Data: []byte("ALTER TABLE t ADD COLUMN b TEXT; ALTER TABLE t ADD COLUMN b TEXT; CREATE TABLE u (x TEXT);")},
	}

	db, err := New(":memory:", migrations, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE name = 'u'").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestWithTx(t *testing.T) {
	db, err := New(":memory:", fstest.MapFS{
		"001.sql": {Data: []byte("CREATE TABLE kv (k TEXT PRIMARY KEY);")},
	}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	count := func() int {
		var n int
		require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM kv").Scan(&n))
		return n
	}

	t.Run("commit", func(t *testing.T) {
		err := WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "INSERT INTO kv (k) VALUES ('a')")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, count())
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, "INSERT INTO kv (k) VALUES ('b')"); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, count())
	})

	t.Run("rollback on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
				_, _ = tx.ExecContext(ctx, "INSERT INTO kv (k) VALUES ('c')")
				panic("boom")
			})
		})
		assert.Equal(t, 1, count())
	})
}
