// Package dbtest はテスト用の一時sqlite DBを用意する。
package dbtest

import (
	"path/filepath"
	"testing"

	"storefront/internal/infra/db"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// New はテストごとに空のDBを作り、マイグレーション済みで返す。
func New(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}
