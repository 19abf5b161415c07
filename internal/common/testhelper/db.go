package testhelper

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// NewMemoryDB: in-memory SQLite 기반 gorm DB를 생성합니다.
// AutoMigrate는 호출자가 수행합니다.
func NewMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// in-memory DB는 커넥션마다 별도 DB가 되므로 단일 커넥션 강제
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
