package services

import (
	"fmt"
	"testing"

	"safescan/internal/db"
	"safescan/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB 用内存 SQLite 初始化测试库。
// 每个测试用独立的命名内存库，互不串数据。
func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	err = conn.AutoMigrate(
		&models.User{},
		&models.Ingredient{},
		&models.Product{},
		&models.ProductVote{},
		&models.VoteFingerprint{},
		&models.VoteEvent{},
		&models.Subscription{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	db.DB = conn
}
