package db

import (
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDatabase opens the SQLite cache database and migrates models.
func InitDatabase(dbPath string) (*gorm.DB, error) {
	newLogger := gormlogger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      false,
			Colorful:                  true,
		},
	)

	conn, err := gorm.Open(gormlite.Open(dbPath), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// The resolver writes from several goroutines; SQLite wants a single writer.
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = conn.AutoMigrate(&CachedAddon{}, &CachedFile{}, &CachedSlug{}, &EditorState{})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return conn, nil
}
