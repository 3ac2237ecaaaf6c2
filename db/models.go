package db

import (
	"time"

	"gorm.io/gorm"
)

// CachedAddon is the last API response seen for a CurseForge project
type CachedAddon struct {
	gorm.Model
	AddonID     int       `gorm:"uniqueIndex"` // CurseForge project ID
	Payload     []byte    // Raw JSON as returned by the API
	LastQueried time.Time // Entries older than the configured TTL are refetched
}

// CachedFile is the last API response seen for a CurseForge file
type CachedFile struct {
	gorm.Model
	FileID  int `gorm:"uniqueIndex"`
	AddonID int
	Payload []byte
}

// CachedSlug maps a project slug to its ID
type CachedSlug struct {
	gorm.Model
	Slug    string `gorm:"uniqueIndex"`
	AddonID int
}

// EditorState holds editor settings that outlive a session. There is a single row.
type EditorState struct {
	gorm.Model
	LastOpenedModpack string
}
