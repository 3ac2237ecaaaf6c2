package db

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cache stores CurseForge API responses between runs. A nil *Cache is a
// disabled cache: lookups miss and writes are dropped.
type Cache struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// Stats summarises the cache contents.
type Stats struct {
	Addons int64
	Files  int64
	Slugs  int64
}

// NewCache wraps an open database. Addon entries older than ttl are treated
// as missing.
func NewCache(conn *gorm.DB, ttl time.Duration) *Cache {
	return &Cache{db: conn, ttl: ttl, now: time.Now}
}

// Addon returns the cached payload for a project if it is fresh enough.
func (c *Cache) Addon(addonID int) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	var row CachedAddon
	if err := c.db.Where("addon_id = ?", addonID).First(&row).Error; err != nil {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(row.LastQueried) >= c.ttl {
		return nil, false
	}
	return row.Payload, true
}

// PutAddon stores the payload for a project and stamps it with the current time.
func (c *Cache) PutAddon(addonID int, payload []byte) error {
	if c == nil {
		return nil
	}
	row := CachedAddon{AddonID: addonID, Payload: payload, LastQueried: c.now()}
	return c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "addon_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "last_queried", "updated_at"}),
	}).Create(&row).Error
}

// File returns the cached payload for a file. Files never change once
// published, so they do not expire.
func (c *Cache) File(fileID int) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	var row CachedFile
	if err := c.db.Where("file_id = ?", fileID).First(&row).Error; err != nil {
		return nil, false
	}
	return row.Payload, true
}

// PutFile stores the payload for a file.
func (c *Cache) PutFile(addonID, fileID int, payload []byte) error {
	if c == nil {
		return nil
	}
	row := CachedFile{FileID: fileID, AddonID: addonID, Payload: payload}
	return c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"addon_id", "payload", "updated_at"}),
	}).Create(&row).Error
}

// SlugID returns the project ID cached for slug.
func (c *Cache) SlugID(slug string) (int, bool) {
	if c == nil {
		return 0, false
	}
	var row CachedSlug
	if err := c.db.Where("slug = ?", slug).First(&row).Error; err != nil {
		return 0, false
	}
	return row.AddonID, true
}

// PutSlug records the project ID of slug.
func (c *Cache) PutSlug(slug string, addonID int) error {
	if c == nil {
		return nil
	}
	row := CachedSlug{Slug: slug, AddonID: addonID}
	return c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"addon_id", "updated_at"}),
	}).Create(&row).Error
}

// LastOpened returns the folder of the pack opened most recently.
func (c *Cache) LastOpened() (string, bool) {
	if c == nil {
		return "", false
	}
	var state EditorState
	if err := c.db.First(&state).Error; err != nil {
		return "", false
	}
	return state.LastOpenedModpack, state.LastOpenedModpack != ""
}

// SetLastOpened remembers folder as the pack opened most recently.
func (c *Cache) SetLastOpened(folder string) error {
	if c == nil {
		return nil
	}
	var state EditorState
	err := c.db.First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.db.Create(&EditorState{LastOpenedModpack: folder}).Error
	}
	if err != nil {
		return err
	}
	state.LastOpenedModpack = folder
	return c.db.Save(&state).Error
}

// Prune deletes addon entries last queried before cutoff and returns how
// many were removed.
func (c *Cache) Prune(cutoff time.Time) (int64, error) {
	if c == nil {
		return 0, nil
	}
	result := c.db.Unscoped().Where("last_queried < ?", cutoff).Delete(&CachedAddon{})
	return result.RowsAffected, result.Error
}

// Clear removes every cached API response. Editor state is kept.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	return c.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&CachedAddon{}, &CachedFile{}, &CachedSlug{}} {
			if err := tx.Unscoped().Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Stats counts the cached entries.
func (c *Cache) Stats() (Stats, error) {
	var s Stats
	if c == nil {
		return s, nil
	}
	if err := c.db.Model(&CachedAddon{}).Count(&s.Addons).Error; err != nil {
		return s, err
	}
	if err := c.db.Model(&CachedFile{}).Count(&s.Files).Error; err != nil {
		return s, err
	}
	if err := c.db.Model(&CachedSlug{}).Count(&s.Slugs).Error; err != nil {
		return s, err
	}
	return s, nil
}
