package modpack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingField is returned when a manifest lacks a required key.
var ErrMissingField = errors.New("missing required field")

// CurseManifest is a Curse manifest.json file.
type CurseManifest struct {
	Minecraft       Minecraft      `json:"minecraft"`
	ManifestType    string         `json:"manifestType"`
	ManifestVersion int            `json:"manifestVersion"`
	Name            string         `json:"name"`
	Version         string         `json:"version"`
	Author          string         `json:"author"`
	ProjectID       int            `json:"projectID"`
	Files           []ManifestFile `json:"files"`
	Overrides       string         `json:"overrides"`
}

// Minecraft is the target game version and mod loaders of a manifest.
type Minecraft struct {
	Version    string     `json:"version"`
	ModLoaders ModLoaders `json:"modLoaders"`
}

// ManifestFile references a CurseForge file that the client installs.
type ManifestFile struct {
	ProjectID int  `json:"projectID"`
	FileID    int  `json:"fileID"`
	Required  bool `json:"required"`
}

var requiredManifestKeys = []string{"minecraft", "name", "version", "author", "projectID", "files", "overrides"}

var requiredMinecraftKeys = []string{"version", "modLoaders"}

// ParseManifest decodes and validates a manifest. Keys that are absent or
// null are rejected with an error wrapping ErrMissingField.
func ParseManifest(data []byte) (CurseManifest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return CurseManifest{}, fmt.Errorf("invalid manifest: %w", err)
	}
	if err := checkKeys(raw, "", requiredManifestKeys); err != nil {
		return CurseManifest{}, err
	}

	var mc map[string]json.RawMessage
	if err := json.Unmarshal(raw["minecraft"], &mc); err != nil {
		return CurseManifest{}, fmt.Errorf("invalid manifest: minecraft: %w", err)
	}
	if err := checkKeys(mc, "minecraft.", requiredMinecraftKeys); err != nil {
		return CurseManifest{}, err
	}

	var m CurseManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return CurseManifest{}, fmt.Errorf("invalid manifest: %w", err)
	}
	if m.Minecraft.ModLoaders == nil {
		m.Minecraft.ModLoaders = ModLoaders{}
	}
	if m.Files == nil {
		m.Files = []ManifestFile{}
	}
	return m, nil
}

func checkKeys(raw map[string]json.RawMessage, prefix string, keys []string) error {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return fmt.Errorf("%w: %s%s", ErrMissingField, prefix, k)
		}
	}
	return nil
}

// MarshalIndent serializes the manifest as JSON indented with two spaces.
func (m *CurseManifest) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// HasFile reports whether projectID is listed in the manifest files.
func (m *CurseManifest) HasFile(projectID int) bool {
	for _, f := range m.Files {
		if f.ProjectID == projectID {
			return true
		}
	}
	return false
}
