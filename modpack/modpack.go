// Package modpack loads, edits and saves a modpack folder made of a Curse
// manifest.json and a ServerStarter server-setup-config.yaml.
package modpack

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
)

const (
	ManifestFileName     = "manifest.json"
	ServerConfigFileName = "server-setup-config.yaml"
)

// ErrPackExists is returned by Create when the target folder already exists.
var ErrPackExists = errors.New("pack already exists")

//go:embed blank
var blankPack embed.FS

// Modpack is a modpack being edited. Mods is nil until the mod list has
// been resolved.
type Modpack struct {
	Folder            string
	CurseManifest     CurseManifest
	ServerSetupConfig ServerSetupConfig
	Mods              map[int]ModInfo
}

// Dependency links a mod file to another project.
type Dependency struct {
	AddonID int    `json:"addOnId"`
	Type    string `json:"type"`
}

// ModInfo is the listing information for one mod of the pack. A non-empty
// ErrorMessage means the mod could not be resolved.
type ModInfo struct {
	Name         string
	IconURL      string
	ErrorMessage string `json:",omitempty"`
	Summary      string
	WebsiteURL   string
	Slug         string
	OnClient     bool
	OnServer     bool
	FileID       int
	Dependencies []Dependency
	Dependants   []Dependency
}

// Errored reports whether the mod failed to resolve.
func (m ModInfo) Errored() bool {
	return m.ErrorMessage != ""
}

// Load reads the pack in folder. On error no Modpack is returned.
func Load(folder string) (*Modpack, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, err
	}

	manifestData, err := os.ReadFile(filepath.Join(abs, ManifestFileName))
	if err != nil {
		return nil, err
	}
	manifest, err := ParseManifest(manifestData)
	if err != nil {
		return nil, err
	}

	configData, err := os.ReadFile(filepath.Join(abs, ServerConfigFileName))
	if err != nil {
		return nil, err
	}
	config, err := ParseServerSetupConfig(configData)
	if err != nil {
		return nil, err
	}

	return &Modpack{
		Folder:            abs,
		CurseManifest:     manifest,
		ServerSetupConfig: config,
	}, nil
}

// Create writes a blank pack into folder, which must not exist yet, and
// loads it.
func Create(folder string) (*Modpack, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, err
	}
	if stat, err := os.Stat(abs); err == nil && stat.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrPackExists, abs)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, err
	}

	err = fs.WalkDir(blankPack, "blank", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := blankPack.ReadFile(p)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(abs, path.Base(p)), data, 0644)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write blank pack: %w", err)
	}
	pack, err := Load(abs)
	if err != nil {
		return nil, err
	}
	pack.Mods = make(map[int]ModInfo)
	return pack, nil
}

// Save reconciles the mod list into the manifest and server config, then
// writes both files.
func (m *Modpack) Save(ctx context.Context, names FileNameResolver) error {
	if err := m.ReconcileModLists(ctx, names); err != nil {
		return err
	}
	return m.WriteFiles()
}

// WriteFiles writes the manifest and server config as they are.
func (m *Modpack) WriteFiles() error {
	manifest, err := m.CurseManifest.MarshalIndent()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(m.Folder, ManifestFileName), manifest, 0644); err != nil {
		return err
	}

	config, err := m.ServerSetupConfig.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.Folder, ServerConfigFileName), config, 0664)
}

// ProjectKeys returns the project IDs of the pack in the order they appear:
// manifest files first, then mods only known from additional files.
func (m *Modpack) ProjectKeys() []string {
	seen := make(map[int]bool, len(m.Mods))
	keys := make([]string, 0, len(m.Mods))
	for _, f := range m.CurseManifest.Files {
		if !seen[f.ProjectID] {
			seen[f.ProjectID] = true
			keys = append(keys, strconv.Itoa(f.ProjectID))
		}
	}
	for _, af := range m.ServerSetupConfig.Install.AdditionalFiles {
		slug, _, ok := ParseAdditionalFileURL(af.URL)
		if !ok {
			continue
		}
		for id, mod := range m.Mods {
			if mod.Slug == slug && !seen[id] {
				seen[id] = true
				keys = append(keys, strconv.Itoa(id))
			}
		}
	}
	return keys
}
