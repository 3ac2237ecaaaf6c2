package modpack

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
)

// ErrNoSide is returned when a resolved mod is on neither the client nor the server.
var ErrNoSide = errors.New("mod is not on server or client")

const curseProjectsURL = "https://minecraft.curseforge.com/projects/"

var additionalFileURL = regexp.MustCompile(`^https://minecraft\.curseforge\.com/projects/([\w\-]+)/files/(\d+)/`)

// FileNameResolver looks up the on-disk file name of a CurseForge file.
type FileNameResolver interface {
	FileName(ctx context.Context, slug string, fileID int) (string, error)
}

// ParseAdditionalFileURL extracts the project slug and file ID from a
// CurseForge download URL.
func ParseAdditionalFileURL(url string) (slug string, fileID int, ok bool) {
	matches := additionalFileURL.FindStringSubmatch(url)
	if len(matches) < 3 {
		return "", 0, false
	}
	fileID, err := strconv.Atoi(matches[2])
	if err != nil {
		return "", 0, false
	}
	return matches[1], fileID, true
}

// AdditionalFileFor builds the additionalFiles entry that installs fileID of
// the project slug on the server.
func AdditionalFileFor(ctx context.Context, names FileNameResolver, slug string, fileID int) (AdditionalFile, error) {
	name, err := names.FileName(ctx, slug, fileID)
	if err != nil {
		return AdditionalFile{}, fmt.Errorf("failed to look up file %d of %s: %w", fileID, slug, err)
	}
	return AdditionalFile{
		URL:         fmt.Sprintf("%s%s/files/%d/download", curseProjectsURL, slug, fileID),
		Destination: "mods/" + name,
	}, nil
}

// ReconcileModLists rewrites the manifest files, the server ignore list and
// the server additional files so that they match Mods, preserving the order
// of entries that stay. Client mods live in the manifest files, client-only
// mods are also ignored by the server, and server-only mods are installed
// through additional files. Errored mods keep whatever entries they had.
// A pack whose mods were never resolved (nil Mods) is left as it is. On error
// none of the three lists is changed.
func (m *Modpack) ReconcileModLists(ctx context.Context, names FileNameResolver) error {
	if m.Mods == nil {
		return nil
	}
	ids := make([]int, 0, len(m.Mods))
	for id, mod := range m.Mods {
		if !mod.Errored() && !mod.OnClient && !mod.OnServer {
			return fmt.Errorf("%w: %d", ErrNoSide, id)
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	additional, err := m.reconcileAdditionalFiles(ctx, names, ids)
	if err != nil {
		return err
	}
	files := m.reconcileFiles(ids)
	ignored := m.reconcileIgnoreProject(ids)

	m.CurseManifest.Files = files
	m.ServerSetupConfig.Install.FormatSpecific.IgnoreProject = ignored
	m.ServerSetupConfig.Install.AdditionalFiles = additional
	return nil
}

func (m *Modpack) reconcileFiles(ids []int) []ManifestFile {
	present := make(map[int]bool)
	files := []ManifestFile{}
	for _, f := range m.CurseManifest.Files {
		mod, ok := m.Mods[f.ProjectID]
		if !ok || present[f.ProjectID] {
			continue
		}
		if !mod.Errored() {
			if !mod.OnClient {
				continue
			}
			if mod.FileID != 0 {
				f.FileID = mod.FileID
			}
		}
		present[f.ProjectID] = true
		files = append(files, f)
	}
	for _, id := range ids {
		mod := m.Mods[id]
		if id <= 0 || present[id] || mod.Errored() || !mod.OnClient {
			continue
		}
		files = append(files, ManifestFile{ProjectID: id, FileID: mod.FileID, Required: true})
	}
	return files
}

func (m *Modpack) reconcileIgnoreProject(ids []int) []int {
	clientOnly := func(mod ModInfo) bool {
		return mod.OnClient && !mod.OnServer
	}

	present := make(map[int]bool)
	ignored := []int{}
	for _, id := range m.ServerSetupConfig.Install.FormatSpecific.IgnoreProject {
		mod, ok := m.Mods[id]
		if !ok || present[id] || (!mod.Errored() && !clientOnly(mod)) {
			continue
		}
		present[id] = true
		ignored = append(ignored, id)
	}
	for _, id := range ids {
		mod := m.Mods[id]
		if id <= 0 || present[id] || mod.Errored() || !clientOnly(mod) {
			continue
		}
		ignored = append(ignored, id)
	}
	return ignored
}

func (m *Modpack) reconcileAdditionalFiles(ctx context.Context, names FileNameResolver, ids []int) ([]AdditionalFile, error) {
	claimed := make(map[string]ModInfo)
	for _, id := range ids {
		mod := m.Mods[id]
		if mod.Slug == "" {
			continue
		}
		if mod.Errored() || (!mod.OnClient && mod.OnServer) {
			claimed[mod.Slug] = mod
		}
	}

	done := make(map[string]bool)
	files := []AdditionalFile{}
	for _, af := range m.ServerSetupConfig.Install.AdditionalFiles {
		slug, fileID, ok := ParseAdditionalFileURL(af.URL)
		if !ok {
			// Not a CurseForge download; not ours to manage.
			files = append(files, af)
			continue
		}
		mod, ok := claimed[slug]
		if !ok || done[slug] {
			continue
		}
		done[slug] = true
		if !mod.Errored() && mod.FileID != 0 && mod.FileID != fileID {
			updated, err := AdditionalFileFor(ctx, names, slug, mod.FileID)
			if err != nil {
				return nil, err
			}
			af = updated
		}
		files = append(files, af)
	}

	for _, id := range ids {
		mod := m.Mods[id]
		if mod.Errored() || mod.OnClient || !mod.OnServer {
			continue
		}
		if mod.Slug == "" {
			return nil, fmt.Errorf("server-only mod %d has no slug", id)
		}
		if done[mod.Slug] {
			continue
		}
		af, err := AdditionalFileFor(ctx, names, mod.Slug, mod.FileID)
		if err != nil {
			return nil, err
		}
		done[mod.Slug] = true
		files = append(files, af)
	}
	return files, nil
}
