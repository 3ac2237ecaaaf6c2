package curse

import (
	"context"
	"sort"
	"sync"

	"modpack-editor/modpack"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const defaultWorkers = 8

// Progress reports a single finished lookup.
type Progress struct {
	Done    int
	Total   int
	Name    string
	Err     error
	AddonID int
}

// MetadataSource is the part of the API the resolver needs.
type MetadataSource interface {
	GetAddon(ctx context.Context, addonID int) (AddonData, error)
	GetFile(ctx context.Context, addonID, fileID int) (FileData, error)
	GetAddonBySlug(ctx context.Context, slug string) (AddonData, error)
}

// Resolver fetches the listing information of every mod in a pack.
type Resolver struct {
	Source   MetadataSource
	Workers  int
	Log      *zap.SugaredLogger
	Progress func(Progress)
}

// NewResolver returns a resolver using at most workers concurrent lookups.
func NewResolver(source MetadataSource, workers int, log *zap.SugaredLogger) *Resolver {
	if workers < 1 {
		workers = defaultWorkers
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Resolver{Source: source, Workers: workers, Log: log}
}

// Resolve looks up every manifest file and every CurseForge additional file
// of pack. Lookups that fail are recorded with an ErrorMessage instead of
// failing the whole pack. An additional file whose slug cannot be resolved is
// stored under a negative ID so it still shows up as an error.
func (r *Resolver) Resolve(ctx context.Context, pack *modpack.Modpack) map[int]modpack.ModInfo {
	info := make(map[int]modpack.ModInfo)
	var mu sync.Mutex

	type additional struct {
		slug   string
		fileID int
		key    int
	}
	var extras []additional
	for i, af := range pack.ServerSetupConfig.Install.AdditionalFiles {
		slug, fileID, ok := modpack.ParseAdditionalFileURL(af.URL)
		if !ok {
			continue
		}
		extras = append(extras, additional{slug: slug, fileID: fileID, key: -(i + 1)})
	}

	total := len(pack.CurseManifest.Files) + len(extras)
	done := 0
	record := func(id int, mod modpack.ModInfo, err error) {
		mu.Lock()
		defer mu.Unlock()
		info[id] = mod
		done++
		if err != nil {
			r.Log.Warnw("Failed to resolve mod", zap.Int("projectID", id), zap.String("slug", mod.Slug), zap.Error(err))
		}
		if r.Progress != nil {
			r.Progress(Progress{Done: done, Total: total, Name: mod.Name, Err: err, AddonID: id})
		}
	}

	workers := r.Workers
	if workers < 1 {
		workers = defaultWorkers
	}
	p := pool.New().WithMaxGoroutines(workers)

	for _, f := range pack.CurseManifest.Files {
		p.Go(func() {
			addon, err := r.Source.GetAddon(ctx, f.ProjectID)
			if err != nil {
				record(f.ProjectID, modpack.ModInfo{ErrorMessage: err.Error(), FileID: f.FileID}, err)
				return
			}
			file, err := r.Source.GetFile(ctx, f.ProjectID, f.FileID)
			if err != nil {
				record(f.ProjectID, modpack.ModInfo{ErrorMessage: err.Error(), Slug: addon.Slug, FileID: f.FileID}, err)
				return
			}
			mod := modInfo(addon, file, f.FileID)
			mod.OnClient = true
			mod.OnServer = !pack.ServerSetupConfig.IsIgnored(f.ProjectID)
			record(f.ProjectID, mod, nil)
		})
	}

	for _, e := range extras {
		p.Go(func() {
			addon, err := r.Source.GetAddonBySlug(ctx, e.slug)
			if err != nil {
				record(e.key, modpack.ModInfo{ErrorMessage: err.Error(), Slug: e.slug, FileID: e.fileID}, err)
				return
			}
			file, err := r.Source.GetFile(ctx, addon.ID, e.fileID)
			if err != nil {
				record(addon.ID, modpack.ModInfo{ErrorMessage: err.Error(), Slug: e.slug, FileID: e.fileID}, err)
				return
			}
			mod := modInfo(addon, file, e.fileID)
			mod.OnServer = true
			record(addon.ID, mod, nil)
		})
	}

	p.Wait()
	addDependants(info)
	return info
}

func modInfo(addon AddonData, file FileData, fileID int) modpack.ModInfo {
	return modpack.ModInfo{
		Name:         addon.Name,
		IconURL:      IconURL(addon),
		Summary:      addon.Summary,
		WebsiteURL:   addon.WebsiteURL,
		Slug:         addon.Slug,
		FileID:       fileID,
		Dependencies: file.Dependencies,
	}
}

// addDependants fills in the reverse of every dependency between mods of
// the pack, ordered by dependant ID.
func addDependants(info map[int]modpack.ModInfo) {
	dependants := make(map[int][]modpack.Dependency)
	for id, mod := range info {
		for _, dep := range mod.Dependencies {
			if _, ok := info[dep.AddonID]; ok {
				dependants[dep.AddonID] = append(dependants[dep.AddonID], modpack.Dependency{AddonID: id, Type: dep.Type})
			}
		}
	}
	for id, deps := range dependants {
		sort.Slice(deps, func(i, j int) bool {
			if deps[i].AddonID != deps[j].AddonID {
				return deps[i].AddonID < deps[j].AddonID
			}
			return deps[i].Type < deps[j].Type
		})
		mod := info[id]
		mod.Dependants = deps
		info[id] = mod
	}
}
