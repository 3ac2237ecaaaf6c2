// Package session holds the modpack being edited and its mod roster.
package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"

	"modpack-editor/modpack"
	"modpack-editor/roster"
)

var (
	// ErrStaleLoad is returned by Commit when a newer load has started since
	// the given generation was issued.
	ErrStaleLoad = errors.New("a newer modpack load superseded this one")
	// ErrNoPack is returned by operations that need a loaded modpack.
	ErrNoPack = errors.New("no modpack loaded")
	// ErrUnknownAction is returned by Apply for an action it does not know.
	ErrUnknownAction = errors.New("unknown roster action")
	// ErrPackChanged is returned by Save when the modpack was replaced or
	// edited while it was being reconciled. Nothing is written.
	ErrPackChanged = errors.New("modpack changed while saving")
)

// Generation identifies one load request. Installing a pack by any means
// starts a new generation.
type Generation uint64

// Resolver looks up the mod list of a pack.
type Resolver interface {
	Resolve(ctx context.Context, pack *modpack.Modpack) map[int]modpack.ModInfo
}

// Action is a roster operation driven by the user.
type Action string

const (
	RequestDelete Action = "requestDelete"
	ConfirmDelete Action = "confirmDelete"
	CancelDelete  Action = "cancelDelete"
	ToggleClient  Action = "toggleClient"
	ToggleServer  Action = "toggleServer"
)

// Session is the editing state shared by every request. The roster is not
// safe for concurrent use; the session serializes access to it.
type Session struct {
	mu     sync.RWMutex
	gen    Generation
	edits  uint64 // bumped on every change to pack
	pack   *modpack.Modpack
	roster *roster.Roster
}

// New returns a session with nothing loaded.
func New() *Session {
	return &Session{roster: roster.New()}
}

// BeginLoad starts a new load and returns its generation. Any load started
// earlier can no longer be committed.
func (s *Session) BeginLoad() Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// Commit installs pack as the current modpack if gen is still the latest
// load, and rebuilds the roster from its mods.
func (s *Session) Commit(gen Generation, pack *modpack.Modpack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return fmt.Errorf("%w: generation %d, current %d", ErrStaleLoad, gen, s.gen)
	}
	s.install(pack)
	return nil
}

// Update replaces the current modpack, for example with one edited by a client.
// Loads and lazy resolutions started before it are discarded.
func (s *Session) Update(pack *modpack.Modpack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.install(pack)
}

func (s *Session) install(pack *modpack.Modpack) {
	s.pack = pack
	s.edits++
	if pack == nil || pack.Mods == nil {
		s.roster.Initialize(nil, nil)
		return
	}
	entries, order := RosterFromMods(pack.Mods, pack.ProjectKeys())
	s.roster.Initialize(entries, order)
	s.syncAll()
}

// Load reads the pack in folder, resolves its mods and makes it current.
// With a nil resolver the mod list is left unresolved until Mods is called.
// If another load starts meanwhile, this one is dropped with ErrStaleLoad.
func (s *Session) Load(ctx context.Context, folder string, resolver Resolver) (*modpack.Modpack, error) {
	gen := s.BeginLoad()
	pack, err := modpack.Load(folder)
	if err != nil {
		return nil, err
	}
	if resolver != nil {
		pack.Mods = resolver.Resolve(ctx, pack)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if err := s.Commit(gen, pack); err != nil {
		return nil, err
	}
	return clonePack(pack), nil
}

// Create writes a blank pack into folder and makes it current.
func (s *Session) Create(folder string) (*modpack.Modpack, error) {
	gen := s.BeginLoad()
	pack, err := modpack.Create(folder)
	if err != nil {
		return nil, err
	}
	if err := s.Commit(gen, pack); err != nil {
		return nil, err
	}
	return clonePack(pack), nil
}

// Reload reads the current folder again.
func (s *Session) Reload(ctx context.Context, resolver Resolver) (*modpack.Modpack, error) {
	s.mu.RLock()
	if s.pack == nil {
		s.mu.RUnlock()
		return nil, ErrNoPack
	}
	folder := s.pack.Folder
	s.mu.RUnlock()
	return s.Load(ctx, folder, resolver)
}

// Current returns a copy of the current modpack, or nil.
func (s *Session) Current() *modpack.Modpack {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePack(s.pack)
}

// Mods returns the resolved mod list of the current modpack, resolving it
// first if the pack was created without one.
func (s *Session) Mods(ctx context.Context, resolver Resolver) (map[int]modpack.ModInfo, error) {
	s.mu.RLock()
	pack := clonePack(s.pack)
	gen := s.gen
	s.mu.RUnlock()
	if pack == nil {
		return nil, ErrNoPack
	}
	if pack.Mods != nil {
		return pack.Mods, nil
	}

	pack.Mods = resolver.Resolve(ctx, pack)
	if err := s.Commit(gen, pack); err != nil {
		return nil, err
	}
	return maps.Clone(pack.Mods), nil
}

// Save reconciles and writes the current modpack. Reconciliation may look
// up file names over the network, so it runs on a copy without holding the
// lock; the copy replaces the current pack only if nothing changed
// meanwhile. A failed save leaves the current pack untouched.
func (s *Session) Save(ctx context.Context, names modpack.FileNameResolver) error {
	s.mu.RLock()
	pack := clonePack(s.pack)
	edits := s.edits
	s.mu.RUnlock()
	if pack == nil {
		return ErrNoPack
	}

	if err := pack.ReconcileModLists(ctx, names); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edits != edits {
		return ErrPackChanged
	}
	if err := pack.WriteFiles(); err != nil {
		return err
	}
	s.pack = pack
	s.edits++
	return nil
}

// Rows returns the roster rows in display order.
func (s *Session) Rows() []roster.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Rows()
}

// Pending returns the key awaiting delete confirmation, if any.
func (s *Session) Pending() (roster.Key, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Pending()
}

// Apply runs action on the roster and mirrors the result into the mod list
// of the current modpack. It reports whether the roster needs re-rendering
// along with the rows after the action.
func (s *Session) Apply(action Action, key roster.Key) (bool, []roster.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pack == nil {
		return false, nil, ErrNoPack
	}

	var rerender bool
	switch action {
	case RequestDelete:
		rerender = s.roster.RequestDelete(key)
	case ConfirmDelete:
		var removed roster.Key
		removed, rerender = s.roster.ConfirmDelete()
		if rerender {
			s.deleteMod(removed)
		}
	case CancelDelete:
		rerender = s.roster.CancelDelete()
	case ToggleClient:
		rerender = s.roster.ToggleClient(key)
		s.sync(key)
	case ToggleServer:
		rerender = s.roster.ToggleServer(key)
		s.sync(key)
	default:
		return false, nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return rerender, s.roster.Rows(), nil
}

func (s *Session) deleteMod(key roster.Key) {
	id, err := strconv.Atoi(string(key))
	if err != nil || s.pack.Mods == nil {
		return
	}
	mods := maps.Clone(s.pack.Mods)
	delete(mods, id)
	s.pack.Mods = mods
	s.edits++
}

// sync copies the side flags of key from the roster into the mod list.
func (s *Session) sync(key roster.Key) {
	entry, ok := s.roster.Entry(key)
	if !ok || entry.Errored() {
		return
	}
	id, err := strconv.Atoi(string(key))
	if err != nil {
		return
	}
	mod, ok := s.pack.Mods[id]
	if !ok || (mod.OnClient == entry.OnClient && mod.OnServer == entry.OnServer) {
		return
	}
	mods := maps.Clone(s.pack.Mods)
	mod.OnClient = entry.OnClient
	mod.OnServer = entry.OnServer
	mods[id] = mod
	s.pack.Mods = mods
	s.edits++
}

func (s *Session) syncAll() {
	for _, key := range s.roster.Order() {
		s.sync(key)
	}
}

// RosterFromMods builds roster entries from a mod list. keys is the order
// the projects appear in the pack; mods not listed in keys follow in
// ascending numeric order.
func RosterFromMods(mods map[int]modpack.ModInfo, keys []string) (map[roster.Key]*roster.Entry, []roster.Key) {
	entries := make(map[roster.Key]*roster.Entry, len(mods))
	listed := make(map[string]bool, len(keys))
	for _, k := range keys {
		listed[k] = true
	}
	var unlisted []int
	for id, mod := range mods {
		if !listed[strconv.Itoa(id)] {
			unlisted = append(unlisted, id)
		}
		entries[roster.Key(strconv.Itoa(id))] = &roster.Entry{
			Name:         mod.Name,
			Summary:      mod.Summary,
			IconURL:      mod.IconURL,
			WebsiteURL:   mod.WebsiteURL,
			OnClient:     mod.OnClient,
			OnServer:     mod.OnServer,
			ErrorMessage: mod.ErrorMessage,
		}
	}
	slices.Sort(unlisted)

	order := make([]roster.Key, 0, len(keys)+len(unlisted))
	for _, k := range keys {
		order = append(order, roster.Key(k))
	}
	for _, id := range unlisted {
		order = append(order, roster.Key(strconv.Itoa(id)))
	}
	return entries, order
}

// clonePack copies pack deep enough that the copy's mod list can be read
// while the session keeps editing its own pack.
func clonePack(pack *modpack.Modpack) *modpack.Modpack {
	if pack == nil {
		return nil
	}
	c := *pack
	c.Mods = maps.Clone(pack.Mods)
	return &c
}
