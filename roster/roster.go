// Package roster holds the ordered, editable view of the mods in a loaded
// modpack: display order, client/server flags and the pending-delete marker.
//
// A Roster is not safe for concurrent use. Callers that share one across
// goroutines must serialize access themselves.
package roster

import (
	"slices"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Key identifies a mod in the roster, normally its CurseForge project ID.
type Key string

// Entry is the metadata shown for one mod. An entry with a non-empty
// ErrorMessage is errored and its other fields are not meaningful.
type Entry struct {
	Name         string
	Summary      string
	IconURL      string
	WebsiteURL   string
	OnClient     bool
	OnServer     bool
	ErrorMessage string
}

// Errored reports whether the entry is missing or failed to resolve.
func (e *Entry) Errored() bool {
	return e == nil || e.ErrorMessage != ""
}

// Row is a render descriptor for one roster key.
type Row struct {
	Key           Key
	Errored       bool
	ErrorMessage  string
	Name          string
	Summary       string
	IconURL       string
	WebsiteURL    string
	OnClient      bool
	OnServer      bool
	PendingDelete bool
}

// Roster owns the mod entries of a pack and their display order.
type Roster struct {
	entries    map[Key]*Entry
	order      []Key
	pending    Key
	hasPending bool
	collator   *collate.Collator
}

// New returns an empty roster. It has no order until Initialize is called.
func New() *Roster {
	return &Roster{
		entries:  make(map[Key]*Entry),
		collator: collate.New(language.Und, collate.IgnoreCase),
	}
}

// Initialize replaces the roster contents and computes the display order.
//
// encounter is the order keys were met in the pack; it decides the relative
// order of missing and errored entries, and breaks name ties between resolved
// ones. Keys of entries that do not appear in encounter are appended in
// ascending lexical order, so "10" sorts before "9". Keys in encounter
// without an entry are kept and treated as errored. The roster takes
// ownership of entries.
func (r *Roster) Initialize(entries map[Key]*Entry, encounter []Key) {
	if entries == nil {
		entries = make(map[Key]*Entry)
	}

	seen := make(map[Key]bool, len(entries))
	keys := make([]Key, 0, len(entries))
	for _, k := range encounter {
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	var extra []Key
	for k := range entries {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	keys = append(keys, extra...)

	var errored, resolved []Key
	for _, k := range keys {
		e := entries[k]
		if e.Errored() {
			errored = append(errored, k)
			continue
		}
		// An entry on neither side is normalised to the client, where manifest files live.
		if !e.OnClient && !e.OnServer {
			e.OnClient = true
		}
		resolved = append(resolved, k)
	}
	sort.SliceStable(resolved, func(i, j int) bool {
		return r.collator.CompareString(entries[resolved[i]].Name, entries[resolved[j]].Name) < 0
	})

	r.entries = entries
	r.order = append(errored, resolved...)
	r.pending = ""
	r.hasPending = false
}

// RequestDelete marks key as awaiting delete confirmation, replacing any
// previously pending key. The key is not validated.
func (r *Roster) RequestDelete(key Key) bool {
	if r.hasPending && r.pending == key {
		return false
	}
	r.pending = key
	r.hasPending = true
	return true
}

// ConfirmDelete removes the pending key from both the entries and the order,
// leaving the order of the remaining keys untouched. It returns the key and
// whether anything was removed. With nothing pending it does nothing.
func (r *Roster) ConfirmDelete() (Key, bool) {
	if !r.hasPending {
		return "", false
	}
	key := r.pending
	r.pending = ""
	r.hasPending = false

	_, inEntries := r.entries[key]
	delete(r.entries, key)
	idx := slices.Index(r.order, key)
	if idx >= 0 {
		r.order = slices.Delete(r.order, idx, idx+1)
	}
	return key, inEntries || idx >= 0
}

// CancelDelete clears the pending marker. It reports whether one was set.
func (r *Roster) CancelDelete() bool {
	if !r.hasPending {
		return false
	}
	r.pending = ""
	r.hasPending = false
	return true
}

// ToggleClient flips OnClient for key. Turning the client off on a mod that is
// not on the server moves it to the server instead of leaving it nowhere.
func (r *Roster) ToggleClient(key Key) bool {
	e, ok := r.resolved(key)
	if !ok {
		return false
	}
	if e.OnClient && !e.OnServer {
		e.OnServer = true
	}
	e.OnClient = !e.OnClient
	return true
}

// ToggleServer is the server-side counterpart of ToggleClient.
func (r *Roster) ToggleServer(key Key) bool {
	e, ok := r.resolved(key)
	if !ok {
		return false
	}
	if e.OnServer && !e.OnClient {
		e.OnClient = true
	}
	e.OnServer = !e.OnServer
	return true
}

func (r *Roster) resolved(key Key) (*Entry, bool) {
	e, ok := r.entries[key]
	if !ok || e.Errored() {
		return nil, false
	}
	return e, true
}

// Order returns a copy of the current display order.
func (r *Roster) Order() []Key {
	return slices.Clone(r.order)
}

// Pending returns the key awaiting delete confirmation, if any.
func (r *Roster) Pending() (Key, bool) {
	return r.pending, r.hasPending
}

// Entry returns a copy of the entry for key.
func (r *Roster) Entry(key Key) (Entry, bool) {
	e, ok := r.entries[key]
	if !ok || e == nil {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of keys in the display order.
func (r *Roster) Len() int {
	return len(r.order)
}

// Rows returns one render descriptor per key, in display order.
func (r *Roster) Rows() []Row {
	rows := make([]Row, 0, len(r.order))
	for _, k := range r.order {
		rows = append(rows, r.row(k))
	}
	return rows
}

func (r *Roster) row(k Key) Row {
	row := Row{Key: k, PendingDelete: r.hasPending && r.pending == k}
	e := r.entries[k]
	if e.Errored() {
		row.Errored = true
		if e != nil {
			row.ErrorMessage = e.ErrorMessage
		}
		return row
	}
	row.Name = e.Name
	row.Summary = e.Summary
	row.IconURL = e.IconURL
	row.WebsiteURL = e.WebsiteURL
	row.OnClient = e.OnClient
	row.OnServer = e.OnServer
	return row
}
