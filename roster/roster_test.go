package roster

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolvedEntry(name string) *Entry {
	return &Entry{Name: name, OnClient: true, OnServer: true}
}

func newRoster(entries map[Key]*Entry, encounter ...Key) *Roster {
	r := New()
	r.Initialize(entries, encounter)
	return r
}

func TestInitializeOrder(t *testing.T) {
	t.Run("errored entries sort first", func(t *testing.T) {
		r := newRoster(map[Key]*Entry{
			"A": resolvedEntry("Zeta"),
			"B": {ErrorMessage: "x"},
			"C": resolvedEntry("Alpha"),
		}, "A", "B", "C")

		assert.Equal(t, []Key{"B", "C", "A"}, r.Order())
	})

	t.Run("missing entries sort first in encounter order", func(t *testing.T) {
		r := newRoster(map[Key]*Entry{
			"1": resolvedEntry("Botania"),
			"3": {ErrorMessage: "not found"},
		}, "1", "2", "3", "4")

		assert.Equal(t, []Key{"2", "3", "4", "1"}, r.Order())
	})

	t.Run("name comparison ignores case", func(t *testing.T) {
		r := newRoster(map[Key]*Entry{
			"1": resolvedEntry("jei"),
			"2": resolvedEntry("Applied Energistics 2"),
			"3": resolvedEntry("Mekanism"),
		}, "1", "2", "3")

		assert.Equal(t, []Key{"2", "1", "3"}, r.Order())
	})

	t.Run("ties keep encounter order", func(t *testing.T) {
		r := newRoster(map[Key]*Entry{
			"z": resolvedEntry("Same"),
			"a": resolvedEntry("Same"),
			"m": resolvedEntry("Same"),
		}, "z", "a", "m")

		assert.Equal(t, []Key{"z", "a", "m"}, r.Order())
	})

	t.Run("entries outside encounter are appended by key", func(t *testing.T) {
		r := newRoster(map[Key]*Entry{
			"b": {ErrorMessage: "b"},
			"a": {ErrorMessage: "a"},
		})

		assert.Equal(t, []Key{"a", "b"}, r.Order())
	})

	t.Run("empty", func(t *testing.T) {
		r := newRoster(nil)
		assert.Empty(t, r.Order())
		assert.Equal(t, 0, r.Len())
	})

	t.Run("clears pending delete", func(t *testing.T) {
		r := newRoster(map[Key]*Entry{"A": resolvedEntry("A")}, "A")
		r.RequestDelete("A")
		r.Initialize(map[Key]*Entry{"A": resolvedEntry("A")}, []Key{"A"})

		_, ok := r.Pending()
		assert.False(t, ok)
	})
}

func TestInitializeErroredBeforeResolvedRandomised(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	names := []string{"alpha", "Beta", "gamma", "Delta", "epsilon"}

	for i := 0; i < 50; i++ {
		entries := make(map[Key]*Entry)
		var encounter []Key
		for j := 0; j < 12; j++ {
			k := Key(rune('a' + j))
			encounter = append(encounter, k)
			switch rng.Intn(3) {
			case 0:
				entries[k] = &Entry{ErrorMessage: "failed"}
			case 1:
				entries[k] = resolvedEntry(names[rng.Intn(len(names))])
			}
		}
		r := newRoster(entries, encounter...)

		seenResolved := false
		for _, row := range r.Rows() {
			if row.Errored {
				require.False(t, seenResolved, "errored row %q after a resolved row", row.Key)
			} else {
				seenResolved = true
			}
		}
	}
}

func TestToggle(t *testing.T) {
	tests := []struct {
		name       string
		start      Entry
		toggle     func(*Roster, Key) bool
		wantClient bool
		wantServer bool
	}{
		{"client off forces server", Entry{OnClient: true, OnServer: false}, (*Roster).ToggleClient, false, true},
		{"client off keeps server", Entry{OnClient: true, OnServer: true}, (*Roster).ToggleClient, false, true},
		{"client on", Entry{OnClient: false, OnServer: true}, (*Roster).ToggleClient, true, true},
		{"server off forces client", Entry{OnClient: false, OnServer: true}, (*Roster).ToggleServer, true, false},
		{"server off keeps client", Entry{OnClient: true, OnServer: true}, (*Roster).ToggleServer, true, false},
		{"server on", Entry{OnClient: true, OnServer: false}, (*Roster).ToggleServer, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.start
			e.Name = "Mod"
			r := newRoster(map[Key]*Entry{"A": &e}, "A")

			assert.True(t, tt.toggle(r, "A"))

			got, ok := r.Entry("A")
			require.True(t, ok)
			assert.Equal(t, tt.wantClient, got.OnClient)
			assert.Equal(t, tt.wantServer, got.OnServer)
		})
	}
}

func TestToggleMissingOrErroredIsNoop(t *testing.T) {
	r := newRoster(map[Key]*Entry{"B": {ErrorMessage: "x"}}, "B")

	assert.False(t, r.ToggleClient("A"))
	assert.False(t, r.ToggleServer("A"))
	assert.False(t, r.ToggleClient("B"))

	got, _ := r.Entry("B")
	assert.False(t, got.OnClient)
	assert.False(t, got.OnServer)
}

func TestToggleSequencesKeepOneSide(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := newRoster(map[Key]*Entry{
		"A": resolvedEntry("A"),
		"B": {Name: "B", OnClient: true},
		"C": {Name: "C", OnServer: true},
	}, "A", "B", "C")

	keys := []Key{"A", "B", "C"}
	for i := 0; i < 500; i++ {
		k := keys[rng.Intn(len(keys))]
		if rng.Intn(2) == 0 {
			r.ToggleClient(k)
		} else {
			r.ToggleServer(k)
		}
		for _, row := range r.Rows() {
			require.True(t, row.OnClient || row.OnServer, "row %q on neither side after %d toggles", row.Key, i+1)
		}
	}
}

func TestInitializeNormalisesSidelessEntries(t *testing.T) {
	r := newRoster(map[Key]*Entry{"A": {Name: "A"}}, "A")

	got, _ := r.Entry("A")
	assert.True(t, got.OnClient)
	assert.False(t, got.OnServer)
}

func TestDeleteLifecycle(t *testing.T) {
	entries := func() map[Key]*Entry {
		return map[Key]*Entry{
			"A": resolvedEntry("Alpha"),
			"B": resolvedEntry("Beta"),
			"C": resolvedEntry("Gamma"),
		}
	}

	t.Run("latest request wins", func(t *testing.T) {
		r := newRoster(entries(), "A", "B", "C")
		r.RequestDelete("A")
		r.RequestDelete("B")

		key, removed := r.ConfirmDelete()
		assert.Equal(t, Key("B"), key)
		assert.True(t, removed)
		assert.Equal(t, []Key{"A", "C"}, r.Order())
		_, ok := r.Entry("A")
		assert.True(t, ok)
		_, ok = r.Entry("B")
		assert.False(t, ok)
	})

	t.Run("confirm keeps relative order without re-sort", func(t *testing.T) {
		r := newRoster(entries(), "A", "B", "C")
		// Renaming after load must not reorder on delete.
		r.entries["C"].Name = "Aardvark"
		r.RequestDelete("B")
		r.ConfirmDelete()

		assert.Equal(t, []Key{"A", "C"}, r.Order())
	})

	t.Run("confirm without pending is a noop", func(t *testing.T) {
		r := newRoster(entries(), "A", "B", "C")
		key, removed := r.ConfirmDelete()

		assert.Equal(t, Key(""), key)
		assert.False(t, removed)
		assert.Equal(t, []Key{"A", "B", "C"}, r.Order())
		assert.Len(t, r.entries, 3)
	})

	t.Run("confirm clears pending", func(t *testing.T) {
		r := newRoster(entries(), "A", "B", "C")
		r.RequestDelete("A")
		r.ConfirmDelete()

		_, ok := r.Pending()
		assert.False(t, ok)
		_, removed := r.ConfirmDelete()
		assert.False(t, removed)
		assert.Equal(t, []Key{"B", "C"}, r.Order())
	})

	t.Run("stale key is never removed", func(t *testing.T) {
		r := newRoster(entries(), "A", "B", "C")
		r.RequestDelete("Z")

		key, removed := r.ConfirmDelete()
		assert.Equal(t, Key("Z"), key)
		assert.False(t, removed)
		assert.Equal(t, []Key{"A", "B", "C"}, r.Order())
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		r := newRoster(entries(), "A", "B", "C")
		assert.False(t, r.CancelDelete())

		r.RequestDelete("A")
		assert.True(t, r.CancelDelete())
		assert.False(t, r.CancelDelete())

		assert.Equal(t, []Key{"A", "B", "C"}, r.Order())
		assert.Len(t, r.entries, 3)
	})

	t.Run("repeated request needs no rerender", func(t *testing.T) {
		r := newRoster(entries(), "A", "B", "C")
		assert.True(t, r.RequestDelete("A"))
		assert.False(t, r.RequestDelete("A"))
		assert.True(t, r.RequestDelete("B"))
	})
}

func TestRows(t *testing.T) {
	r := newRoster(map[Key]*Entry{
		"A": {Name: "Alpha", Summary: "s", IconURL: "i", WebsiteURL: "w", OnClient: true},
		"B": {ErrorMessage: "boom"},
	}, "A", "B", "C")
	r.RequestDelete("A")

	rows := r.Rows()
	require.Len(t, rows, 3)

	assert.Equal(t, Row{Key: "B", Errored: true, ErrorMessage: "boom"}, rows[0])
	assert.Equal(t, Row{Key: "C", Errored: true}, rows[1])
	assert.Equal(t, Row{
		Key:           "A",
		Name:          "Alpha",
		Summary:       "s",
		IconURL:       "i",
		WebsiteURL:    "w",
		OnClient:      true,
		PendingDelete: true,
	}, rows[2])
}

func TestOrderIsACopy(t *testing.T) {
	r := newRoster(map[Key]*Entry{"A": resolvedEntry("A"), "B": resolvedEntry("B")}, "A", "B")
	order := r.Order()
	order[0] = "mutated"

	assert.Equal(t, []Key{"A", "B"}, r.Order())
}
