package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"modpack-editor/modpack"
	"modpack-editor/session"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeResolver map[int]modpack.ModInfo

func (f fakeResolver) Resolve(context.Context, *modpack.Modpack) map[int]modpack.ModInfo {
	out := make(map[int]modpack.ModInfo, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m EditModel, keys ...string) EditModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(EditModel)
	}
	return m
}

// loadedEditModel returns an editor on a fresh pack holding two resolved mods.
func loadedEditModel(t *testing.T) (EditModel, string) {
	t.Helper()
	folder := filepath.Join(t.TempDir(), "pack")
	if _, err := modpack.Create(folder); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	resolver := fakeResolver{
		1: {Name: "Zeta", OnClient: true, OnServer: true, FileID: 10},
		2: {Name: "alpha", OnClient: true, FileID: 20},
	}

	m := newEditModel(context.Background(), folder, session.New(), resolver, nil, nil)
	next, _ := m.Update(m.loadPack()())
	return next.(EditModel), folder
}

func TestEditModelLoads(t *testing.T) {
	m, _ := loadedEditModel(t)

	if m.loading {
		t.Fatal("loading should be false after the pack is loaded")
	}
	if len(m.rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(m.rows))
	}
	if m.rows[0].Name != "alpha" || m.rows[1].Name != "Zeta" {
		t.Errorf("Rows should be sorted by name, got %q, %q", m.rows[0].Name, m.rows[1].Name)
	}
	if !strings.Contains(m.View(), "alpha") {
		t.Error("View should list the mods")
	}
}

func TestEditModelNavigation(t *testing.T) {
	m, _ := loadedEditModel(t)

	m = press(t, m, "down")
	if m.cursor != 1 {
		t.Fatalf("cursor = %d after down, want 1", m.cursor)
	}
	m = press(t, m, "j")
	if m.cursor != 1 {
		t.Fatal("Navigation should stop at last row")
	}
	m = press(t, m, "k", "up")
	if m.cursor != 0 {
		t.Fatal("Navigation should stop at first row")
	}
}

func TestEditModelToggleAndDelete(t *testing.T) {
	m, _ := loadedEditModel(t)

	m = press(t, m, "s")
	if !m.rows[0].OnServer || !m.modified {
		t.Fatal("s should put alpha on the server and mark the pack modified")
	}

	m = press(t, m, "j", "d")
	if !m.rows[1].PendingDelete {
		t.Fatal("d should mark Zeta for deletion")
	}
	if !strings.Contains(m.View(), "delete? y/n") {
		t.Error("View should ask for confirmation")
	}

	m = press(t, m, "esc")
	if m.rows[1].PendingDelete {
		t.Fatal("esc should cancel the deletion")
	}

	m = press(t, m, "d", "y")
	if len(m.rows) != 1 {
		t.Fatalf("Expected 1 row after delete, got %d", len(m.rows))
	}
	if m.cursor != 0 {
		t.Errorf("cursor should move back onto the remaining row, got %d", m.cursor)
	}
}

func TestEditModelSave(t *testing.T) {
	m, folder := loadedEditModel(t)
	m = press(t, m, "s", "w")
	if !m.saving {
		t.Fatal("w should start saving")
	}

	next, _ := m.Update(m.savePack()())
	m = next.(EditModel)
	if m.saving || m.modified {
		t.Fatal("A finished save should clear saving and modified")
	}

	pack, err := modpack.Load(folder)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := map[int]int{1: 10, 2: 20}
	if len(pack.CurseManifest.Files) != len(want) {
		t.Fatalf("Expected %d manifest files, got %v", len(want), pack.CurseManifest.Files)
	}
	for _, f := range pack.CurseManifest.Files {
		if want[f.ProjectID] != f.FileID {
			t.Errorf("Unexpected manifest file %+v", f)
		}
	}
	if len(pack.ServerSetupConfig.Install.FormatSpecific.IgnoreProject) != 0 {
		t.Errorf("No mod should be ignored on the server, got %v", pack.ServerSetupConfig.Install.FormatSpecific.IgnoreProject)
	}
}

func TestEditModelLoadError(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "missing")
	m := newEditModel(context.Background(), folder, session.New(), fakeResolver{}, nil, nil)

	next, _ := m.Update(m.loadPack()())
	m = next.(EditModel)
	if m.err == "" {
		t.Fatal("A failed load should set err")
	}
	if !strings.HasPrefix(m.View(), "Error:") {
		t.Errorf("View should show the error, got %q", m.View())
	}

	// Keys other than quit are ignored
	m = press(t, m, "s", "w")
	if m.saving {
		t.Fatal("Saving should not start after a failed load")
	}
}
