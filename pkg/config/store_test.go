package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCommandStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")

	store, err := NewCommandStore(path)
	if err != nil {
		t.Fatalf("NewCommandStore failed: %v", err)
	}

	store.Set("editor", []string{"gedit", "--new-window"})
	store.Set("files", []string{"nautilus"})
	if err := store.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := NewCommandStore(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	command, ok := reloaded.Get("editor")
	if !ok {
		t.Fatal("editor command missing after reload")
	}
	if len(command) != 2 || command[0] != "gedit" {
		t.Errorf("editor command = %v", command)
	}
	if len(reloaded.All()) != 2 {
		t.Errorf("All() = %v, want 2 entries", reloaded.All())
	}
}

func TestCommandStoreMissingFileIsEmpty(t *testing.T) {
	store, err := NewCommandStore(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("NewCommandStore failed: %v", err)
	}
	if len(store.All()) != 0 {
		t.Errorf("fresh store should be empty, got %v", store.All())
	}
}

func TestCommandStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	if err := os.WriteFile(path, []byte("{broken"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := NewCommandStore(path); err == nil {
		t.Error("corrupt store file should fail to load")
	}
}

func TestCommandStoreRemove(t *testing.T) {
	store, err := NewCommandStore(filepath.Join(t.TempDir(), "commands.json"))
	if err != nil {
		t.Fatalf("NewCommandStore failed: %v", err)
	}

	store.Set("editor", []string{"gedit"})
	store.Remove("editor")

	if _, ok := store.Get("editor"); ok {
		t.Error("removed command should be gone")
	}
}

func TestCommandStoreGetReturnsCopy(t *testing.T) {
	store, err := NewCommandStore(filepath.Join(t.TempDir(), "commands.json"))
	if err != nil {
		t.Fatalf("NewCommandStore failed: %v", err)
	}

	store.Set("editor", []string{"gedit", "--new-window"})
	command, _ := store.Get("editor")
	command[0] = "mutated"

	fresh, _ := store.Get("editor")
	if fresh[0] != "gedit" {
		t.Error("Get must return a copy of the stored command")
	}
}
