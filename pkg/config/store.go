package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CommandStore persists the bridge's registered commands between runs
// as a JSON file, by default ~/.pilot/commands.json. Writes are atomic
// so a crash mid-save never corrupts the allowlist.
type CommandStore struct {
	path     string
	commands map[string][]string
	mu       sync.RWMutex
	version  string
}

// commandFile is the on-disk shape of the store.
type commandFile struct {
	Version  string              `json:"version"`
	Commands map[string][]string `json:"commands"`
}

// NewCommandStore creates a store backed by the given path. An empty
// path defaults to ~/.pilot/commands.json. An existing file is loaded
// immediately; a missing file is not an error.
func NewCommandStore(path string) (*CommandStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".pilot", "commands.json")
	}

	store := &CommandStore{
		path:     path,
		commands: make(map[string][]string),
		version:  "1.0",
	}

	if err := store.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load commands from %s: %w", path, err)
	}
	return store, nil
}

// Load reads the store file from disk. A missing file leaves the store
// empty.
func (s *CommandStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.commands = make(map[string][]string)
			return nil
		}
		return err
	}
	defer file.Close()

	var contents commandFile
	if err := json.NewDecoder(file).Decode(&contents); err != nil {
		return fmt.Errorf("failed to decode command store: %w", err)
	}

	if contents.Version != "" {
		s.version = contents.Version
	}
	if contents.Commands != nil {
		s.commands = contents.Commands
	} else {
		s.commands = make(map[string][]string)
	}
	return nil
}

// Save writes the store to disk via a temp file and rename.
func (s *CommandStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(commandFile{Version: s.version, Commands: s.commands}); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode command store: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp store file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp store file: %w", err)
	}
	return nil
}

// Set stores a command under the given name.
func (s *CommandStore) Set(name string, command []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands[name] = append([]string(nil), command...)
}

// Get returns the command registered under the name.
func (s *CommandStore) Get(name string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	command, ok := s.commands[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), command...), true
}

// Remove deletes a command by name.
func (s *CommandStore) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.commands, name)
}

// All returns a copy of every stored command.
func (s *CommandStore) All() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make(map[string][]string, len(s.commands))
	for name, command := range s.commands {
		all[name] = append([]string(nil), command...)
	}
	return all
}

// Path returns the file path of the store.
func (s *CommandStore) Path() string {
	return s.path
}
