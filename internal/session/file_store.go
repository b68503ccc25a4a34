package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps all sessions in a single JSON file. Writes go through a
// temp file and an atomic rename so a crash never leaves a half-written
// sessions file.
type FileStore struct {
	mu       sync.RWMutex
	filePath string
	sessions map[string]*State
}

// NewFileStore creates the data directory if needed and loads any existing
// sessions file. A corrupt file is logged and replaced with an empty set
// rather than failing startup.
func NewFileStore(dataPath string) (*FileStore, error) {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session data directory: %w", err)
	}

	s := &FileStore{
		filePath: filepath.Join(dataPath, "sessions.json"),
		sessions: make(map[string]*State),
	}

	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return s, nil
}

func (s *FileStore) load() error {
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		log.Printf(`{"level":"info","component":"session_store","message":"sessions file not found, starting empty","path":"%s"}`, s.filePath)
		return nil
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read sessions file: %w", err)
	}

	var sessions map[string]*State
	if err := json.Unmarshal(data, &sessions); err != nil {
		log.Printf(`{"level":"warn","component":"session_store","message":"failed to parse sessions file, starting empty","error":"%v"}`, err)
		return nil
	}

	s.sessions = sessions
	log.Printf(`{"level":"info","component":"session_store","message":"loaded sessions","count":%d}`, len(sessions))
	return nil
}

// save must be called with the lock held.
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	tempPath := s.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	file, err := os.OpenFile(tempPath, os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open temp file for sync: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	file.Close()

	if err := os.Rename(tempPath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, sessionID string) (*State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, false, nil
	}
	return cloneState(state), true, nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, sessionID string, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := cloneState(state)
	saved.UpdatedAt = time.Now().UTC()
	s.sessions[sessionID] = saved

	if err := s.save(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return nil
}

// Stats implements Store.
func (s *FileStore) Stats(_ context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, state := range s.sessions {
		if len(state.Slides) > 0 {
			count++
		}
	}
	return &Stats{DecksCreated: count}, nil
}

// cloneState copies through JSON so callers never share slide slices with
// the store's map.
func cloneState(state *State) *State {
	data, err := json.Marshal(state)
	if err != nil {
		out := *state
		return &out
	}
	var out State
	if err := json.Unmarshal(data, &out); err != nil {
		copied := *state
		return &copied
	}
	return &out
}
