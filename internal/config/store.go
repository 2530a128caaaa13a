package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"prosync-go/internal/prosync"
)

// connectionsFile is the on-disk shape of the connections store.
type connectionsFile struct {
	Connections []json.RawMessage `json:"connections"`
}

// record pairs a decoded connection with any JSON fields we did not
// recognize, so a round-trip through Load/Save preserves fields written by
// other (possibly newer) tools.
type record struct {
	conn   prosync.Connection
	extras map[string]json.RawMessage
}

// Store persists connections to a JSON file. All methods are safe for
// concurrent use; writes go through a temp file and rename so a crash never
// leaves a half-written store.
type Store struct {
	mu      sync.Mutex
	path    string
	records []*record
}

// NewStore creates a Store backed by the file at path. Call Load before use.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the store file. A missing file is an empty store, not an error.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.records = nil
			return nil
		}
		return fmt.Errorf("reading connections file: %w", err)
	}

	var file connectionsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing connections file: %w", err)
	}

	records := make([]*record, 0, len(file.Connections))
	for i, raw := range file.Connections {
		rec, err := decodeRecord(raw)
		if err != nil {
			return fmt.Errorf("parsing connection %d: %w", i, err)
		}
		records = append(records, rec)
	}
	s.records = records
	return nil
}

// decodeRecord unmarshals one connection object. The "type" field selects
// the concrete type; absent or unknown types decode as folder connections,
// matching older store files that predate file connections.
func decodeRecord(raw json.RawMessage) (*record, error) {
	var probe struct {
		Kind string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}

	var conn prosync.Connection
	if probe.Kind == string(prosync.KindFile) {
		conn = &prosync.FileConnection{}
	} else {
		conn = &prosync.FolderConnection{}
	}
	if err := json.Unmarshal(raw, conn); err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	known, err := fieldsOf(conn)
	if err != nil {
		return nil, err
	}
	extras := make(map[string]json.RawMessage)
	for k, v := range fields {
		if _, ok := known[k]; !ok {
			extras[k] = v
		}
	}

	return &record{conn: conn, extras: extras}, nil
}

// encode marshals the record's connection and layers the preserved unknown
// fields back in. Known fields always win.
func (r *record) encode() (json.RawMessage, error) {
	fields, err := fieldsOf(r.conn)
	if err != nil {
		return nil, err
	}
	for k, v := range r.extras {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

// fieldsOf marshals a connection and re-parses it as a field map.
func fieldsOf(conn prosync.Connection) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(conn)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// List returns all connections in store order.
func (s *Store) List() []prosync.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns := make([]prosync.Connection, len(s.records))
	for i, rec := range s.records {
		conns[i] = rec.conn
	}
	return conns
}

// Get returns the connection with the given id, or nil if not found.
func (s *Store) Get(id string) prosync.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.conn.Base().ID == id {
			return rec.conn
		}
	}
	return nil
}

// Upsert adds or replaces a connection by id and saves the store.
// A replaced connection keeps any unknown fields its stored form carried.
func (s *Store) Upsert(conn prosync.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := conn.Base().ID
	for _, rec := range s.records {
		if rec.conn.Base().ID == id {
			rec.conn = conn
			return s.save()
		}
	}
	s.records = append(s.records, &record{conn: conn, extras: map[string]json.RawMessage{}})
	return s.save()
}

// Remove deletes a connection by id and saves the store. It reports whether
// the id was present.
func (s *Store) Remove(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.records {
		if rec.conn.Base().ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true, s.save()
		}
	}
	return false, nil
}

// Save writes the store to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes atomically: marshal, write to a temp file alongside the
// target, rename into place. Caller must hold s.mu.
func (s *Store) save() error {
	file := connectionsFile{Connections: make([]json.RawMessage, 0, len(s.records))}
	for _, rec := range s.records {
		raw, err := rec.encode()
		if err != nil {
			return fmt.Errorf("encoding connection %s: %w", rec.conn.Base().ID, err)
		}
		file.Connections = append(file.Connections, raw)
	}

	data, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding connections file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating connections directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".connections-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing connections file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing connections file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing connections file: %w", err)
	}
	return nil
}
