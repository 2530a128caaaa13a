package index

// Schema is the complete index schema as a single script. It must be kept in
// sync with the migration files; tests apply it directly to in-memory
// databases instead of running migrations.
const Schema = `
CREATE TABLE files (
    id INTEGER PRIMARY KEY,
    content_hash TEXT NOT NULL UNIQUE,
    size INTEGER NOT NULL,
    mime TEXT,
    first_seen TIMESTAMP NOT NULL
);

CREATE TABLE versions (
    id INTEGER PRIMARY KEY,
    file_id INTEGER NOT NULL REFERENCES files(id),
    name TEXT NOT NULL,
    path TEXT NOT NULL,
    mtime TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL,
    version_index INTEGER NOT NULL,
    source_side TEXT NOT NULL
);

CREATE INDEX idx_versions_file_id ON versions(file_id);
CREATE INDEX idx_versions_path_mtime ON versions(path, mtime);

CREATE TABLE tags (
    id INTEGER PRIMARY KEY,
    file_id INTEGER NOT NULL REFERENCES files(id),
    tag TEXT NOT NULL,
    UNIQUE(file_id, tag)
);

CREATE TABLE events (
    id INTEGER PRIMARY KEY,
    file_id INTEGER NOT NULL REFERENCES files(id),
    event_type TEXT NOT NULL,
    details TEXT,
    ts TIMESTAMP NOT NULL
);
`
