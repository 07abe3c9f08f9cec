package store

import "database/sql"

const ddl = `
PRAGMA journal_mode=WAL;
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS files (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    path      TEXT NOT NULL UNIQUE,
    name      TEXT NOT NULL,
    size      INTEGER NOT NULL DEFAULT 0,
    mod_time  INTEGER NOT NULL DEFAULT 0,
    file_type TEXT NOT NULL DEFAULT 'other',
    content   TEXT NOT NULL DEFAULT '',
    summary   TEXT NOT NULL DEFAULT ''
);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_files USING vec0(
    file_id INTEGER PRIMARY KEY,
    embedding float[128]
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// ftsDDL is applied separately from the core schema: mattn/go-sqlite3 only
// compiles the fts5 module under the sqlite_fts5 build tag, and the store
// runs without the fast content tier when the module is missing.
const ftsDDL = `
CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
    path, name, content,
    content='files', content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS files_ai AFTER INSERT ON files BEGIN
    INSERT INTO files_fts(rowid, path, name, content)
    VALUES (new.id, new.path, new.name, new.content);
END;

CREATE TRIGGER IF NOT EXISTS files_ad AFTER DELETE ON files BEGIN
    INSERT INTO files_fts(files_fts, rowid, path, name, content)
    VALUES ('delete', old.id, old.path, old.name, old.content);
END;

CREATE TRIGGER IF NOT EXISTS files_au AFTER UPDATE ON files BEGIN
    INSERT INTO files_fts(files_fts, rowid, path, name, content)
    VALUES ('delete', old.id, old.path, old.name, old.content);
    INSERT INTO files_fts(rowid, path, name, content)
    VALUES (new.id, new.path, new.name, new.content);
END;
`

// Init creates the core schema tables if they don't exist.
func Init(db *sql.DB) error {
	_, err := db.Exec(ddl)
	return err
}

// initFTS creates the full-text table and its sync triggers, then rebuilds
// the index from the content table so rows written by a build without the
// fts5 module are picked up.
func initFTS(db *sql.DB) error {
	if _, err := db.Exec(ftsDDL); err != nil {
		return err
	}
	_, err := db.Exec(`INSERT INTO files_fts(files_fts) VALUES ('rebuild')`)
	return err
}
