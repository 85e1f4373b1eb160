package sqlite

const timestampDefault = "(strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	avatar TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT ` + timestampDefault + `,
	updated_at TEXT NOT NULL DEFAULT ` + timestampDefault + `
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT 'string',
	created_at TEXT NOT NULL DEFAULT ` + timestampDefault + `,
	updated_at TEXT NOT NULL DEFAULT ` + timestampDefault + `
);

CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	path TEXT NOT NULL UNIQUE,
	size INTEGER NOT NULL DEFAULT 0,
	type TEXT NOT NULL DEFAULT '',
	hash TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT ` + timestampDefault + `,
	updated_at TEXT NOT NULL DEFAULT ` + timestampDefault + `
);

CREATE TABLE IF NOT EXISTS logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	level TEXT NOT NULL,
	message TEXT NOT NULL,
	data TEXT,
	created_at TEXT NOT NULL DEFAULT ` + timestampDefault + `
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
CREATE INDEX IF NOT EXISTS idx_logs_level ON logs(level);
CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at);
`

// seedUsers are inserted on first open. INSERT OR IGNORE keyed on the unique
// email keeps concurrent first launches from double seeding.
var seedUsers = []User{
	{Name: "Alice Zhang", Email: "alice@example.com", Avatar: "https://via.placeholder.com/64"},
	{Name: "Bob Li", Email: "bob@example.com", Avatar: "https://via.placeholder.com/64"},
	{Name: "Carol Wang", Email: "carol@example.com", Avatar: "https://via.placeholder.com/64"},
}
