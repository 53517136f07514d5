package index

const schema = `
CREATE TABLE IF NOT EXISTS indicator (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider TEXT NOT NULL,
	code TEXT NOT NULL,
	display_name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	unit TEXT NOT NULL DEFAULT '',
	frequency TEXT NOT NULL DEFAULT '',
	geo_coverage TEXT NOT NULL DEFAULT '',
	keywords TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	popularity_score REAL NOT NULL DEFAULT 0,
	UNIQUE(provider, code)
);

CREATE INDEX IF NOT EXISTS idx_indicator_code ON indicator(code);
CREATE INDEX IF NOT EXISTS idx_indicator_provider_code ON indicator(provider, code);

CREATE VIRTUAL TABLE IF NOT EXISTS indicator_fts USING fts5(
	display_name, description, keywords,
	content='indicator', content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS indicator_ai AFTER INSERT ON indicator BEGIN
	INSERT INTO indicator_fts(rowid, display_name, description, keywords)
	VALUES (new.id, new.display_name, new.description, new.keywords);
END;

CREATE TRIGGER IF NOT EXISTS indicator_ad AFTER DELETE ON indicator BEGIN
	INSERT INTO indicator_fts(indicator_fts, rowid, display_name, description, keywords)
	VALUES('delete', old.id, old.display_name, old.description, old.keywords);
END;

CREATE TRIGGER IF NOT EXISTS indicator_au AFTER UPDATE ON indicator BEGIN
	INSERT INTO indicator_fts(indicator_fts, rowid, display_name, description, keywords)
	VALUES('delete', old.id, old.display_name, old.description, old.keywords);
	INSERT INTO indicator_fts(rowid, display_name, description, keywords)
	VALUES (new.id, new.display_name, new.description, new.keywords);
END;
`
