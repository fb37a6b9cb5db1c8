package sqlite

import "database/sql"

// The service owns its schema for the local target; the cloud target relies
// on migrations, so the postgres adapter never creates tables.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		conversation_id TEXT PRIMARY KEY,
		title           TEXT NOT NULL,
		creation_time   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		message_id      TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(conversation_id) ON DELETE CASCADE,
		role            TEXT NOT NULL,
		content         TEXT NOT NULL,
		creation_time   TIMESTAMP NOT NULL,
		seq             INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation
		ON messages(conversation_id, creation_time, seq)`,
	`CREATE TABLE IF NOT EXISTS provider_searches (
		record_id       TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		payload         TEXT,
		creation_time   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS address_searches (
		record_id       TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		payload         TEXT,
		creation_time   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS provider_info_lookups (
		record_id       TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		payload         TEXT,
		creation_time   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS providers (
		provider_id   TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		provider_type TEXT NOT NULL,
		routing_type  TEXT,
		eligibility   TEXT,
		service_hours TEXT,
		service_zone  TEXT,
		website       TEXT,
		contacts      TEXT,
		creation_time TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS examples (
		example_id      TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		title           TEXT NOT NULL,
		description     TEXT,
		category        TEXT,
		states          TEXT NOT NULL,
		replay_config   TEXT NOT NULL,
		creation_time   TIMESTAMP NOT NULL
	)`,
}

func bootstrap(db *sql.DB) error {
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
