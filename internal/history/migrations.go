package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

type Migration struct {
	Version     int
	Description string
	Up          func(*sql.Tx) error
}

var migrations = []Migration{
	{Version: 1, Description: "Create schema_version table", Up: migration001Up},
	{Version: 2, Description: "Create sessions table", Up: migration002Up},
	{Version: 3, Description: "Create cycles table", Up: migration003Up},
}

// RunMigrations 执行所有未应用的迁移
func (db *DB) RunMigrations() error {
	current, err := db.currentVersion()
	if err != nil {
		return fmt.Errorf("读取数据库版本失败: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		err := db.ExecTx(func(tx *sql.Tx) error {
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.Version, err)
			}
			_, err := tx.Exec(`
				INSERT INTO schema_version (version, description, applied_at)
				VALUES (?, ?, ?)
			`, m.Version, m.Description, time.Now().UnixMilli())
			return err
		})
		if err != nil {
			return err
		}
		log.Debug().Int("version", m.Version).Str("desc", m.Description).Msg("[记录] 数据库迁移完成")
	}
	return nil
}

func (db *DB) currentVersion() (int, error) {
	var exists bool
	err := db.conn.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return db.GetVersion()
}

func migration001Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version INTEGER NOT NULL UNIQUE,
			description TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`)
	return err
}

func migration002Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at INTEGER NOT NULL,
			ended_at INTEGER,
			status TEXT NOT NULL DEFAULT 'running',
			error_message TEXT,

			casts INTEGER DEFAULT 0,
			bites INTEGER DEFAULT 0,
			strikes INTEGER DEFAULT 0,
			results INTEGER DEFAULT 0,
			clears INTEGER DEFAULT 0,
			pos_fixes INTEGER DEFAULT 0
		);

		CREATE INDEX idx_sessions_started ON sessions(started_at);
	`)
	return err
}

func migration003Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE cycles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			started_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			strikes INTEGER NOT NULL,
			reason TEXT,
			skipped BOOLEAN DEFAULT 0
		);

		CREATE INDEX idx_cycles_session ON cycles(session_id);
	`)
	return err
}
