package history

import (
	"database/sql"
	"fmt"
	"time"

	"reel/internal/bot"
)

type Session struct {
	ID        int64
	StartedAt time.Time
	EndedAt   *time.Time
	Status    string
	Error     string
	Stats     bot.Stats
}

type Cycle struct {
	ID        int64
	SessionID int64
	StartedAt time.Time
	Duration  time.Duration
	Strikes   int
	Reason    string
	Skipped   bool
}

// Totals 所有会话的累计
type Totals struct {
	Sessions int
	Cycles   int
	Strikes  int
}

func (db *DB) StartSession(startedAt time.Time) (int64, error) {
	result, err := db.conn.Exec(`
		INSERT INTO sessions (started_at, status) VALUES (?, 'running')
	`, startedAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("创建会话记录失败: %w", err)
	}
	return result.LastInsertId()
}

func (db *DB) RecordCycle(sessionID int64, rec bot.CycleRecord) error {
	_, err := db.conn.Exec(`
		INSERT INTO cycles (session_id, started_at, duration_ms, strikes, reason, skipped)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sessionID, rec.StartedAt.UnixMilli(), rec.Duration.Milliseconds(), rec.Strikes, rec.Reason, rec.Skipped)
	if err != nil {
		return fmt.Errorf("写入钓鱼记录失败: %w", err)
	}
	return nil
}

func (db *DB) FinishSession(sessionID int64, summary bot.SessionSummary) error {
	var errMsg sql.NullString
	if summary.Err != nil {
		errMsg = sql.NullString{String: summary.Err.Error(), Valid: true}
	}

	s := summary.Stats
	result, err := db.conn.Exec(`
		UPDATE sessions
		SET ended_at = ?,
		    status = ?,
		    error_message = ?,
		    casts = ?, bites = ?, strikes = ?, results = ?, clears = ?, pos_fixes = ?
		WHERE id = ?
	`, summary.EndedAt.UnixMilli(), summary.Status.String(), errMsg,
		s.Casts, s.Bites, s.Strikes, s.Results, s.Clears, s.PosFixes, sessionID)
	if err != nil {
		return fmt.Errorf("更新会话记录失败: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("会话记录不存在: %d", sessionID)
	}
	return nil
}

func (db *DB) GetSession(id int64) (*Session, error) {
	var (
		s       Session
		started int64
		ended   sql.NullInt64
		errMsg  sql.NullString
	)
	err := db.conn.QueryRow(`
		SELECT id, started_at, ended_at, status, error_message,
		       casts, bites, strikes, results, clears, pos_fixes
		FROM sessions
		WHERE id = ?
	`, id).Scan(&s.ID, &started, &ended, &s.Status, &errMsg,
		&s.Stats.Casts, &s.Stats.Bites, &s.Stats.Strikes, &s.Stats.Results, &s.Stats.Clears, &s.Stats.PosFixes)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("会话记录不存在: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("读取会话记录失败: %w", err)
	}

	s.StartedAt = time.UnixMilli(started)
	if ended.Valid {
		t := time.UnixMilli(ended.Int64)
		s.EndedAt = &t
	}
	s.Error = errMsg.String
	return &s, nil
}

func (db *DB) GetCycles(sessionID int64) ([]Cycle, error) {
	rows, err := db.conn.Query(`
		SELECT id, session_id, started_at, duration_ms, strikes, reason, skipped
		FROM cycles
		WHERE session_id = ?
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("读取钓鱼记录失败: %w", err)
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var (
			c        Cycle
			started  int64
			duration int64
			reason   sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.SessionID, &started, &duration, &c.Strikes, &reason, &c.Skipped); err != nil {
			return nil, err
		}
		c.StartedAt = time.UnixMilli(started)
		c.Duration = time.Duration(duration) * time.Millisecond
		c.Reason = reason.String
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

func (db *DB) Totals() (Totals, error) {
	var t Totals
	err := db.conn.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM cycles),
			(SELECT COALESCE(SUM(strikes), 0) FROM cycles)
	`).Scan(&t.Sessions, &t.Cycles, &t.Strikes)
	if err != nil {
		return Totals{}, fmt.Errorf("统计记录失败: %w", err)
	}
	return t, nil
}

var _ bot.History = (*DB)(nil)
