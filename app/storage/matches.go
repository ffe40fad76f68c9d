package storage

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/umputun/should-i-play/app/storage/engine"
)

// ErrBadRecord is returned for a stored match which can't be decoded
var ErrBadRecord = errors.New("bad match record")

// Matches is a storage for played matches, the training records of the predictor
type Matches struct {
	*engine.SQL
	engine.RWLocker
}

// Match is a played match, the list of enemy champion keys and the result
type Match struct {
	ID      int64     `json:"id"`
	ExtID   string    `json:"ext_id"`
	TS      time.Time `json:"ts"`
	Win     bool      `json:"win"`
	Enemies []int     `json:"enemies"`
}

// MatchStats is a summary of stored matches
type MatchStats struct {
	Total  int `db:"total" json:"total"`
	Wins   int `db:"wins" json:"wins"`
	Losses int `db:"-" json:"losses"`
}

// matchRow is a db representation of Match, enemies kept as comma-separated keys
type matchRow struct {
	ID      int64     `db:"id"`
	ExtID   string    `db:"ext_id"`
	TS      time.Time `db:"ts"`
	Win     bool      `db:"win"`
	Enemies string    `db:"enemies"`
}

// matches-related command constants
const (
	CmdCreateMatchesTable engine.DBCmd = iota + 100
	CmdCreateMatchesIndexes
	CmdUpsertMatch
)

var matchesQueries = engine.NewQueryMap().
	Add(CmdCreateMatchesTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gid TEXT NOT NULL DEFAULT '',
			ext_id TEXT NOT NULL,
			ts DATETIME DEFAULT CURRENT_TIMESTAMP,
			win BOOLEAN NOT NULL DEFAULT 0,
			enemies TEXT NOT NULL DEFAULT '',
			UNIQUE(gid, ext_id)
		)`,
		Postgres: `CREATE TABLE IF NOT EXISTS matches (
			id SERIAL PRIMARY KEY,
			gid TEXT NOT NULL DEFAULT '',
			ext_id TEXT NOT NULL,
			ts TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			win BOOLEAN NOT NULL DEFAULT false,
			enemies TEXT NOT NULL DEFAULT '',
			UNIQUE(gid, ext_id)
		)`,
	}).
	AddSame(CmdCreateMatchesIndexes, `
		CREATE INDEX IF NOT EXISTS idx_matches_gid ON matches(gid);
		CREATE INDEX IF NOT EXISTS idx_matches_gid_ts ON matches(gid, ts)`).
	Add(CmdUpsertMatch, engine.Query{
		Sqlite: `INSERT INTO matches (gid, ext_id, ts, win, enemies) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (gid, ext_id) DO UPDATE SET ts = excluded.ts, win = excluded.win, enemies = excluded.enemies`,
		Postgres: `INSERT INTO matches (gid, ext_id, ts, win, enemies) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (gid, ext_id) DO UPDATE SET ts = EXCLUDED.ts, win = EXCLUDED.win, enemies = EXCLUDED.enemies`,
	})

// NewMatches creates matches storage and initializes the table
func NewMatches(ctx context.Context, db *engine.SQL) (*Matches, error) {
	if db == nil {
		return nil, errors.New("db connection is nil")
	}
	res := &Matches{SQL: db, RWLocker: db.MakeLock()}
	cfg := engine.TableConfig{
		Name:          "matches",
		CreateTable:   CmdCreateMatchesTable,
		CreateIndexes: CmdCreateMatchesIndexes,
		QueriesMap:    matchesQueries,
	}
	if err := engine.InitTable(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("failed to init matches storage: %w", err)
	}
	return res, nil
}

// Validate checks enemy champion keys are positive. Any number of enemies is accepted,
// a match without enemies still counts toward the win/loss rate.
func (m Match) Validate() error {
	for _, k := range m.Enemies {
		if k <= 0 {
			return fmt.Errorf("invalid champion key %d", k)
		}
	}
	return nil
}

// Add stores a match. ExtID generated if empty, TS set to now if zero.
// A match with existing ExtID replaces the stored one.
func (m *Matches) Add(ctx context.Context, match Match) (Match, error) {
	if err := match.Validate(); err != nil {
		return Match{}, fmt.Errorf("invalid match: %w", err)
	}
	if match.ExtID == "" {
		match.ExtID = uuid.NewString()
	}
	if match.TS.IsZero() {
		match.TS = time.Now()
	}
	match.TS = match.TS.UTC().Truncate(time.Second)

	query, err := matchesQueries.Pick(m.Type(), CmdUpsertMatch)
	if err != nil {
		return Match{}, fmt.Errorf("failed to get query: %w", err)
	}

	m.Lock()
	defer m.Unlock()
	if _, err = m.ExecContext(ctx, query, m.GID(), match.ExtID, match.TS, match.Win, encodeEnemies(match.Enemies)); err != nil {
		return Match{}, fmt.Errorf("failed to add match %s: %w", match.ExtID, err)
	}
	q := m.Adopt(`SELECT id FROM matches WHERE gid = ? AND ext_id = ?`)
	if err = m.GetContext(ctx, &match.ID, q, m.GID(), match.ExtID); err != nil {
		return Match{}, fmt.Errorf("failed to get id of match %s: %w", match.ExtID, err)
	}
	log.Printf("[DEBUG] match added: %+v", match)
	return match, nil
}

// Delete removes a match by external id
func (m *Matches) Delete(ctx context.Context, extID string) error {
	m.Lock()
	defer m.Unlock()
	res, err := m.ExecContext(ctx, m.Adopt(`DELETE FROM matches WHERE gid = ? AND ext_id = ?`), m.GID(), extID)
	if err != nil {
		return fmt.Errorf("failed to delete match %s: %w", extID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("match %s not found", extID)
	}
	return nil
}

// Read returns all matches of the group, from the oldest to the newest
func (m *Matches) Read(ctx context.Context) ([]Match, error) {
	m.RLock()
	defer m.RUnlock()
	var rows []matchRow
	q := m.Adopt(`SELECT id, ext_id, ts, win, enemies FROM matches WHERE gid = ? ORDER BY ts, id`)
	if err := m.SelectContext(ctx, &rows, q, m.GID()); err != nil {
		return nil, fmt.Errorf("failed to read matches: %w", err)
	}
	res := make([]Match, 0, len(rows))
	for _, r := range rows {
		match, err := r.toMatch()
		if err != nil {
			return nil, err
		}
		res = append(res, match)
	}
	return res, nil
}

// Iterator returns an iterator over all matches of the group, from the oldest to the newest.
// A row which can't be decoded is yielded with an error, iteration continues if the caller wants to.
// The iterator respects context cancellation.
func (m *Matches) Iterator(ctx context.Context) (iter.Seq2[Match, error], error) {
	q := m.Adopt(`SELECT id, ext_id, ts, win, enemies FROM matches WHERE gid = ? ORDER BY ts, id`)
	m.RLock()
	rows, err := m.QueryxContext(ctx, q, m.GID())
	m.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}

	return func(yield func(Match, error) bool) {
		defer rows.Close()
		for rows.Next() {
			if ctx.Err() != nil {
				yield(Match{}, ctx.Err())
				return
			}
			var r matchRow
			if err := rows.StructScan(&r); err != nil {
				yield(Match{}, fmt.Errorf("failed to scan match: %w", err))
				return
			}
			if !yield(r.toMatch()) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Match{}, fmt.Errorf("matches iteration failed: %w", err))
		}
	}, nil
}

// Stats returns number of matches, wins and losses
func (m *Matches) Stats(ctx context.Context) (MatchStats, error) {
	m.RLock()
	defer m.RUnlock()
	var res MatchStats
	q := m.Adopt(`SELECT COUNT(*) AS total, COALESCE(SUM(CASE WHEN win THEN 1 ELSE 0 END), 0) AS wins
		FROM matches WHERE gid = ?`)
	if err := m.GetContext(ctx, &res, q, m.GID()); err != nil {
		return MatchStats{}, fmt.Errorf("failed to get matches stats: %w", err)
	}
	res.Losses = res.Total - res.Wins
	return res, nil
}

func (r matchRow) toMatch() (Match, error) {
	enemies, err := decodeEnemies(r.Enemies)
	if err != nil {
		return Match{ID: r.ID, ExtID: r.ExtID}, fmt.Errorf("%w %s: %w", ErrBadRecord, r.ExtID, err)
	}
	return Match{ID: r.ID, ExtID: r.ExtID, TS: r.TS, Win: r.Win, Enemies: enemies}, nil
}

func encodeEnemies(keys []int) string {
	strs := make([]string, 0, len(keys))
	for _, k := range keys {
		strs = append(strs, strconv.Itoa(k))
	}
	return strings.Join(strs, ",")
}

func decodeEnemies(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	res := make([]int, 0, len(parts))
	for _, p := range parts {
		k, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid champion key %q: %w", p, err)
		}
		res = append(res, k)
	}
	return res, nil
}
