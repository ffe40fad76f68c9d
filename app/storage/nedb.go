package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
)

// ImportStats is a result of nedb import
type ImportStats struct {
	Lines    int `json:"lines"`    // non-empty lines read
	Imported int `json:"imported"` // matches added or updated
	Deleted  int `json:"deleted"`  // matches removed by tombstones
	Skipped  int `json:"skipped"`  // malformed or invalid records
}

// nedbRecord is a line of nedb datafile. Besides regular documents the file may have
// deletion tombstones ({"$$deleted":true,"_id":...}) and index definitions ({"$$indexCreated":...}).
type nedbRecord struct {
	ID             string          `json:"_id"`
	Deleted        bool            `json:"$$deleted"`
	IndexCreated   json.RawMessage `json:"$$indexCreated"`
	EnemyChampions []champKey      `json:"enemyChampions"`
	Win            bool            `json:"win"`
	CreatedAt      *nedbDate       `json:"createdAt"`
}

// champKey is a champion key in nedb document, a number, a numeric string or an object with "key" field
type champKey int

// UnmarshalJSON accepts 157, "157" and {"name":"Yasuo","key":157}
func (k *champKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Key champKey `json:"key"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*k = obj.Key
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid champion key %s", string(data))
	}
	*k = champKey(v)
	return nil
}

// nedbDate is nedb date encoding, {"$$date": <unix millis>}
type nedbDate struct {
	Millis int64 `json:"$$date"`
}

// ImportNeDB imports matches from nedb datafile, a document per line.
// Later lines with the same _id replace earlier ones, tombstones remove matches.
// Malformed lines are skipped and reported in the returned error, stats are returned in this case too.
// Any storage failure rolls back the whole import and returns nil stats.
func (m *Matches) ImportNeDB(ctx context.Context, r io.Reader) (*ImportStats, error) {
	if r == nil {
		return nil, errors.New("reader cannot be nil")
	}

	stats := &ImportStats{}
	errs := new(multierror.Error)
	docs := make(map[string]Match) // _id -> match, last one wins
	order := []string{}            // to keep file order on insert
	deleted := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	const maxLine = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Lines++

		var rec nedbRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("line %d: %w", lineNum, err))
			stats.Skipped++
			continue
		}
		if rec.IndexCreated != nil {
			continue
		}
		if rec.ID == "" {
			errs = multierror.Append(errs, fmt.Errorf("line %d: no _id", lineNum))
			stats.Skipped++
			continue
		}
		if rec.Deleted {
			delete(docs, rec.ID)
			deleted[rec.ID] = true
			continue
		}

		match := Match{ExtID: rec.ID, Win: rec.Win, Enemies: make([]int, 0, len(rec.EnemyChampions))}
		for _, k := range rec.EnemyChampions {
			match.Enemies = append(match.Enemies, int(k))
		}
		if rec.CreatedAt != nil {
			match.TS = time.UnixMilli(rec.CreatedAt.Millis)
		}
		if err := match.Validate(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("line %d, _id %s: %w", lineNum, rec.ID, err))
			stats.Skipped++
			continue
		}
		if _, seen := docs[rec.ID]; !seen {
			order = append(order, rec.ID)
		}
		docs[rec.ID] = match
		delete(deleted, rec.ID) // re-inserted after deletion
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading nedb input: %w", err)
	}

	if err := m.applyImport(ctx, order, docs, deleted, stats); err != nil {
		return nil, err
	}
	log.Printf("[INFO] nedb import: %+v", *stats)
	return stats, errs.ErrorOrNil()
}

// applyImport writes imported matches and removes deleted ones in a single transaction
func (m *Matches) applyImport(ctx context.Context, order []string, docs map[string]Match, deleted map[string]bool, stats *ImportStats) error {
	upsert, err := matchesQueries.Pick(m.Type(), CmdUpsertMatch)
	if err != nil {
		return fmt.Errorf("failed to get query: %w", err)
	}

	m.Lock()
	defer m.Unlock()

	tx, err := m.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	gid := m.GID()
	for id := range deleted {
		res, err := tx.ExecContext(ctx, m.Adopt(`DELETE FROM matches WHERE gid = ? AND ext_id = ?`), gid, id)
		if err != nil {
			return fmt.Errorf("failed to delete match %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			stats.Deleted++
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	for _, id := range order {
		match, ok := docs[id]
		if !ok { // deleted later in the file
			continue
		}
		ts := now
		if !match.TS.IsZero() {
			ts = match.TS.UTC().Truncate(time.Second)
		}
		if _, err := tx.ExecContext(ctx, upsert, gid, match.ExtID, ts, match.Win, encodeEnemies(match.Enemies)); err != nil {
			return fmt.Errorf("failed to import match %s: %w", id, err)
		}
		stats.Imported++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}
