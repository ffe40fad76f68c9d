package engine

import (
	"fmt"
	"sync"
)

// DBCmd is an identifier of a database command, each table package defines its own range
type DBCmd int

// Query keeps the sqlite and postgres versions of the same statement
type Query struct {
	Sqlite   string
	Postgres string
}

// QueryMap maps commands to their dialect-specific queries
type QueryMap struct {
	queries map[DBCmd]Query
}

// NewQueryMap makes an empty QueryMap
func NewQueryMap() *QueryMap {
	return &QueryMap{queries: make(map[DBCmd]Query)}
}

// Add registers a command with dialect-specific queries
func (q *QueryMap) Add(cmd DBCmd, query Query) *QueryMap {
	q.queries[cmd] = query
	return q
}

// AddSame registers a command with a query shared by all dialects.
// Use "?" placeholders and pass the query through SQL.Adopt before execution.
func (q *QueryMap) AddSame(cmd DBCmd, query string) *QueryMap {
	return q.Add(cmd, Query{Sqlite: query, Postgres: query})
}

// Pick returns a query for given db type and command
func (q *QueryMap) Pick(dbType Type, cmd DBCmd) (string, error) {
	query, ok := q.queries[cmd]
	if !ok {
		return "", fmt.Errorf("unsupported command type %d", cmd)
	}

	var res string
	switch dbType {
	case Sqlite:
		res = query.Sqlite
	case Postgres:
		res = query.Postgres
	default:
		return "", fmt.Errorf("unsupported database type %q", dbType)
	}
	if res == "" {
		return "", fmt.Errorf("empty %s query for command %d", dbType, cmd)
	}
	return res, nil
}

// RWLocker is a read-write locker interface, implemented by sync.RWMutex and NoopLocker
type RWLocker interface {
	sync.Locker
	RLock()
	RUnlock()
}

// NoopLocker is used for engines handling concurrent access on their own
type NoopLocker struct{}

// Lock does nothing
func (NoopLocker) Lock() {}

// Unlock does nothing
func (NoopLocker) Unlock() {}

// RLock does nothing
func (NoopLocker) RLock() {}

// RUnlock does nothing
func (NoopLocker) RUnlock() {}
