// Package quizstore loads quiz definitions (spec §2, §4.9 "Quiz source")
// from Postgres. Grounded on the teacher's internal/server.Server.db field
// and its db.Health() healthcheck call in internal/server/routes.go, which
// implies a pgxpool-backed service the retrieved file subset did not
// include in full; the pool wiring and Health shape here follow the
// standard go-blueprint database.Service pattern jackc/pgx/v5 users in the
// examples pack follow.
package quizstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRow is the row shape stored for every question, regardless of
// type: type-specific fields are kept in a JSONB payload column so adding
// a ninth question type never requires a migration (spec §2 is explicit
// that question types are closed for this engine, but the storage layer
// does not need to assume that).
type QuestionRow struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Quiz is a stored quiz: an ordered list of raw question rows plus
// metadata. Expansion into model.Question values happens in
// internal/loader, which knows the per-type payload shapes; quizstore
// itself never interprets Payload.
type Quiz struct {
	ID        string
	Name      string
	Questions []QuestionRow
}

// Store is satisfied by PostgresStore and any test fake.
type Store interface {
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	Health(ctx context.Context) map[string]string
	Close()
}

// PostgresStore is the production Store backed by a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Open parses dsn and establishes a connection pool. Grounded on the
// teacher's database.New()-style constructor: validate the DSN eagerly by
// pinging once so startup fails fast rather than on the first request.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("quizstore: parse dsn: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("quizstore: ping: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// GetQuiz loads a quiz and its ordered questions in one round trip.
func (s *PostgresStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	quiz := Quiz{ID: id}

	row := s.pool.QueryRow(ctx, `SELECT name FROM quizzes WHERE id = $1`, id)
	if err := row.Scan(&quiz.Name); err != nil {
		return Quiz{}, fmt.Errorf("quizstore: load quiz %s: %w", id, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT type, payload FROM quiz_questions WHERE quiz_id = $1 ORDER BY position ASC`, id)
	if err != nil {
		return Quiz{}, fmt.Errorf("quizstore: load questions for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var q QuestionRow
		if err := rows.Scan(&q.Type, &q.Payload); err != nil {
			return Quiz{}, fmt.Errorf("quizstore: scan question row: %w", err)
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return Quiz{}, fmt.Errorf("quizstore: iterate question rows: %w", err)
	}
	if len(quiz.Questions) == 0 {
		return Quiz{}, fmt.Errorf("quizstore: quiz %s has no questions", id)
	}
	return quiz, nil
}

// Health mirrors the teacher's db.Health() call in routes.go: a map of
// stats suitable for direct JSON serving from a /health endpoint.
func (s *PostgresStore) Health(ctx context.Context) map[string]string {
	stats := make(map[string]string)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.pool.Ping(pingCtx); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	stat := s.pool.Stat()
	stats["status"] = "up"
	stats["total_connections"] = fmt.Sprintf("%d", stat.TotalConns())
	stats["idle_connections"] = fmt.Sprintf("%d", stat.IdleConns())
	stats["acquired_connections"] = fmt.Sprintf("%d", stat.AcquiredConns())
	return stats
}

// Close releases the pool's connections.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Exec runs a statement against the pool directly. Exported for test
// fixtures (schema setup, seeding) that need to drive SQL without a
// dedicated migration tool; production code never calls this.
func (s *PostgresStore) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
