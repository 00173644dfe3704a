package warehouse

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/propfolio/gl-etl/internal/logger"
)

// Session is the run's coarse transaction boundary: one BigQuery session
// holding one open transaction that every merge statement joins, so the
// whole run's loads commit together or not at all. Acquire with
// BeginSession, release with Close on every exit path; Close rolls back
// anything not committed.
type Session struct {
	client    *bigquery.Client
	sessionID string
	committed bool
}

// BeginSession starts a BigQuery session and opens a transaction inside it.
func BeginSession(ctx context.Context, client *bigquery.Client) (*Session, error) {
	q := client.Query("BEGIN TRANSACTION;")
	q.CreateSession = true

	job, err := q.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("BeginSession: running begin: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("BeginSession: waiting for begin: %w", err)
	}
	if err := status.Err(); err != nil {
		return nil, fmt.Errorf("BeginSession: begin error: %w", err)
	}

	last := job.LastStatus()
	if last == nil || last.Statistics == nil || last.Statistics.SessionInfo == nil {
		return nil, fmt.Errorf("BeginSession: no session id returned")
	}

	return &Session{client: client, sessionID: last.Statistics.SessionInfo.SessionID}, nil
}

// Exec runs one statement inside the session's transaction.
func (s *Session) Exec(ctx context.Context, query string, params []bigquery.QueryParameter) error {
	q := s.client.Query(query)
	q.Parameters = params
	q.ConnectionProperties = []*bigquery.ConnectionProperty{
		{Key: "session_id", Value: s.sessionID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("Session.Exec: running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("Session.Exec: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("Session.Exec: job error: %w", err)
	}
	return nil
}

// Commit commits the run's transaction.
func (s *Session) Commit(ctx context.Context) error {
	if err := s.Exec(ctx, "COMMIT TRANSACTION;", nil); err != nil {
		return fmt.Errorf("committing run transaction: %w", err)
	}
	s.committed = true
	return nil
}

// Close rolls back the transaction when it was not committed. Safe to defer
// alongside an explicit Commit.
func (s *Session) Close(ctx context.Context) {
	if s.committed {
		return
	}
	if err := s.Exec(ctx, "ROLLBACK TRANSACTION;", nil); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to roll back run transaction")
	}
}
