package sqlitestore

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func (s *Store) EmailEnqueue(ctx context.Context, username, content string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO email_queue (username, content) VALUES (?, ?)
		ON CONFLICT(username) DO UPDATE SET content = excluded.content`,
		&sqlitex.ExecOptions{Args: []any{username, content}})
	if err != nil {
		return fmt.Errorf("sqlitestore: email_enqueue %s: %w", username, err)
	}
	return nil
}

func (s *Store) EmailPeekOne(ctx context.Context) (string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", err
	}
	defer s.pool.Put(conn)

	var username string
	err = sqlitex.Execute(conn,
		`SELECT username FROM email_queue LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				username = stmt.GetText("username")
				return nil
			},
		})
	if err != nil {
		return "", fmt.Errorf("sqlitestore: email_peek_one: %w", err)
	}
	return username, nil
}

func (s *Store) EmailGetContent(ctx context.Context, username string) (string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", err
	}
	defer s.pool.Put(conn)

	var content string
	err = sqlitex.Execute(conn,
		`SELECT content FROM email_queue WHERE username = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			Args: []any{username},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				content = stmt.GetText("content")
				return nil
			},
		})
	if err != nil {
		return "", fmt.Errorf("sqlitestore: email_get_content %s: %w", username, err)
	}
	return content, nil
}

func (s *Store) EmailDelete(ctx context.Context, username string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`DELETE FROM email_queue WHERE username = ?`,
		&sqlitex.ExecOptions{Args: []any{username}})
	if err != nil {
		return fmt.Errorf("sqlitestore: email_delete %s: %w", username, err)
	}
	return nil
}
