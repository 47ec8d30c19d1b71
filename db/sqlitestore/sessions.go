package sqlitestore

import (
	"context"
	"fmt"

	"github.com/lwsgs/lwsgs/db"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func (s *Store) SessionInsert(ctx context.Context, sess *db.Session) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO sessions (name, username, expire, last_activity) VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{sess.Name, sess.Username, sess.Expire, sess.Expire}})
	if err != nil {
		return fmt.Errorf("sqlitestore: session_insert %s: %w", sess.Name, err)
	}
	return nil
}

func (s *Store) SessionGet(ctx context.Context, name string) (*db.Session, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var sess *db.Session
	err = sqlitex.Execute(conn,
		`SELECT name, username, expire FROM sessions WHERE name = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			Args: []any{name},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				sess = &db.Session{
					Name:     stmt.GetText("name"),
					Username: stmt.GetText("username"),
					Expire:   stmt.GetInt64("expire"),
				}
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: session_get %s: %w", name, err)
	}
	return sess, nil
}

func (s *Store) SessionUpdate(ctx context.Context, name, username string, expire int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE sessions SET username = ?, expire = ?, last_activity = ? WHERE name = ?`,
		&sqlitex.ExecOptions{Args: []any{username, expire, expire, name}})
	if err != nil {
		return fmt.Errorf("sqlitestore: session_update %s: %w", name, err)
	}
	return nil
}

func (s *Store) SessionTouch(ctx context.Context, name string, t int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE sessions SET last_activity = ? WHERE name = ?`,
		&sqlitex.ExecOptions{Args: []any{t, name}})
	if err != nil {
		return fmt.Errorf("sqlitestore: session_touch %s: %w", name, err)
	}
	return nil
}

func (s *Store) SessionDelete(ctx context.Context, name string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`DELETE FROM sessions WHERE name = ?`,
		&sqlitex.ExecOptions{Args: []any{name}})
	if err != nil {
		return fmt.Errorf("sqlitestore: session_delete %s: %w", name, err)
	}
	return nil
}

// SessionDeleteExpired removes every session past its absolute deadline,
// and, when idleCutoff is non-zero, every session whose last_activity
// predates it — the idle-timeout sweep.
func (s *Store) SessionDeleteExpired(ctx context.Context, now, idleCutoff int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`DELETE FROM sessions WHERE expire <= ?`,
		&sqlitex.ExecOptions{Args: []any{now}})
	if err != nil {
		return fmt.Errorf("sqlitestore: session_delete_expired: %w", err)
	}

	if idleCutoff == 0 {
		return nil
	}

	err = sqlitex.Execute(conn,
		`DELETE FROM sessions WHERE last_activity != 0 AND last_activity <= ?`,
		&sqlitex.ExecOptions{Args: []any{idleCutoff}})
	if err != nil {
		return fmt.Errorf("sqlitestore: session_delete_expired (idle): %w", err)
	}
	return nil
}
