package sqlitestore

import (
	"context"
	"fmt"

	"github.com/lwsgs/lwsgs/db"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const userColumns = `username, creation_time, ip, email, pwhash, pwsalt, pwchange_time,
	token, verified, token_time, last_forgot_validated, last_activity`

func scanUser(stmt *sqlite.Stmt) *db.User {
	return &db.User{
		Username:            stmt.GetText("username"),
		CreationTime:        stmt.GetInt64("creation_time"),
		IP:                  stmt.GetText("ip"),
		Email:               stmt.GetText("email"),
		Pwhash:              stmt.GetText("pwhash"),
		Pwsalt:              stmt.GetText("pwsalt"),
		PwchangeTime:        stmt.GetInt64("pwchange_time"),
		Token:               stmt.GetText("token"),
		Verified:            int(stmt.GetInt64("verified")),
		TokenTime:           stmt.GetInt64("token_time"),
		LastForgotValidated: stmt.GetInt64("last_forgot_validated"),
		LastActivity:        stmt.GetInt64("last_activity"),
	}
}

func (s *Store) UserGet(ctx context.Context, username string) (*db.User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var user *db.User
	err = sqlitex.Execute(conn,
		`SELECT `+userColumns+` FROM users WHERE username = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			Args:       []any{username},
			ResultFunc: func(stmt *sqlite.Stmt) error { user = scanUser(stmt); return nil },
		})
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: user_get %s: %w", username, err)
	}
	return user, nil
}

func (s *Store) UserGetByEmail(ctx context.Context, email string) (*db.User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var user *db.User
	err = sqlitex.Execute(conn,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			Args:       []any{email},
			ResultFunc: func(stmt *sqlite.Stmt) error { user = scanUser(stmt); return nil },
		})
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: user_get_by_email %s: %w", email, err)
	}
	return user, nil
}

func (s *Store) UserGetByToken(ctx context.Context, token string, requireVerified bool) (*db.User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	query := `SELECT ` + userColumns + ` FROM users WHERE token = ?`
	if requireVerified {
		query += fmt.Sprintf(" AND verified = %d", db.VerifiedDispatched)
	}
	query += " LIMIT 1"

	var user *db.User
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args:       []any{token},
		ResultFunc: func(stmt *sqlite.Stmt) error { user = scanUser(stmt); return nil },
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: user_get_by_token: %w", err)
	}
	return user, nil
}

func (s *Store) UserInsert(ctx context.Context, u *db.User) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO users (username, creation_time, ip, email, pwhash, pwsalt,
			pwchange_time, token, verified, token_time, last_forgot_validated, last_activity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				u.Username, u.CreationTime, u.IP, u.Email, u.Pwhash, u.Pwsalt,
				u.PwchangeTime, u.Token, u.Verified, u.TokenTime, u.LastForgotValidated, u.LastActivity,
			},
		})
	if err != nil {
		return fmt.Errorf("sqlitestore: user_insert %s: %w", u.Username, err)
	}
	return nil
}

func (s *Store) UserUpdatePassword(ctx context.Context, username, hash, salt string, pwchangeTime int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users SET pwhash = ?, pwsalt = ?, pwchange_time = ? WHERE username = ?`,
		&sqlitex.ExecOptions{Args: []any{hash, salt, pwchangeTime, username}})
	if err != nil {
		return fmt.Errorf("sqlitestore: user_update_password %s: %w", username, err)
	}
	return nil
}

func (s *Store) UserUpdateVerified(ctx context.Context, username string, verified int) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users SET verified = ? WHERE username = ?`,
		&sqlitex.ExecOptions{Args: []any{verified, username}})
	if err != nil {
		return fmt.Errorf("sqlitestore: user_update_verified %s: %w", username, err)
	}
	return nil
}

func (s *Store) UserUpdateToken(ctx context.Context, username, token string, tokenTime int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users SET token = ?, token_time = ? WHERE username = ?`,
		&sqlitex.ExecOptions{Args: []any{token, tokenTime, username}})
	if err != nil {
		return fmt.Errorf("sqlitestore: user_update_token %s: %w", username, err)
	}
	return nil
}

func (s *Store) UserUpdateForgotValidated(ctx context.Context, username string, t int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users SET last_forgot_validated = ? WHERE username = ?`,
		&sqlitex.ExecOptions{Args: []any{t, username}})
	if err != nil {
		return fmt.Errorf("sqlitestore: user_update_forgot_validated %s: %w", username, err)
	}
	return nil
}

func (s *Store) UserUpdateLastActivity(ctx context.Context, username string, t int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users SET last_activity = ? WHERE username = ?`,
		&sqlitex.ExecOptions{Args: []any{t, username}})
	if err != nil {
		return fmt.Errorf("sqlitestore: user_update_last_activity %s: %w", username, err)
	}
	return nil
}

func (s *Store) UserDeleteStaleUnverified(ctx context.Context, cutoff int64) ([]string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var deleted []string
	err = sqlitex.Execute(conn,
		`DELETE FROM users WHERE verified != ? AND creation_time <= ? RETURNING username`,
		&sqlitex.ExecOptions{
			Args: []any{db.VerifiedAccepted, cutoff},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				deleted = append(deleted, stmt.GetText("username"))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: user_delete_stale_unverified: %w", err)
	}
	return deleted, nil
}

func (s *Store) UserClearStaleTokens(ctx context.Context, cutoff int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users SET token_time = 0, token = '' WHERE token_time != 0 AND token_time <= ?`,
		&sqlitex.ExecOptions{Args: []any{cutoff}})
	if err != nil {
		return fmt.Errorf("sqlitestore: user_clear_stale_tokens: %w", err)
	}
	return nil
}
