package storage

import (
	"database/sql"
	"fmt"
	"time"
)

const userColumns = `user_id, username, email, password_hash, account_type, created_at, expires_at, last_login_at`

// CreateUser creates a user with transaction isolation so two
// registrations cannot race on the same name or email.
func (s *Store) CreateUser(record UserRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.userExists(tx, record.Username, record.Email)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("username or email already exists")
	}

	query := `INSERT INTO users (
		user_id, username, email, password_hash, account_type, created_at, expires_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.Exec(query,
		record.UserID, record.Username, record.Email,
		record.PasswordHash, record.AccountType, record.CreatedAt, record.ExpiresAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) userExists(tx *sql.Tx, username, email string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE username = ? COLLATE NOCASE`
	args := []any{username}

	if email != "" {
		query = `SELECT COUNT(*) FROM users WHERE username = ? COLLATE NOCASE OR email = ? COLLATE NOCASE`
		args = append(args, email)
	}

	if err := tx.QueryRow(query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) scanUser(row *sql.Row) (*UserRecord, error) {
	var user UserRecord
	err := row.Scan(
		&user.UserID, &user.Username, &user.Email,
		&user.PasswordHash, &user.AccountType, &user.CreatedAt,
		&user.ExpiresAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by unique user ID.
func (s *Store) GetUserByID(userID string) (*UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = ?`
	return s.scanUser(s.db.QueryRow(query, userID))
}

// GetUserByUsername retrieves a user by name, case-insensitively.
func (s *Store) GetUserByUsername(username string) (*UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ? COLLATE NOCASE`
	return s.scanUser(s.db.QueryRow(query, username))
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetUserByEmail(email string) (*UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE`
	return s.scanUser(s.db.QueryRow(query, email))
}

// GetAllUsers retrieves all users, newest first.
func (s *Store) GetAllUsers() ([]UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		var user UserRecord
		err := rows.Scan(
			&user.UserID, &user.Username, &user.Email,
			&user.PasswordHash, &user.AccountType, &user.CreatedAt,
			&user.ExpiresAt, &user.LastLoginAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// GetUserCounts returns current user counts by account type.
func (s *Store) GetUserCounts() (total, permanent, temp int, err error) {
	query := `SELECT
		COUNT(*) as total,
		COALESCE(SUM(CASE WHEN account_type = 'permanent' THEN 1 ELSE 0 END), 0) as permanent,
		COALESCE(SUM(CASE WHEN account_type = 'temp' THEN 1 ELSE 0 END), 0) as temp
	FROM users`

	err = s.db.QueryRow(query).Scan(&total, &permanent, &temp)
	return
}

// DeleteUserByID removes a user synchronously.
func (s *Store) DeleteUserByID(userID string) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE user_id = ?`, userID)
	return err
}

// DeleteExpiredTempUsers removes temporary users past their expiry.
func (s *Store) DeleteExpiredTempUsers() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM users WHERE account_type = 'temp' AND expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// PromoteToPermanent upgrades a temp user to a permanent account.
func (s *Store) PromoteToPermanent(userID string) error {
	_, err := s.db.Exec(`UPDATE users SET account_type = 'permanent', expires_at = NULL WHERE user_id = ?`, userID)
	return err
}

// UpdateUserPassword updates a user's password hash.
func (s *Store) UpdateUserPassword(userID string, passwordHash string) error {
	_, err := s.db.Exec(`UPDATE users SET password_hash = ? WHERE user_id = ?`, passwordHash, userID)
	return err
}

// UpdateUserEmail updates a user's email.
func (s *Store) UpdateUserEmail(userID string, email string) error {
	_, err := s.db.Exec(`UPDATE users SET email = ? WHERE user_id = ?`, email, userID)
	return err
}

// UpdateUserUsername updates a username.
func (s *Store) UpdateUserUsername(userID string, username string) error {
	_, err := s.db.Exec(`UPDATE users SET username = ? WHERE user_id = ?`, username, userID)
	return err
}

// UpdateUserLastLoginSync updates a user's last login time.
func (s *Store) UpdateUserLastLoginSync(userID string, loginTime time.Time) error {
	_, err := s.db.Exec(`UPDATE users SET last_login_at = ? WHERE user_id = ?`, loginTime, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login for user %s: %w", userID, err)
	}
	return nil
}
