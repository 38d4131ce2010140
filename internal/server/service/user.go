package service

import (
	"fmt"
	"strings"
	"time"

	"chesskit/internal/server/storage"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
)

// User represents a registered user account.
type User struct {
	UserID    string
	Username  string
	Email     string
	CreatedAt time.Time
}

// CreateUser registers a new account, honoring the user cap.
func (s *Service) CreateUser(username, email, password string) (*User, error) {
	if s.store == nil {
		return nil, fmt.Errorf("storage disabled")
	}

	total, _, _, err := s.store.GetUserCounts()
	if err != nil {
		return nil, fmt.Errorf("failed to check user capacity: %w", err)
	}
	if total >= MaxUsers {
		return nil, fmt.Errorf("user limit reached")
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.generateUniqueUserID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate unique ID: %w", err)
	}

	user := &User{
		UserID:    userID,
		Username:  username,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	expiresAt := user.CreatedAt.Add(TempUserTTL)
	record := storage.UserRecord{
		UserID:       userID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		AccountType:  "temp",
		CreatedAt:    user.CreatedAt,
		ExpiresAt:    &expiresAt,
	}

	if err = s.store.CreateUser(record); err != nil {
		return nil, err
	}

	return user, nil
}

// AuthenticateUser verifies credentials and returns user information.
func (s *Service) AuthenticateUser(identifier, password string) (*User, error) {
	if s.store == nil {
		return nil, fmt.Errorf("storage disabled")
	}

	var userRecord *storage.UserRecord
	var err error

	if strings.Contains(identifier, "@") {
		userRecord, err = s.store.GetUserByEmail(identifier)
	} else {
		userRecord, err = s.store.GetUserByUsername(identifier)
	}

	if err != nil {
		// Hash anyway to keep lookup failures indistinguishable by timing
		auth.HashPassword(password)
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := auth.VerifyPassword(password, userRecord.PasswordHash); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	return &User{
		UserID:    userRecord.UserID,
		Username:  userRecord.Username,
		Email:     userRecord.Email,
		CreatedAt: userRecord.CreatedAt,
	}, nil
}

// UpdateLastLogin stamps the last login time for a user.
func (s *Service) UpdateLastLogin(userID string) error {
	if s.store == nil {
		return fmt.Errorf("storage disabled")
	}
	return s.store.UpdateUserLastLoginSync(userID, time.Now().UTC())
}

// GetUserByID retrieves user information by user ID.
func (s *Service) GetUserByID(userID string) (*User, error) {
	if s.store == nil {
		return nil, fmt.Errorf("storage disabled")
	}

	userRecord, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	return &User{
		UserID:    userRecord.UserID,
		Username:  userRecord.Username,
		Email:     userRecord.Email,
		CreatedAt: userRecord.CreatedAt,
	}, nil
}

// GenerateUserToken creates a JWT token for the specified user and
// records the session it was issued under, so logout can revoke it.
// Issuing a token replaces the user's previous session.
func (s *Service) GenerateUserToken(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}

	claims := map[string]any{
		"username": user.Username,
		"email":    user.Email,
	}

	if s.store != nil {
		now := time.Now().UTC()
		session := storage.SessionRecord{
			SessionID: uuid.New().String(),
			UserID:    userID,
			CreatedAt: now,
			ExpiresAt: now.Add(SessionTTL),
		}
		if err := s.store.CreateSession(session); err != nil {
			return "", fmt.Errorf("failed to record session: %w", err)
		}
		claims["sid"] = session.SessionID
	}

	return auth.GenerateHS256Token(s.jwtSecret, userID, claims, SessionTTL)
}

// ValidateToken verifies a JWT token and returns the user ID and
// claims. With storage available the session the token was issued
// under must still exist and be unexpired, so a logged-out or replaced
// token fails here even though its signature is valid.
func (s *Service) ValidateToken(token string) (string, map[string]any, error) {
	userID, claims, err := auth.ValidateHS256Token(s.jwtSecret, token)
	if err != nil {
		return "", nil, err
	}

	if s.store != nil {
		sid, _ := claims["sid"].(string)
		if sid == "" {
			return "", nil, fmt.Errorf("token carries no session")
		}
		session, err := s.store.GetSession(sid)
		if err != nil {
			return "", nil, fmt.Errorf("session revoked")
		}
		if session.ExpiresAt.Before(time.Now().UTC()) {
			return "", nil, fmt.Errorf("session expired")
		}
	}

	return userID, claims, nil
}

// Logout removes the user's session record.
func (s *Service) Logout(userID string) error {
	if s.store == nil {
		return nil
	}
	return s.store.DeleteSessionByUserID(userID)
}

func (s *Service) generateUniqueUserID() (string, error) {
	const maxAttempts = 10

	for i := 0; i < maxAttempts; i++ {
		id := uuid.New().String()
		if _, err := s.store.GetUserByID(id); err != nil {
			// Not found means the ID is free
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique user ID after %d attempts", maxAttempts)
}
