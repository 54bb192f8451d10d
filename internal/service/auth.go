package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jwtapi/backend/internal/db"
	"github.com/jwtapi/backend/internal/model"
	"github.com/jwtapi/backend/internal/token"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrDuplicateUser       = errors.New("user already exists")
	ErrUserNotFound        = errors.New("user not found")
)

// UserStore persists user records. RotateRefreshToken reports whether a row
// still holding currentToken was found and updated.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByLoginID(ctx context.Context, loginID string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	SetRefreshToken(ctx context.Context, userID int64, refreshToken string, expiresAt time.Time) error
	RotateRefreshToken(ctx context.Context, userID int64, currentToken, newToken string, expiresAt time.Time) (bool, error)
	ClearRefreshToken(ctx context.Context, userID int64) error
}

type AuthService struct {
	store  UserStore
	hasher PasswordHasher
	signer *token.Signer
}

func NewAuthService(store UserStore, hasher PasswordHasher, signer *token.Signer) *AuthService {
	return &AuthService{store: store, hasher: hasher, signer: signer}
}

// Login verifies credentials and issues a fresh token pair, overwriting any
// previously persisted refresh token. An unknown login id and a wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, loginID, password string) (*model.LoginResponse, error) {
	user, err := s.store.GetUserByLoginID(ctx, loginID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// Refresh exchanges a valid refresh token for a new pair. The presented token
// must match the single persisted token exactly, so a superseded token is
// rejected even before its own expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.LoginResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidRefreshToken
	}

	claims, err := s.signer.Verify(refreshToken, token.TypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
	}

	userID, err := claims.UserIDInt()
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if user.RefreshToken == nil || user.RefreshTokenExpiry == nil {
		return nil, ErrInvalidRefreshToken
	}
	if *user.RefreshToken != refreshToken || user.RefreshTokenExpiry.Before(time.Now()) {
		return nil, ErrInvalidRefreshToken
	}

	accessToken, err := s.signer.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	newRefreshToken, expiresAt, err := s.signer.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	// 저장된 값이 그대로일 때만 교체. 동시 refresh가 먼저 끝났으면 실패.
	rotated, err := s.store.RotateRefreshToken(ctx, user.ID, refreshToken, newRefreshToken, expiresAt)
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, ErrInvalidRefreshToken
	}

	return &model.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		Username:     user.Name,
		Role:         user.Role,
	}, nil
}

// Logout clears the persisted refresh token. Calling it on a user without an
// outstanding token is a no-op.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		if db.IsNoRows(err) {
			return ErrUserNotFound
		}
		return err
	}
	return s.store.ClearRefreshToken(ctx, userID)
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) error {
	loginID := strings.TrimSpace(req.LoginID)
	if loginID == "" || req.Password == "" {
		return ErrInvalidInput
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return err
	}

	_, err = s.store.CreateUser(ctx, &model.User{
		LoginID:      loginID,
		PasswordHash: hash,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         "User",
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return err
	}
	return nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]model.UserInfo, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]model.UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, model.UserInfo{
			ID:      u.ID,
			LoginID: u.LoginID,
			Name:    u.Name,
			Email:   u.Email,
			Phone:   u.Phone,
			Role:    u.Role,
		})
	}
	return infos, nil
}

// EnsureAdmin seeds an admin account at startup. Idempotent: an existing
// user with the same login id is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, loginID, password string) error {
	if strings.TrimSpace(loginID) == "" || strings.TrimSpace(password) == "" {
		return errors.New("ADMIN_USERNAME/ADMIN_PASSWORD are required")
	}

	_, err := s.store.GetUserByLoginID(ctx, loginID)
	if err == nil {
		return nil
	}
	if !db.IsNoRows(err) {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	_, err = s.store.CreateUser(ctx, &model.User{
		LoginID:      loginID,
		PasswordHash: hash,
		Name:         loginID,
		Role:         "Admin",
	})
	return err
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User) (*model.LoginResponse, error) {
	accessToken, err := s.signer.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	refreshToken, expiresAt, err := s.signer.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Username:     user.Name,
		Role:         user.Role,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
