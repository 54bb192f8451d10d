package service

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/jwtapi/backend/internal/model"
)

// Result wrappers translate every outcome into a status + body pair in one
// place, so the transport layer forwards without branching.

func (s *AuthService) LoginResult(ctx context.Context, loginID, password string) model.ServiceResult {
	res, err := s.Login(ctx, loginID, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return fail(http.StatusUnauthorized, "invalid credentials")
		}
		return serverError("login", err)
	}
	return model.ServiceResult{Status: http.StatusOK, Body: res}
}

func (s *AuthService) RegisterResult(ctx context.Context, req model.RegisterRequest) model.ServiceResult {
	if err := s.Register(ctx, req); err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			return fail(http.StatusBadRequest, "invalid input")
		case errors.Is(err, ErrDuplicateUser):
			return fail(http.StatusConflict, "already exists")
		}
		return serverError("register", err)
	}
	return model.ServiceResult{Status: http.StatusOK, Body: model.RegisterResponse{Message: "registered"}}
}

func (s *AuthService) RefreshResult(ctx context.Context, refreshToken string) model.ServiceResult {
	res, err := s.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return fail(http.StatusUnauthorized, "invalid refresh token")
		}
		return serverError("refresh", err)
	}
	return model.ServiceResult{Status: http.StatusOK, Body: res}
}

func (s *AuthService) LogoutResult(ctx context.Context, userID int64) model.ServiceResult {
	if err := s.Logout(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return fail(http.StatusNotFound, "user not found")
		}
		return serverError("logout", err)
	}
	return model.ServiceResult{Status: http.StatusOK, Body: model.StatusResponse{Status: "logged_out"}}
}

func (s *AuthService) ListUsersResult(ctx context.Context) model.ServiceResult {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return serverError("list users", err)
	}
	return model.ServiceResult{Status: http.StatusOK, Body: users}
}

func fail(status int, msg string) model.ServiceResult {
	return model.ServiceResult{Status: status, Body: model.ErrorResponse{Error: msg}}
}

// serverError keeps the cause in the server log only; callers get a generic
// body.
func serverError(op string, err error) model.ServiceResult {
	log.Printf("auth: %s failed: %v", op, err)
	return fail(http.StatusInternalServerError, "server error")
}
