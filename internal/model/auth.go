package model

type LoginRequest struct {
	LoginID  string `json:"loginId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	LoginID  string `json:"loginId" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Username     string `json:"username"`
	Role         string `json:"role"`
}

type RegisterResponse struct {
	Message string `json:"message"`
}

type UserInfo struct {
	ID      int64  `json:"id"`
	LoginID string `json:"loginId"`
	Name    string `json:"username"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Role    string `json:"role"`
}

// AuthUser is the verified caller identity exposed to handlers after the
// bearer middleware has validated the access token.
type AuthUser struct {
	ID   int64
	Role string
}
