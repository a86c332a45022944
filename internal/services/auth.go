package services

import (
	"context"
	"errors"

	"github.com/example/chefdesk/internal/client"
)

// AuthService handles staff login against the backend.
type AuthService struct {
	gw *client.Gateway
}

// NewAuthService constructs AuthService.
func NewAuthService(gw *client.Gateway) *AuthService {
	return &AuthService{gw: gw}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Data struct {
		Token string `json:"token"`
		Name  string `json:"name"`
	} `json:"data"`
	MessageID int `json:"messageID"`
}

// LoginResult is the issued session.
type LoginResult struct {
	Token string
	Name  string
}

// ErrInvalidCredentials means the backend rejected the login pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Login exchanges credentials for a session token. Token issuance
// itself is the backend's concern; the client only stores the result.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	res, err := s.gw.Post(ctx, loginPath, loginRequest{Email: email, Password: password}, "")
	if err != nil {
		return LoginResult{}, err
	}
	if !res.OK() {
		return LoginResult{}, serverError(res)
	}

	var payload loginResponse
	if err := res.Decode(&payload); err != nil {
		return LoginResult{}, err
	}
	if payload.MessageID == 404 || payload.Data.Token == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	return LoginResult{Token: payload.Data.Token, Name: payload.Data.Name}, nil
}
