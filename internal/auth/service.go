package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type TTLs struct {
	Access          time.Duration
	Refresh         time.Duration
	RefreshRemember time.Duration
}

type Service struct {
	users  UserStore
	tokens *Tokens
	ttl    TTLs
	log    zerolog.Logger
}

func NewService(users UserStore, tokens *Tokens, ttl TTLs, log zerolog.Logger) *Service {
	return &Service{users: users, tokens: tokens, ttl: ttl, log: log.With().Str("component", "auth").Logger()}
}

func (s *Service) Register(ctx context.Context, r Registration) (User, error) {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.Username = strings.TrimSpace(r.Username)
	if err := r.Validate(); err != nil {
		return User{}, err
	}
	hash, err := HashPassword(r.Password)
	if err != nil {
		return User{}, err
	}
	u, err := s.users.Create(ctx, User{
		Email:        r.Email,
		Username:     r.Username,
		FullName:     r.FullName,
		PasswordHash: hash,
		IsActive:     true,
	})
	if err != nil {
		return User{}, err
	}
	s.log.Info().Int64("user_id", u.ID).Msg("user registered")
	return u, nil
}

func (s *Service) Login(ctx context.Context, login, password string, rememberMe bool) (TokenPair, error) {
	u, err := s.users.FindByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, ErrUserNotFound) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, err
	}
	if !VerifyPassword(u.PasswordHash, password) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return TokenPair{}, ErrInactiveUser
	}

	refreshTTL := s.ttl.Refresh
	if rememberMe {
		refreshTTL = s.ttl.RefreshRemember
	}
	access, err := s.tokens.Issue(u, TokenAccess, s.ttl.Access)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.Issue(u, TokenRefresh, refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, refresh); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// Refresh issues a new access token. The refresh token must be the one
// stored at the last login; it is returned unchanged.
func (s *Service) Refresh(ctx context.Context, refresh string) (TokenPair, error) {
	claims, err := s.tokens.Parse(refresh, TokenRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	id, _ := claims.UserID()
	u, err := s.users.Get(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return TokenPair{}, ErrInvalidToken
	}
	if err != nil {
		return TokenPair{}, err
	}
	if !u.IsActive || u.RefreshToken == "" || u.RefreshToken != refresh {
		return TokenPair{}, ErrInvalidToken
	}
	access, err := s.tokens.Issue(u, TokenAccess, s.ttl.Access)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.users.SetRefreshToken(ctx, userID, "")
}

func (s *Service) Me(ctx context.Context, userID int64) (User, error) {
	return s.users.Get(ctx, userID)
}

// Authenticate resolves an access token into a Principal.
func (s *Service) Authenticate(raw string) (Principal, error) {
	claims, err := s.tokens.Parse(raw, TokenAccess)
	if err != nil {
		return Principal{}, err
	}
	id, _ := claims.UserID()
	return Principal{UserID: id, Username: claims.Username}, nil
}
