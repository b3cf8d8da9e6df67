package user

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"forumhub/internal/apperr"
)

type Service struct {
	repo      *Repository
	jwtSecret string
}

type Claims struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

func NewService(repo *Repository, secret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: secret,
	}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	if strings.TrimSpace(req.Nickname) == "" || req.Password == "" {
		return nil, apperr.Validation("nickname and password are required")
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u := &User{
		Nickname: req.Nickname,
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPwd),
	}

	if _, err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, apperr.Internal(err)
	}

	u.Password = ""
	return u, nil
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	u, err := s.repo.GetByNickname(ctx, req.Nickname)
	if err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   u.ID,
		Nickname: u.Nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "forumhub",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	})

	ss, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &LoginResponse{
		AccessToken: ss,
		ID:          u.ID,
		Nickname:    u.Nickname,
	}, nil
}

// ValidateToken checks the bearer credential and returns the user id it was
// issued for. Callers that need role flags load the user afterwards.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", apperr.Unauthorized("invalid token")
	}

	return claims.UserID, nil
}

// Authenticate resolves a bearer credential to a full user with its role and
// permission snapshot. Used at the websocket handshake and by HTTP auth.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*User, error) {
	userID, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.GetActiveByID(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("user not found or inactive")
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) GetActiveByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetActiveByID(ctx, id)
}

func (s *Service) FindActiveByNicknames(ctx context.Context, nicknames []string) ([]*User, error) {
	return s.repo.FindActiveByNicknames(ctx, nicknames)
}
