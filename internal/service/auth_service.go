package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cpu_boost/internal/models"
	"cpu_boost/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = time.Hour

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrEmptySigningKey = errors.New("auth signing key is empty")

	// ErrUserExists is returned by SignUp for a taken username.
	ErrUserExists = repository.ErrUserExists
)

// AuthOptions configures token issuing.
type AuthOptions struct {
	SigningKey string
	TokenTTL   time.Duration
}

// AuthService signs users up, issues role-bearing tokens and parses them.
type AuthService struct {
	authRepo   repository.Authorization
	signingKey []byte
	tokenTTL   time.Duration
	now        func() time.Time
}

func NewAuthService(repo repository.Authorization, opts AuthOptions) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	return &AuthService{
		authRepo:   repo,
		signingKey: []byte(opts.SigningKey),
		tokenTTL:   opts.TokenTTL,
		now:        time.Now,
	}
}

// SignUp creates a requester account.
func (s *AuthService) SignUp(username, password string) (int, error) {
	return s.createUser(username, password, models.RoleRequester)
}

// EnsureOperator creates the operator account unless the username exists.
func (s *AuthService) EnsureOperator(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return nil
	}
	u, err := s.authRepo.GetByUsername(username)
	if err != nil {
		return err
	}
	if u != nil {
		return nil
	}
	_, err = s.createUser(username, password, models.RoleOperator)
	return err
}

func (s *AuthService) createUser(username, password, role string) (int, error) {
	if strings.TrimSpace(username) == "" {
		return 0, errors.New("username is empty")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("invalid password: %w", err)
	}
	return s.authRepo.Create(username, hash, role)
}

// Claims defines JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
}

// GenerateToken validates credentials and returns a signed JWT.
func (s *AuthService) GenerateToken(username, password string) (string, error) {
	u, err := s.authRepo.GetByUsername(username)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrUserNotFound
	}
	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return "", ErrInvalidPassword
	}
	return s.issueToken(u.ID, u.Role)
}

// ParseToken validates an access token and returns the caller identity.
func (s *AuthService) ParseToken(accessToken string) (Identity, error) {
	if len(s.signingKey) == 0 {
		return Identity{}, ErrEmptySigningKey
	}
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return Identity{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	role := claims.Role
	if role == "" {
		role = models.RoleRequester
	}
	return Identity{UserID: claims.UserID, Role: role}, nil
}

func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) issueToken(userID int, role string) (string, error) {
	if len(s.signingKey) == 0 {
		return "", ErrEmptySigningKey
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
		Role:   role,
	})
	return token.SignedString(s.signingKey)
}
