// Package auth registers users and issues the bearer tokens that guard the
// sample and measurement history.
//
// Passwords are stored as bcrypt hashes. Tokens are HS256 JWTs carrying the
// user's ID and email; they are stateless, so logging out is a client concern.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aretw0/elementx/pkg/domain"
	"github.com/aretw0/elementx/pkg/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTokenExpired        = errors.New("token has expired")
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrMissingSecret       = errors.New("signing secret is required")
)

// Registration is the input to Register.
type Registration struct {
	Name        string `json:"name"`
	Institution string `json:"institution,omitempty"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// Session is returned by Register and Login.
type Session struct {
	Token string         `json:"token"`
	User  domain.Profile `json:"user"`
}

// Claims are the JWT claims carried by a token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Service implements registration, login and token verification.
type Service struct {
	users  ports.UserStore
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTokenTTL overrides DefaultTokenTTL.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBcryptCost sets the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

// WithClock injects the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides the user ID generator (UUIDv4 by default).
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates an auth service over the given user store.
func NewService(users ports.UserStore, secret []byte, opts ...Option) (*Service, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	s := &Service{
		users:  users,
		secret: secret,
		ttl:    DefaultTokenTTL,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validate(r Registration) error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidRegistration)
	case strings.TrimSpace(r.Email) == "":
		return fmt.Errorf("%w: email is required", ErrInvalidRegistration)
	case r.Password == "":
		return fmt.Errorf("%w: password is required", ErrInvalidRegistration)
	}
	addr, err := mail.ParseAddress(r.Email)
	if err != nil || addr.Address != strings.TrimSpace(r.Email) {
		return fmt.Errorf("%w: %q is not a valid email address", ErrInvalidRegistration, r.Email)
	}
	return nil
}

// Register creates an account and returns a session for it.
// A duplicate email yields domain.ErrEmailTaken.
func (s *Service) Register(ctx context.Context, r Registration) (Session, error) {
	if err := validate(r); err != nil {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return Session{}, fmt.Errorf("%w: password is longer than 72 bytes", ErrInvalidRegistration)
		}
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           s.newID(),
		Name:         strings.TrimSpace(r.Name),
		Institution:  strings.TrimSpace(r.Institution),
		Email:        normalizeEmail(r.Email),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return Session{}, err
	}
	s.logger.Info("user registered", "user_id", user.ID)

	return s.session(user)
}

// Login checks the password and returns a fresh session.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		s.logger.Debug("login rejected", "user_id", user.ID)
		return Session{}, ErrInvalidCredentials
	}
	return s.session(user)
}

func (s *Service) session(user *domain.User) (Session, error) {
	token, err := s.Issue(user)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user.Profile()}, nil
}

// Issue signs a token for user.
func (s *Service) Issue(user *domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its claims.
func (s *Service) Verify(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return Claims{}, fmt.Errorf("%w: missing userId", ErrInvalidToken)
	}
	return claims, nil
}

// CurrentUser resolves the user a token was issued to.
func (s *Service) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrInvalidToken)
		}
		return nil, err
	}
	return user, nil
}
