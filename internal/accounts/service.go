package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sweetfrozen/storefront/internal/storage"
	pkgAuth "github.com/sweetfrozen/storefront/pkg/auth"
	"github.com/sweetfrozen/storefront/pkg/config"
	pkgerrors "github.com/sweetfrozen/storefront/pkg/errors"
	"github.com/sweetfrozen/storefront/pkg/logger"
	"github.com/sweetfrozen/storefront/pkg/security"
)

const (
	userKeyPrefix             = "users:"
	invalidCredentialsMessage = "invalid credentials"
	demoPassword              = "demo123"
)

var demoUsers = []struct {
	Name        string
	Email       string
	MemberSince string
}{
	{Name: "Somchai Wiset", Email: "somchai@email.com", MemberSince: "2024-01-15"},
	{Name: "Malee Jaidee", Email: "malee@email.com", MemberSince: "2024-02-20"},
	{Name: "Wichai Rakdee", Email: "wichai@email.com", MemberSince: "2024-03-10"},
}

// Store is the JSON key-value layer user records live in.
type Store interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any) error
}

// Service registers and authenticates shoppers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	SeedDemoUsers(ctx context.Context) error
}

// ServiceParams bundles the dependencies required to build an accounts service.
type ServiceParams struct {
	Store          Store
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	store       Store
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
	locks       *storage.KeyLocks
}

// NewService constructs an accounts service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if params.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		store:       params.Store,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		logg:        logg,
		now:         now,
		locks:       storage.NewKeyLocks(),
	}, nil
}

func userKey(email string) string {
	return userKeyPrefix + email
}

// DemoUserID returns the stable id assigned to a seeded demo account.
func DemoUserID(email string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("sweetfrozen:user:"+security.NormalizeEmail(email)))
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	email := security.NormalizeEmail(req.Email)
	if !security.ValidEmail(email) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if !security.StrongEnough(req.Password) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", security.MinPasswordLength))
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	user, created, err := s.insert(ctx, email, func() (User, error) {
		hash, err := security.HashPassword(req.Password, s.passwordCfg)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		now := s.now().UTC()
		return User{
			ID:           uuid.New(),
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			MemberSince:  now.Format("2006-01-02"),
			CreatedAt:    now,
		}, nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "register user")
	}
	if !created {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}
	s.logg.Info(s.logg.WithUserKey(ctx, user.ID.String()), "shopper registered")

	return s.issue(user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := security.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	var user User
	if !s.store.Get(ctx, userKey(email), &user) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return s.issue(user)
}

// insert saves the user built by newUser unless the email is already taken.
// The existence check and the write happen under the email's key lock.
func (s *service) insert(ctx context.Context, email string, newUser func() (User, error)) (User, bool, error) {
	key := userKey(email)
	unlock := s.locks.Lock(key)
	defer unlock()

	var existing User
	if s.store.Get(ctx, key, &existing) {
		return existing, false, nil
	}
	user, err := newUser()
	if err != nil {
		return User{}, false, err
	}
	if err := s.store.Set(ctx, key, user); err != nil {
		return User{}, false, fmt.Errorf("save user: %w", err)
	}
	return user, true, nil
}

func (s *service) issue(user User) (*LoginResponse, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &LoginResponse{AccessToken: token, User: FromUser(user)}, nil
}

// SeedDemoUsers creates the demo shoppers that do not exist yet.
func (s *service) SeedDemoUsers(ctx context.Context) error {
	for _, demo := range demoUsers {
		_, _, err := s.insert(ctx, demo.Email, func() (User, error) {
			hash, err := security.HashPassword(demoPassword, s.passwordCfg)
			if err != nil {
				return User{}, fmt.Errorf("hash demo password: %w", err)
			}
			return User{
				ID:           DemoUserID(demo.Email),
				Name:         demo.Name,
				Email:        demo.Email,
				PasswordHash: hash,
				MemberSince:  demo.MemberSince,
				CreatedAt:    s.now().UTC(),
			}, nil
		})
		if err != nil {
			return fmt.Errorf("seed demo user %s: %w", demo.Email, err)
		}
	}
	s.logg.Debug(ctx, "demo users seeded")
	return nil
}
