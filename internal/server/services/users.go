// Package services contains the business operations of the user service,
// composed from the credential store, the cache, and the token helpers.
// Handlers translate these operations to HTTP; nothing here depends on a
// serving framework.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/learnhub/user-service/internal/common"
	"github.com/learnhub/user-service/internal/dbx"
	"github.com/learnhub/user-service/internal/logging"
	"github.com/learnhub/user-service/internal/server/auth"
	"github.com/learnhub/user-service/internal/server/cache"
	"github.com/learnhub/user-service/internal/server/config"
	"github.com/learnhub/user-service/internal/server/models"
	"github.com/learnhub/user-service/internal/server/repositories/repomanager"
)

// Per-id entries outlive listing entries: a single user changes less often
// than the set of listings it may appear in.
const userCacheTTL = 600 * time.Second

// RegisterInput carries the registration payload. Email, Username and
// Password are required; the rest is optional.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName *string
	LastName  *string
	Role      string
}

// UpdateInput carries the mutable profile fields. Nil means "not provided";
// only the fixed whitelist below can change through this path.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Role      *string
}

// Pagination mirrors the listing envelope of the API.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Listing is a page of user projections plus its pagination envelope. It is
// also the shape stored in the cache.
type Listing struct {
	Users      []models.Projection `json:"users"`
	Pagination Pagination          `json:"pagination"`
}

type UserService struct {
	db            *sql.DB
	repos         repomanager.RepositoryManager
	cache         cache.Cache
	logger        logging.Logger
	jwtSecret     []byte
	tokenValidity time.Duration
	listTTL       time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, c cache.Cache, l logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:            db,
		repos:         m,
		cache:         c,
		logger:        l.With("module", "users"),
		jwtSecret:     []byte(cfg.JWTSecret),
		tokenValidity: cfg.TokenValidityDuration,
		listTTL:       cfg.CacheTTL,
	}
}

// Register creates an account and issues its first session token. Duplicate
// email is reported before duplicate username, matching the order callers
// see in the conflict message.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	repo := s.repos.Users(s.db)

	if _, err := repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, "", common.ErrorEmailTaken
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, "", fmt.Errorf("error checking email: %w", err)
	}

	if _, err := repo.GetByUsername(ctx, in.Username); err == nil {
		return nil, "", common.ErrorUsernameTaken
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, "", fmt.Errorf("error checking username: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("error hashing password: %w", err)
	}

	role := in.Role
	if role == "" {
		role = models.RoleStudent
	}

	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         role,
	}

	user, err = repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorEmailTaken) || errors.Is(err, common.ErrorUsernameTaken) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("error creating user: %w", err)
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, "", fmt.Errorf("error generating token: %w", err)
	}

	return user, token, nil
}

// Login authenticates by email and password and issues a session token.
// A missing account and a wrong password both read as invalid credentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	repo := s.repos.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorInvalidCredentials
		}
		return nil, "", fmt.Errorf("error looking up user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", common.ErrorInvalidCredentials
	}

	if !user.IsActive {
		return nil, "", common.ErrorAccountInactive
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, "", fmt.Errorf("error generating token: %w", err)
	}

	return user, token, nil
}

// VerifyToken checks a session token and returns the subject user id.
// Expired and malformed tokens are both rejected; no revocation list is
// consulted, so tokens issued before an account was deactivated still verify.
func (s *UserService) VerifyToken(token string) (int64, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// Get returns the projection for a single user, read through the cache.
// The second return value reports whether the response came from the cache.
func (s *UserService) Get(ctx context.Context, id int64) (*models.Projection, bool, error) {
	key := cache.UserKey(id)

	var cached models.Projection
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	user, err := s.repos.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, false, common.ErrorNotFound
		}
		return nil, false, fmt.Errorf("error loading user: %w", err)
	}

	p := user.Projection(false)
	s.cache.Set(ctx, key, p, userCacheTTL)

	return &p, false, nil
}

// List returns a page of active users, optionally filtered by role, read
// through the cache. Listing keys are tracked in the cache's membership
// index so a later mutation can invalidate every page at once.
func (s *UserService) List(ctx context.Context, role string, page, limit int) (*Listing, bool, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	key := cache.ListKey(role, page, limit)

	var cached Listing
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	repo := s.repos.Users(s.db)

	total, err := repo.CountActive(ctx, role)
	if err != nil {
		return nil, false, fmt.Errorf("error counting users: %w", err)
	}

	items, err := repo.ListActive(ctx, role, (page-1)*limit, limit)
	if err != nil {
		return nil, false, fmt.Errorf("error listing users: %w", err)
	}

	listing := &Listing{
		Users: make([]models.Projection, 0, len(items)),
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}
	for _, u := range items {
		listing.Users = append(listing.Users, u.Projection(false))
	}

	s.cache.SetIndexed(ctx, cache.ListIndex, key, listing, s.listTTL)

	return listing, false, nil
}

// Update applies the whitelisted profile fields to a user and invalidates
// the cache entries derived from the record: the per-id key and every
// tracked listing page.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateInput) (*models.User, error) {
	var user *models.User

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		u, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if in.FirstName != nil {
			u.FirstName = in.FirstName
		}
		if in.LastName != nil {
			u.LastName = in.LastName
		}
		if in.Role != nil {
			u.Role = *in.Role
		}

		if err := repo.Update(ctx, u); err != nil {
			return err
		}

		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	s.cache.Invalidate(ctx, cache.UserKey(id))
	s.cache.InvalidateIndex(ctx, cache.ListIndex)

	return user, nil
}

// ProbeStore runs the trivial connectivity probe the health endpoints rely
// on. Cache reachability is intentionally not part of health: the service
// degrades without it.
func (s *UserService) ProbeStore(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("store probe failed: %w", err)
	}
	return nil
}
