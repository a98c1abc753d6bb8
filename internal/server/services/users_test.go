package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/learnhub/user-service/internal/common"
	"github.com/learnhub/user-service/internal/dbx"
	"github.com/learnhub/user-service/internal/logging"
	"github.com/learnhub/user-service/internal/server/auth"
	"github.com/learnhub/user-service/internal/server/cache"
	"github.com/learnhub/user-service/internal/server/config"
	"github.com/learnhub/user-service/internal/server/models"
	usersrepo "github.com/learnhub/user-service/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func newUserService(t *testing.T, db *sql.DB, repo *fakeUsersRepo, c cache.Cache) *UserService {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:             "k",
		TokenValidityDuration: 24 * time.Hour,
		CacheTTL:              300 * time.Second,
	}
	if c == nil {
		c = cache.NewMemoryCache()
	}
	return NewUserService(db, &fakeRepoManager{u: repo}, c, testLogger(), cfg)
}

func strPtr(s string) *string { return &s }

// fakeUsersRepo is an in-memory users.Repository keyed by id.
type fakeUsersRepo struct {
	users  map[int64]*models.User
	nextID int64

	createErr error
	listErr   error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: make(map[int64]*models.User), nextID: 1}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, other := range f.users {
		if other.Email == u.Email {
			return nil, common.ErrorEmailTaken
		}
		if other.Username == u.Username {
			return nil, common.ErrorUsernameTaken
		}
	}
	u.ID = f.nextID
	f.nextID++
	u.IsActive = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) Update(ctx context.Context, u *models.User) error {
	stored, ok := f.users[u.ID]
	if !ok {
		return common.ErrorNotFound
	}
	stored.FirstName = u.FirstName
	stored.LastName = u.LastName
	stored.Role = u.Role
	stored.UpdatedAt = time.Now()
	u.UpdatedAt = stored.UpdatedAt
	return nil
}

func (f *fakeUsersRepo) ListActive(ctx context.Context, role string, offset, limit int) ([]*models.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var all []*models.User
	for id := int64(1); id < f.nextID; id++ {
		u, ok := f.users[id]
		if !ok || !u.IsActive {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		cp := *u
		all = append(all, &cp)
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *fakeUsersRepo) CountActive(ctx context.Context, role string) (int64, error) {
	var n int64
	for _, u := range f.users {
		if !u.IsActive {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		n++
	}
	return n, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.u }

func register(t *testing.T, s *UserService, email, username, password string) (*models.User, string) {
	t.Helper()
	u, tok, err := s.Register(context.Background(), RegisterInput{
		Email: email, Username: username, Password: password,
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return u, tok
}

// --- register / login ---

func TestRegister_IssuesTokenForNewUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, newFakeUsersRepo(), nil)

	u, tok := register(t, s, "a@x.com", "alice", "p1")

	if u.Role != models.RoleStudent {
		t.Fatalf("expected default role student, got %q", u.Role)
	}
	if u.PasswordHash == "p1" || u.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}

	uid, err := s.VerifyToken(tok)
	if err != nil {
		t.Fatalf("VerifyToken error: %v", err)
	}
	if uid != u.ID {
		t.Fatalf("token subject mismatch: got %d want %d", uid, u.ID)
	}
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, newFakeUsersRepo(), nil)

	register(t, s, "a@x.com", "alice", "p1")

	_, _, err := s.Register(context.Background(), RegisterInput{Email: "a@x.com", Username: "someone-else", Password: "p2"})
	if !errors.Is(err, common.ErrorEmailTaken) {
		t.Fatalf("expected ErrorEmailTaken, got %v", err)
	}
}

func TestRegister_DuplicateUsernameConflicts(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, newFakeUsersRepo(), nil)

	register(t, s, "a@x.com", "alice", "p1")

	_, _, err := s.Register(context.Background(), RegisterInput{Email: "other@x.com", Username: "alice", Password: "p2"})
	if !errors.Is(err, common.ErrorUsernameTaken) {
		t.Fatalf("expected ErrorUsernameTaken, got %v", err)
	}
}

func TestLogin_SuccessIssuesFreshToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, newFakeUsersRepo(), nil)

	u, regTok := register(t, s, "a@x.com", "alice", "p1")

	regClaims, err := auth.ParseToken(regTok, []byte("k"))
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}

	time.Sleep(1100 * time.Millisecond) // iat has second granularity

	got, loginTok, err := s.Login(context.Background(), "a@x.com", "p1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("wrong user: %d", got.ID)
	}

	loginClaims, err := auth.ParseToken(loginTok, []byte("k"))
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if loginClaims.UserID != regClaims.UserID {
		t.Fatal("both tokens must carry the same subject")
	}
	if !loginClaims.IssuedAt.After(regClaims.IssuedAt.Time) {
		t.Fatal("login token must have a later issued-at than the registration token")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, newFakeUsersRepo(), nil)

	register(t, s, "a@x.com", "alice", "p1")

	_, _, err := s.Login(context.Background(), "a@x.com", "wrong")
	if !errors.Is(err, common.ErrorInvalidCredentials) {
		t.Fatalf("expected ErrorInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmailReadsAsInvalidCredentials(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, newFakeUsersRepo(), nil)

	_, _, err := s.Login(context.Background(), "nobody@x.com", "p1")
	if !errors.Is(err, common.ErrorInvalidCredentials) {
		t.Fatalf("expected ErrorInvalidCredentials, got %v", err)
	}
}

func TestLogin_InactiveAccountRejected(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := newFakeUsersRepo()
	s := newUserService(t, db, repo, nil)

	u, _ := register(t, s, "a@x.com", "alice", "p1")
	repo.users[u.ID].IsActive = false

	_, _, err := s.Login(context.Background(), "a@x.com", "p1")
	if !errors.Is(err, common.ErrorAccountInactive) {
		t.Fatalf("expected ErrorAccountInactive, got %v", err)
	}
}

// Deactivation does not revoke tokens issued earlier: there is no revocation
// list, so a token stays valid until its expiry. This pins the current
// behavior; it is a known gap, not an endorsement.
func TestVerifyToken_SurvivesDeactivation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := newFakeUsersRepo()
	s := newUserService(t, db, repo, nil)

	u, tok := register(t, s, "a@x.com", "alice", "p1")
	repo.users[u.ID].IsActive = false

	uid, err := s.VerifyToken(tok)
	if err != nil {
		t.Fatalf("expected the pre-deactivation token to still verify, got %v", err)
	}
	if uid != u.ID {
		t.Fatalf("token subject mismatch: got %d want %d", uid, u.ID)
	}
}

// --- reads ---

func TestGet_ReadsThroughCache(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := newFakeUsersRepo()
	s := newUserService(t, db, repo, nil)

	u, _ := register(t, s, "a@x.com", "alice", "p1")

	p, cached, err := s.Get(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if cached {
		t.Fatal("first read must be a miss")
	}
	if p.Username != "alice" || p.Email != "" {
		t.Fatalf("unexpected projection: %+v", p)
	}

	p2, cached, err := s.Get(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !cached {
		t.Fatal("second read must be served from the cache")
	}
	if p2.Username != p.Username {
		t.Fatalf("cached projection differs: %+v", p2)
	}
}

func TestGet_NotFound(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, newFakeUsersRepo(), nil)

	_, _, err := s.Get(context.Background(), 999)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestList_PaginatesAndCaches(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := newFakeUsersRepo()
	s := newUserService(t, db, repo, nil)

	for _, name := range []string{"u1", "u2", "u3"} {
		register(t, s, name+"@x.com", name, "p")
	}

	listing, cached, err := s.List(context.Background(), "", 1, 2)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if cached {
		t.Fatal("first listing must be a miss")
	}
	if len(listing.Users) != 2 || listing.Pagination.Total != 3 || listing.Pagination.Pages != 2 {
		t.Fatalf("unexpected listing: %+v", listing.Pagination)
	}

	_, cached, err = s.List(context.Background(), "", 1, 2)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if !cached {
		t.Fatal("second listing must be served from the cache")
	}
}

func TestList_RoleFilter(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := newFakeUsersRepo()
	s := newUserService(t, db, repo, nil)

	register(t, s, "s@x.com", "student1", "p")
	u, _, err := s.Register(context.Background(), RegisterInput{
		Email: "i@x.com", Username: "teach", Password: "p", Role: models.RoleInstructor,
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	listing, _, err := s.List(context.Background(), models.RoleInstructor, 1, 10)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(listing.Users) != 1 || listing.Users[0].ID != u.ID {
		t.Fatalf("unexpected filtered listing: %+v", listing.Users)
	}
}

func TestList_CacheDegradesToMissOnEmptyCache(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := newFakeUsersRepo()
	s := newUserService(t, db, repo, cache.NewMemoryCache())

	register(t, s, "a@x.com", "alice", "p")

	listing, cached, err := s.List(context.Background(), "", 0, 0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if cached {
		t.Fatal("expected a miss")
	}
	if listing.Pagination.Page != 1 || listing.Pagination.Limit != 10 {
		t.Fatalf("expected defaulted pagination, got %+v", listing.Pagination)
	}
}

// --- update ---

func TestUpdate_AppliesWhitelistAndInvalidatesCache(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	repo := newFakeUsersRepo()
	s := newUserService(t, db, repo, nil)

	u, _ := register(t, s, "a@x.com", "alice", "p1")

	// warm both cache shapes
	if _, _, err := s.Get(context.Background(), u.ID); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if _, _, err := s.List(context.Background(), "", 1, 10); err != nil {
		t.Fatalf("List error: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectCommit()

	updated, err := s.Update(context.Background(), u.ID, UpdateInput{FirstName: strPtr("Alicia")})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.FirstName == nil || *updated.FirstName != "Alicia" {
		t.Fatalf("first name not applied: %+v", updated.FirstName)
	}

	// the next per-id read must reflect the new value, not a stale entry
	p, cached, err := s.Get(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if cached {
		t.Fatal("per-id entry must have been invalidated")
	}
	if p.FirstName == nil || *p.FirstName != "Alicia" {
		t.Fatalf("stale projection after update: %+v", p.FirstName)
	}

	// listing pages are tracked in the membership index and must be gone too
	_, cached, err = s.List(context.Background(), "", 1, 10)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if cached {
		t.Fatal("listing entries must have been invalidated")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("tx expectations: %v", err)
	}
}

func TestUpdate_NotFoundRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, newFakeUsersRepo(), nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.Update(context.Background(), 999, UpdateInput{FirstName: strPtr("x")})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("tx expectations: %v", err)
	}
}

// --- health ---

func TestProbeStore(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, newFakeUsersRepo(), nil)

	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	if err := s.ProbeStore(context.Background()); err != nil {
		t.Fatalf("ProbeStore error: %v", err)
	}

	mock.ExpectQuery(`SELECT 1`).WillReturnError(errors.New("down"))
	if err := s.ProbeStore(context.Background()); err == nil {
		t.Fatal("expected probe failure")
	}
}
