package impl

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"securelogin/config"
	"securelogin/internal/domain/entity"
	"securelogin/internal/domain/repository"
	"securelogin/internal/domain/service"
	"securelogin/internal/infra/auth"

	"github.com/google/uuid"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokenService() service.TokenService {
	cfg := &config.Config{
		Token: &config.TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 30 * 24 * time.Hour,
		},
	}
	cfg.SecretKey.Access = "test-access-secret"
	cfg.SecretKey.Refresh = "test-refresh-secret"

	tokenService, err := auth.NewJWTService(cfg)
	if err != nil {
		panic(err)
	}

	return tokenService
}

// --- In-memory repository fakes ---

// memoryStore backs the fake repositories with shared in-memory tables. It
// stands in for the database; the fake transaction manager hands out
// repositories bound to the same store, mimicking one shared datastore
// across "transactions".
type memoryStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]entity.User
	sessions map[uuid.UUID]entity.Session // keyed by SessionID
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:    make(map[uuid.UUID]entity.User),
		sessions: make(map[uuid.UUID]entity.Session),
	}
}

func (s *memoryStore) userRepo() repository.UserRepository       { return &memoryUserRepo{store: s} }
func (s *memoryStore) sessionRepo() repository.SessionRepository { return &memorySessionRepo{store: s} }

type memoryUserRepo struct {
	store *memoryStore
}

func (r *memoryUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return &user, nil
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.findNewest(func(u *entity.User) bool { return u.Email == email && u.Email != "" })
}

func (r *memoryUserRepo) FindByPhone(_ context.Context, phone string) (*entity.User, error) {
	return r.findNewest(func(u *entity.User) bool { return u.Phone == phone && u.Phone != "" })
}

func (r *memoryUserRepo) findNewest(match func(*entity.User) bool) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var candidates []entity.User
	for _, user := range r.store.users {
		if match(&user) {
			candidates = append(candidates, user)
		}
	}
	if len(candidates) == 0 {
		return nil, repository.ErrUserNotFound
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})

	return &candidates[0], nil
}

func (r *memoryUserRepo) Create(_ context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.store.users[user.ID] = *user

	return nil
}

func (r *memoryUserRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	r.store.users[id] = user

	return nil
}

type memorySessionRepo struct {
	store *memoryStore
}

func (r *memorySessionRepo) Create(_ context.Context, session *entity.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	r.store.sessions[session.SessionID] = *session

	return nil
}

func (r *memorySessionRepo) FindBySessionID(_ context.Context, sessionID uuid.UUID) (*entity.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, ok := r.store.sessions[sessionID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}

	return &session, nil
}

func (r *memorySessionRepo) FindBySessionIDForUpdate(ctx context.Context, sessionID uuid.UUID) (*entity.Session, error) {
	return r.FindBySessionID(ctx, sessionID)
}

func (r *memorySessionRepo) FindByUserID(_ context.Context, userID uuid.UUID) ([]*entity.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var sessions []*entity.Session
	for _, session := range r.store.sessions {
		if session.UserID == userID {
			s := session
			sessions = append(sessions, &s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	return sessions, nil
}

func (r *memorySessionRepo) UpdateRotation(_ context.Context, session *entity.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.sessions[session.SessionID]
	if !ok {
		return repository.ErrSessionNotFound
	}
	stored.JTI = session.JTI
	stored.CreatedAt = session.CreatedAt
	stored.ExpiresAt = session.ExpiresAt
	r.store.sessions[session.SessionID] = stored

	return nil
}

func (r *memorySessionRepo) Deactivate(_ context.Context, sessionID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, ok := r.store.sessions[sessionID]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.Active = false
	r.store.sessions[sessionID] = session

	return nil
}

func (r *memorySessionRepo) DeleteExpired(_ context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	for sid, session := range r.store.sessions {
		if session.ExpiresAt.Before(now) {
			delete(r.store.sessions, sid)
		}
	}

	return nil
}

// memoryTxManager implements repository.TransactionManager over the shared
// store. Fake transactions are not atomic, which is fine for these tests;
// atomicity of the real rotation is the postgres layer's row lock.
type memoryTxManager struct {
	store *memoryStore
}

func (tm *memoryTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(&memoryRepoFactory{store: tm.store})
}

type memoryRepoFactory struct {
	store *memoryStore
}

func (f *memoryRepoFactory) UserRepo() repository.UserRepository       { return f.store.userRepo() }
func (f *memoryRepoFactory) SessionRepo() repository.SessionRepository { return f.store.sessionRepo() }
func (f *memoryRepoFactory) OTPRepo() repository.OTPRepository         { return nil }

// --- Service stubs ---

// stubHasher is a transparent PasswordHasher for tests.
type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (stubHasher) Check(password, digest string) bool { return digest == "hashed:"+password }

// stubSMSSender records sends and accepts one configured code.
type stubSMSSender struct {
	sent     []string
	code     string
	sendErr  error
	verifyOK bool
}

func (s *stubSMSSender) Send(_ context.Context, phone string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, phone)

	return nil
}

func (s *stubSMSSender) Verify(_ context.Context, _, code string) (bool, error) {
	if s.verifyOK {
		return true, nil
	}

	return code == s.code && s.code != "", nil
}

// stubSMSGateway routes every phone to one sender.
type stubSMSGateway struct {
	sender service.SMSSender
	err    error
}

func (g *stubSMSGateway) SenderFor(string) (service.SMSSender, error) {
	if g.err != nil {
		return nil, g.err
	}

	return g.sender, nil
}

// stubRevocationCache is an in-memory service.RevocationCache.
type stubRevocationCache struct {
	revoked map[uuid.UUID]bool
}

func newStubRevocationCache() *stubRevocationCache {
	return &stubRevocationCache{revoked: make(map[uuid.UUID]bool)}
}

func (c *stubRevocationCache) Revoke(_ context.Context, jti uuid.UUID) error {
	c.revoked[jti] = true

	return nil
}

func (c *stubRevocationCache) IsRevoked(_ context.Context, jti uuid.UUID) (bool, error) {
	return c.revoked[jti], nil
}
