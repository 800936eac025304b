package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/ports"
)

// In-memory collaborators for the service tests. They implement the same
// contracts as the postgres adapters, with an injectable clock.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email && u.DeletedAt == nil {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByProvider(_ context.Context, provider, providerID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Provider == provider && u.ProviderID != nil && *u.ProviderID == providerID && u.DeletedAt == nil {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	u, err := r.GetByEmail(ctx, email)
	return u != nil, err
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id uuid.UUID, name string, profileImage *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return nil
	}
	u.Name = name
	if profileImage != nil {
		u.ProfileImage = profileImage
	}
	return nil
}

func (r *fakeUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok && u.DeletedAt == nil {
		now := time.Now()
		u.DeletedAt = &now
	}
	return nil
}

type fakeRefreshRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.RefreshToken
	now     func() time.Time

	upserts int
	deletes int
}

func newFakeRefreshRepo(now func() time.Time) *fakeRefreshRepo {
	return &fakeRefreshRepo{
		records: make(map[uuid.UUID]*domain.RefreshToken),
		now:     now,
	}
}

func (r *fakeRefreshRepo) FindLive(_ context.Context, userID uuid.UUID) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[userID]
	if !ok || !rec.Live(r.now()) {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (r *fakeRefreshRepo) FindAny(_ context.Context, userID uuid.UUID) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[userID]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (r *fakeRefreshRepo) UpsertReuseOrReplace(_ context.Context, candidate *domain.RefreshToken) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++

	if existing, ok := r.records[candidate.UserID]; ok && existing.Live(r.now()) {
		clone := *existing
		return &clone, nil
	}

	candidate.ID = uuid.New()
	candidate.CreatedAt = r.now()
	clone := *candidate
	r.records[candidate.UserID] = &clone
	return candidate, nil
}

func (r *fakeRefreshRepo) Delete(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	delete(r.records, userID)
	return nil
}

// fakeHasher marks hashes with a prefix so tests can assert hashing happened
// without paying for bcrypt.
type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakeHasher) Compare(plain, hashed string) bool { return hashed == "hashed:"+plain }

// fakeCodec issues transparent tokens of the form subject|kind|expiry|sig so
// the services can be tested without real signing.
type fakeCodec struct {
	now        func() time.Time
	accessTTL  time.Duration
	refreshTTL time.Duration
	issued     int
}

func newFakeCodec(now func() time.Time) *fakeCodec {
	return &fakeCodec{now: now, accessTTL: 15 * time.Minute, refreshTTL: 7 * 24 * time.Hour}
}

func (c *fakeCodec) Issue(subject string, kind domain.TokenKind) (string, error) {
	c.issued++
	ttl := c.accessTTL
	if kind == domain.TokenKindRefresh {
		ttl = c.refreshTTL
	}
	// The issue counter makes every token unique, like a real iat/signature
	// would.
	return fmt.Sprintf("%s|%s|%d|%d|sig", subject, kind, c.now().Add(ttl).Unix(), c.issued), nil
}

func (c *fakeCodec) Verify(token string) (string, domain.TokenKind, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 5 || parts[4] != "sig" {
		return "", "", domain.ErrTokenMalformed
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", "", domain.ErrTokenMalformed
	}
	if !c.now().Before(time.Unix(exp, 0)) {
		return "", "", domain.ErrTokenExpired
	}
	return parts[0], domain.TokenKind(parts[1]), nil
}

func (c *fakeCodec) ExtractUnverified(token string) (string, domain.TokenKind, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 5 {
		return "", "", domain.ErrTokenMalformed
	}
	return parts[0], domain.TokenKind(parts[1]), nil
}

type fakeVerifier struct {
	profiles map[string]*ports.FederatedProfile
}

func (v *fakeVerifier) Verify(_ context.Context, credential string, _ string) (*ports.FederatedProfile, error) {
	profile, ok := v.profiles[credential]
	if !ok {
		return nil, fmt.Errorf("unknown credential")
	}
	clone := *profile
	return &clone, nil
}
