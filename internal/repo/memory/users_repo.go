package memory

import (
	"context"
	"sync"
	"time"

	"github.com/refhub/referralhub/internal/domain/user"
	"github.com/refhub/referralhub/internal/referral"
)

const maxCodeAttempts = 5

// UsersRepo is an in-memory stand-in for the postgres repo. It mirrors
// the same uniqueness and attribution semantics so handler tests can run
// without a database.
type UsersRepo struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*user.User
	byEmail map[string]int64
	byCode  map[string]int64
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		nextID:  1,
		byID:    make(map[int64]*user.User),
		byEmail: make(map[string]int64),
		byCode:  make(map[string]int64),
	}
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return *u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return *r.byID[id], nil
}

func (r *UsersRepo) GetByReferralCode(ctx context.Context, code string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byCode[code]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return *r.byID[id], nil
}

func (r *UsersRepo) Create(ctx context.Context, req user.RegisterRequest, passwordHash string, referredBy *int64) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[req.Email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	code := ""

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		candidate := referral.NewCode()
		if _, taken := r.byCode[candidate]; !taken {
			code = candidate
			break
		}
	}

	if code == "" {
		return user.User{}, user.ErrCodeExhausted
	}

	u := &user.User{
		ID:           r.nextID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		ReferralCode: code,
		Points:       0,
		ReferredBy:   referredBy,
		CreatedAt:    time.Now().UTC(),
	}

	r.nextID++
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	r.byCode[u.ReferralCode] = u.ID

	// same-lock increment keeps insert and credit atomic, matching the
	// postgres transaction
	if referredBy != nil {
		if ref, ok := r.byID[*referredBy]; ok {
			ref.Points++
		}
	}

	return *u, nil
}
