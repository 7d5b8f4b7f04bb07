package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/refhub/referralhub/internal/domain/user"
)

func register(t *testing.T, r *UsersRepo, name, email string, referredBy *int64) user.User {
	t.Helper()

	u, err := r.Create(context.Background(), user.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "Valid123",
	}, "hashed", referredBy)

	if err != nil {
		t.Fatalf("create %s: %v", email, err)
	}

	return u
}

func TestCreateAssignsCodeAndZeroPoints(t *testing.T) {
	r := NewUsersRepo()

	u := register(t, r, "Ana", "ana@example.com", nil)

	if len(u.ReferralCode) != 8 {
		t.Fatalf("got code %q, want 8 characters", u.ReferralCode)
	}

	if u.Points != 0 {
		t.Fatalf("got points %d, want 0", u.Points)
	}

	got, err := r.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}

	if got.Points != 0 || got.ReferralCode != u.ReferralCode {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	r := NewUsersRepo()

	register(t, r, "Ana", "ana@example.com", nil)

	_, err := r.Create(context.Background(), user.RegisterRequest{
		Name:     "Other Ana",
		Email:    "ana@example.com",
		Password: "Valid123",
	}, "hashed", nil)

	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}
}

func TestAttributionCreditsReferrer(t *testing.T) {
	r := NewUsersRepo()

	referrer := register(t, r, "Ana", "ana@example.com", nil)
	referee := register(t, r, "Bruno", "bruno@example.com", &referrer.ID)

	got, err := r.GetByID(context.Background(), referrer.ID)
	if err != nil {
		t.Fatalf("get referrer: %v", err)
	}

	if got.Points != 1 {
		t.Fatalf("got points %d, want 1", got.Points)
	}

	if referee.ReferredBy == nil || *referee.ReferredBy != referrer.ID {
		t.Fatalf("got referredBy %v, want %d", referee.ReferredBy, referrer.ID)
	}
}

// N concurrent signups citing the same referrer must each credit exactly
// one point, final total N.
func TestConcurrentAttributionsDoNotLoseUpdates(t *testing.T) {
	r := NewUsersRepo()

	referrer := register(t, r, "Ana", "ana@example.com", nil)

	const n = 50

	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_, err := r.Create(context.Background(), user.RegisterRequest{
				Name:     "Referee",
				Email:    fmt.Sprintf("referee%d@example.com", i),
				Password: "Valid123",
			}, "hashed", &referrer.ID)

			errs <- err
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent create: %v", err)
		}
	}

	got, err := r.GetByID(context.Background(), referrer.ID)
	if err != nil {
		t.Fatalf("get referrer: %v", err)
	}

	if got.Points != n {
		t.Fatalf("got points %d, want %d", got.Points, n)
	}
}

func TestGetByReferralCode(t *testing.T) {
	r := NewUsersRepo()

	u := register(t, r, "Ana", "ana@example.com", nil)

	got, err := r.GetByReferralCode(context.Background(), u.ReferralCode)
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}

	if got.ID != u.ID {
		t.Fatalf("got id %d, want %d", got.ID, u.ID)
	}

	_, err = r.GetByReferralCode(context.Background(), "missing1")
	if !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
