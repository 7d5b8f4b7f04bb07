package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/refhub/referralhub/internal/domain/user"
	"github.com/refhub/referralhub/internal/observability"
	"github.com/refhub/referralhub/internal/referral"
)

// how many times we regenerate a referral code before giving up
const maxCodeAttempts = 5

// referral-code collision, retry with a fresh code
var errCodeCollision = errors.New("referral code collision")

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *UsersRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

const selectUser = `
	SELECT id, name, email, password_hash, referral_code, points, referred_by, created_at
	FROM users
`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.ReferralCode,
		&u.Points,
		&u.ReferredBy,
		&u.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (repo *UsersRepo) GetByID(ctx context.Context, id int64) (u user.User, err error) {
	err = repo.observe("users.get_by_id", func() error {
		var e error
		u, e = scanUser(repo.pool.QueryRow(ctx, selectUser+`WHERE id = $1`, id))
		return e
	})
	return
}

func (repo *UsersRepo) GetByEmail(ctx context.Context, email string) (u user.User, err error) {
	err = repo.observe("users.get_by_email", func() error {
		var e error
		u, e = scanUser(repo.pool.QueryRow(ctx, selectUser+`WHERE email = $1`, email))
		return e
	})
	return
}

func (repo *UsersRepo) GetByReferralCode(ctx context.Context, code string) (u user.User, err error) {
	err = repo.observe("users.get_by_referral_code", func() error {
		var e error
		u, e = scanUser(repo.pool.QueryRow(ctx, selectUser+`WHERE referral_code = $1`, code))
		return e
	})
	return
}

// Create inserts the new user and, when referredBy is set, credits the
// referrer inside the same transaction. A unique violation aborts the
// postgres transaction, so every code-generation attempt runs in a
// transaction of its own.
func (repo *UsersRepo) Create(ctx context.Context, req user.RegisterRequest, passwordHash string, referredBy *int64) (user.User, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		u, err := repo.createOnce(ctx, req, passwordHash, referredBy)

		if errors.Is(err, errCodeCollision) {
			continue
		}

		return u, err
	}

	return user.User{}, user.ErrCodeExhausted
}

func (repo *UsersRepo) createOnce(ctx context.Context, req user.RegisterRequest, passwordHash string, referredBy *int64) (u user.User, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	u = user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		ReferralCode: referral.NewCode(),
		ReferredBy:   referredBy,
	}

	err = repo.observe("users.create.insert", func() error {
		return tx.QueryRow(ctx, `
			INSERT INTO users (name, email, password_hash, referral_code, referred_by)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, points, created_at
		`, u.Name, u.Email, u.PasswordHash, u.ReferralCode, u.ReferredBy).Scan(&u.ID, &u.Points, &u.CreatedAt)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_email_uniq":
				err = user.ErrEmailTaken
			case "users_referral_code_uniq":
				err = errCodeCollision
			}
		}

		return
	}

	// points increment is relative so concurrent attributions to the
	// same referrer never lose updates
	if referredBy != nil {
		err = repo.observe("users.create.credit_referrer", func() error {
			_, e := tx.Exec(ctx,
				`UPDATE users SET points = points + 1 WHERE id = $1`,
				*referredBy,
			)
			return e
		})

		if err != nil {
			return
		}
	}

	err = tx.Commit(ctx)

	if err != nil {
		return
	}

	return
}

// IsUniqueViolation reports whether err is a postgres 23505.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
