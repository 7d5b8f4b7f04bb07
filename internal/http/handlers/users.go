package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/refhub/referralhub/internal/cache"
	"github.com/refhub/referralhub/internal/config"
	"github.com/refhub/referralhub/internal/domain/user"
	"github.com/refhub/referralhub/internal/notifications"
	"github.com/refhub/referralhub/internal/observability"
	"github.com/refhub/referralhub/internal/security"
)

type UserStore interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByReferralCode(ctx context.Context, code string) (user.User, error)
	Create(ctx context.Context, req user.RegisterRequest, passwordHash string, referredBy *int64) (user.User, error)
}

type UsersHandler struct {
	store    UserStore
	cache    cache.ProjectionCache
	notifier notifications.Notifier
	prom     *observability.Prom
}

func NewUsersHandler(store UserStore, projCache cache.ProjectionCache, notifier notifications.Notifier, prom *observability.Prom) *UsersHandler {
	return &UsersHandler{
		store:    store,
		cache:    projCache,
		notifier: notifier,
		prom:     prom,
	}
}

func (h *UsersHandler) countRegistration(outcome string) {
	if h.prom != nil {
		h.prom.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		h.countRegistration("invalid")
		return
	}

	// binding tags cover required/email/min=8; the letter+digit rule is a
	// domain check
	if err := user.ValidatePassword(req.Password); err != nil {
		h.countRegistration("invalid")
		RespondBadRequest(ctx, "invalid_password", err.Error(), nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	// pre-check gives the friendly error; the unique constraint in the
	// store is what actually guards the race
	_, err := h.store.GetByEmail(cctx, req.Email)

	if err == nil {
		h.countRegistration("conflict")
		RespondBadRequest(ctx, "email_taken", "Email is already registered.", nil)
		return
	}

	if !errors.Is(err, user.ErrNotFound) {
		h.countRegistration("error")
		RespondInternal(ctx, "Could not create user")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.countRegistration("error")
		RespondInternal(ctx, "Could not create user")
		return
	}

	// an unknown or stale referral code is not an error, the signup just
	// proceeds without attribution
	var referredBy *int64
	var referrer user.User

	if req.ReferralCode != "" {
		referrer, err = h.store.GetByReferralCode(cctx, req.ReferralCode)

		if err == nil {
			id := referrer.ID
			referredBy = &id
		}
	}

	created, err := h.store.Create(cctx, req, hash, referredBy)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			// lost the pre-check race
			h.countRegistration("conflict")
			RespondBadRequest(ctx, "email_taken", "Email is already registered.", nil)
		default:
			h.countRegistration("error")
			RespondInternal(ctx, "Could not create user")
		}
		return
	}

	h.countRegistration("created")

	if referredBy != nil {
		if h.prom != nil {
			h.prom.AttributionsTotal.Inc()
		}

		// the referrer's cached projection carries a stale point count now
		if h.cache != nil {
			h.cache.Delete(cctx, cache.KeyByID(referrer.ID))
			h.cache.Delete(cctx, cache.KeyByCode(referrer.ReferralCode))
		}

		if h.notifier != nil {
			_ = h.notifier.SendReferralCredited(cctx, notifications.ReferralCreditedInput{
				ReferrerID: referrer.ID,
				RefereeID:  created.ID,
			})
		}
	}

	if h.notifier != nil {
		_ = h.notifier.SendSignupWelcome(cctx, notifications.SignupWelcomeInput{
			UserID:       created.ID,
			Name:         created.Name,
			Email:        created.Email,
			ReferralCode: created.ReferralCode,
		})
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"userId":       created.ID,
		"referralCode": created.ReferralCode,
	})
}

func (h *UsersHandler) GetByID(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "invalid_id", "user id must be a positive integer", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if h.cache != nil {
		if p, ok := h.cache.Get(cctx, cache.KeyByID(id)); ok {
			RespondJSONWithETag(ctx, http.StatusOK, p)
			return
		}
	}

	u, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not fetch user")
		return
	}

	p := u.Projection()

	if h.cache != nil {
		h.cache.Set(cctx, cache.KeyByID(id), p)
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

func (h *UsersHandler) GetByReferralCode(ctx *gin.Context) {
	code := ctx.Param("code")

	if code == "" {
		RespondBadRequest(ctx, "invalid_code", "referral code is required", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if h.cache != nil {
		if p, ok := h.cache.Get(cctx, cache.KeyByCode(code)); ok {
			RespondJSONWithETag(ctx, http.StatusOK, p)
			return
		}
	}

	u, err := h.store.GetByReferralCode(cctx, code)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// stale or mistyped links land here all the time, this is an
			// expected outcome rather than a fault
			RespondNotFound(ctx, "Invalid referral code")
			return
		}

		RespondInternal(ctx, "Could not fetch user")
		return
	}

	p := u.Projection()

	if h.cache != nil {
		h.cache.Set(cctx, cache.KeyByCode(code), p)
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}
