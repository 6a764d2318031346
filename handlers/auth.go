package handlers

import (
	"net/http"
	"strconv"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/pkg/i18n"
	"github.com/edithfert/fertpro/pkg/ratelimit"
	"github.com/edithfert/fertpro/services"
)

// AuthHandler serves the simulated login, sign-up and account endpoints.
type AuthHandler struct {
	auth    services.AuthService
	limiter *ratelimit.AuthLimiter
}

// NewAuthHandler, constructor. A nil limiter disables rate limiting.
func NewAuthHandler(auth services.AuthService, limiter *ratelimit.AuthLimiter) *AuthHandler {
	return &AuthHandler{auth: auth, limiter: limiter}
}

// Login godoc
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, models.AuthModeLogin)
}

// Signup godoc
// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, models.AuthModeSignup)
}

// submit rate-limits per client IP and form, then runs the simulated
// submission. A successful submission clears that form's counter.
func (h *AuthHandler) submit(w http.ResponseWriter, r *http.Request, mode models.AuthMode) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	loc := localizerFrom(r)

	key, retryAfter, blocked := throttle(h.limiter, r, mode)
	if blocked {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests, retryMessage(loc, retryAfter))
		return
	}

	var req models.AuthRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Mode = mode

	result, err := h.auth.Submit(r.Context(), session.ID, &req)
	if err != nil {
		pkg.LocalizedError(w, loc, err)
		return
	}

	if h.limiter != nil {
		h.limiter.Forget(key)
	}

	result.Notice = loc.T(result.NoticeKey)
	pkg.JSONWithNotice(w, http.StatusOK, result, result.Notice)
}

// Logout godoc
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	loc := localizerFrom(r)

	updated, err := h.auth.Logout(r.Context(), session.ID)
	if err != nil {
		pkg.LocalizedError(w, loc, err)
		return
	}
	pkg.JSONWithNotice(w, http.StatusOK, updated, loc.T("auth.loggedOut"))
}

// Account godoc
// GET /api/account
func (h *AuthHandler) Account(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	profile, err := h.auth.Account(r.Context(), session.ID)
	if err != nil {
		pkg.LocalizedError(w, localizerFrom(r), err)
		return
	}
	pkg.JSON(w, http.StatusOK, profile)
}

// throttle consumes one attempt of the request's IP against mode's form.
// Anything that is not a sign-up counts as a login.
func throttle(limiter *ratelimit.AuthLimiter, r *http.Request, mode models.AuthMode) (key ratelimit.Key, retryAfter int, blocked bool) {
	form := models.AuthModeLogin
	if mode == models.AuthModeSignup {
		form = models.AuthModeSignup
	}
	key = ratelimit.Key{IP: ratelimit.ClientIP(r), Form: string(form)}
	if limiter == nil {
		return key, 0, false
	}
	ok, wait := limiter.Attempt(key)
	return key, wait, !ok
}

func retryMessage(loc *i18n.Localizer, seconds int) string {
	return loc.TWithParams("auth.tooManyAttempts", map[string]string{
		"retry": ratelimit.FormatWait(seconds),
	})
}
