package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/pkg/i18n"
	"github.com/edithfert/fertpro/pkg/ratelimit"
	"github.com/edithfert/fertpro/services"
	"github.com/edithfert/fertpro/web"
)

// PageServices groups what the HTML pages read from.
type PageServices struct {
	Sessions        services.SessionService
	Content         services.ContentService
	Soil            services.SoilService
	Weather         services.WeatherService
	Recommendations services.RecommendationService
	Forum           services.ForumService
	Auth            services.AuthService
}

// PageHandler renders the server-side pages. Each page shows exactly one
// view: the one the session currently has selected.
type PageHandler struct {
	svc      PageServices
	renderer *web.Renderer
	limiter  *ratelimit.AuthLimiter
	logger   *zap.Logger
}

// NewPageHandler, constructor.
func NewPageHandler(svc PageServices, renderer *web.Renderer, limiter *ratelimit.AuthLimiter, logger *zap.Logger) *PageHandler {
	return &PageHandler{
		svc:      svc,
		renderer: renderer,
		limiter:  limiter,
		logger:   logger,
	}
}

// pageState is what one render needs beyond the session.
type pageState struct {
	status   int
	notice   string
	err      string
	selected string
	mode     models.AuthMode
}

// Root godoc
// GET /
func (h *PageHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/views/"+string(models.DefaultView), http.StatusFound)
}

// View godoc
// GET /views/{view}
func (h *PageHandler) View(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r)
	if !ok {
		http.Error(w, errMissingSession.Error(), http.StatusUnauthorized)
		return
	}

	view, err := models.ParseView(r.PathValue("view"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	session, err = h.svc.Sessions.SelectView(r.Context(), session.ID, view)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, session, pageState{mode: models.AuthMode(r.URL.Query().Get("mode"))})
}

// Recommend godoc
// POST /views/recommend
func (h *PageHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	session, ok := h.enter(w, r, models.ViewRecommend)
	if !ok {
		return
	}
	loc := localizerFrom(r)

	crop := r.PostFormValue("crop")
	state := pageState{selected: crop}
	if _, err := h.svc.Recommendations.Recommend(r.Context(), session.ID, crop); err != nil {
		state.status = pkg.StatusFor(err)
		state.err = pkg.Message(loc, err)
	} else {
		state.notice = loc.T("recommend.success")
	}

	h.rerender(w, r, session.ID, state)
}

// Account godoc
// POST /views/account
func (h *PageHandler) Account(w http.ResponseWriter, r *http.Request) {
	session, ok := h.enter(w, r, models.ViewAccount)
	if !ok {
		return
	}
	loc := localizerFrom(r)

	req := models.AuthRequest{
		Mode:            models.AuthMode(r.PostFormValue("mode")),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	state := pageState{mode: req.Mode}

	key, retryAfter, blocked := throttle(h.limiter, r, req.Mode)
	if blocked {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		state.status = http.StatusTooManyRequests
		state.err = retryMessage(loc, retryAfter)
		h.rerender(w, r, session.ID, state)
		return
	}

	result, err := h.svc.Auth.Submit(r.Context(), session.ID, &req)
	if err != nil {
		state.status = pkg.StatusFor(err)
		state.err = pkg.Message(loc, err)
	} else {
		if h.limiter != nil {
			h.limiter.Forget(key)
		}
		state.notice = loc.T(result.NoticeKey)
	}

	h.rerender(w, r, session.ID, state)
}

// Logout godoc
// POST /views/account/logout
func (h *PageHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := h.enter(w, r, models.ViewAccount)
	if !ok {
		return
	}

	if _, err := h.svc.Auth.Logout(r.Context(), session.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.rerender(w, r, session.ID, pageState{notice: localizerFrom(r).T("auth.loggedOut")})
}

// enter selects view for a form post so the page shown afterwards is the
// one the form belongs to.
func (h *PageHandler) enter(w http.ResponseWriter, r *http.Request, view models.View) (*models.Session, bool) {
	session, ok := sessionFrom(r)
	if !ok {
		http.Error(w, errMissingSession.Error(), http.StatusUnauthorized)
		return nil, false
	}

	session, err := h.svc.Sessions.SelectView(r.Context(), session.ID, view)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return session, true
}

// rerender renders a fresh snapshot of the session.
func (h *PageHandler) rerender(w http.ResponseWriter, r *http.Request, sessionID string, state pageState) {
	session, err := h.svc.Sessions.Get(r.Context(), sessionID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, session, state)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, session *models.Session, state pageState) {
	data, err := h.viewData(r.Context(), session, state)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page := &web.Page{
		View:    session.View,
		Nav:     models.Navigation(session.View, session.LoggedIn),
		Session: *session,
		Loc:     i18n.NewLocalizer(session.Language),
		Notice:  state.notice,
		Error:   state.err,
		Data:    data,
	}

	status := state.status
	if status == 0 {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.renderer.Render(w, page); err != nil {
		h.logger.Error("failed to render page", zap.String("view", string(page.View)), zap.Error(err))
	}
}

// viewData loads what the session's current view shows.
func (h *PageHandler) viewData(ctx context.Context, session *models.Session, state pageState) (any, error) {
	switch session.View {
	case models.ViewHome:
		return h.svc.Content.Home(), nil
	case models.ViewDashboard:
		return h.svc.Soil.Overview(), nil
	case models.ViewRecommend:
		return web.RecommendPage{Crops: h.svc.Recommendations.Crops(), Selected: state.selected}, nil
	case models.ViewCommunity:
		return h.svc.Forum.ListPosts(ctx)
	case models.ViewWeather:
		return h.svc.Weather.Report(), nil
	case models.ViewHistory:
		return h.svc.Recommendations.History(ctx, session.ID)
	case models.ViewAccount:
		page := web.AccountPage{Mode: state.mode}
		if page.Mode != models.AuthModeSignup {
			page.Mode = models.AuthModeLogin
		}
		if session.LoggedIn {
			profile, err := h.svc.Auth.Account(ctx, session.ID)
			if err != nil {
				return nil, err
			}
			page.Profile = profile
		}
		return page, nil
	}
	return nil, pkg.NewNotice(pkg.ErrBadRequest, models.ErrUnknownView.Error())
}

// fail writes a plain-text error. The message is translated, internal
// errors are logged and never shown.
func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := pkg.StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("page request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	http.Error(w, pkg.Message(localizerFrom(r), err), status)
}
