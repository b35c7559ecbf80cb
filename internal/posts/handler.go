package posts

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pixelfolio/pixelfolio/internal/authz"
	"github.com/pixelfolio/pixelfolio/internal/platform/httpx"
	"github.com/pixelfolio/pixelfolio/internal/shared"
	"github.com/pixelfolio/pixelfolio/internal/trending"
)

const maxUploadBytes = 10 << 20

// Handler manages post endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	counter   *trending.Counter
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, counter *trending.Counter, mw authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		counter:   counter,
		authz:     mw,
		validator: validator.New(),
	}
}

// requireCaller rejects anonymous requests. The parent router installs the
// optional authenticator on the whole subtree, so a missing caller here
// means no valid credential was presented.
func requireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authz.CallerFromContext(r.Context()) == nil {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MountRoutes registers post routes. Read endpoints are public (with
// optional caller context installed by the parent router); mutations require
// authentication plus the relevant permission.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/trending", h.trending)
	r.Get("/{id}", h.get)
	r.Get("/{id}/comments", h.listComments)

	r.Group(func(r chi.Router) {
		r.Use(requireCaller)
		r.With(h.authz.RequirePermission(authz.PermCreatePost)).Post("/", h.create)
		r.Delete("/{id}", h.delete)
		r.With(h.authz.RequirePermission(authz.PermApprovePost)).Post("/{id}/approve", h.approve)
		r.With(h.authz.RequirePermission(authz.PermFavoritePost)).Post("/{id}/favorite", h.favorite)
		r.Delete("/{id}/favorite", h.unfavorite)
		r.With(h.authz.RequirePermission(authz.PermPurchasePost)).Post("/{id}/purchase", h.purchase)
		r.With(h.authz.RequirePermission(authz.PermRatePost)).Post("/{id}/rating", h.rate)
		r.With(h.authz.RequirePermission(authz.PermCommentPost)).Post("/{id}/comments", h.comment)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	defer file.Close()

	var priceCents int64
	if raw := r.FormValue("price_cents"); raw != "" {
		priceCents, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || priceCents < 0 {
			httpx.RespondError(w, shared.ErrValidation)
			return
		}
	}

	caller := authz.CallerFromContext(r.Context())
	post, err := h.service.Create(r.Context(), caller, CreateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		PriceCents:  priceCents,
		Filename:    header.Filename,
		File:        file,
	})
	if err != nil {
		if err != shared.ErrValidation {
			h.logger.Error("create post", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, "post created", httpx.Envelope{"post": post})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	mine := r.URL.Query().Get("mine") == "true"
	caller := authz.CallerFromContext(r.Context())
	list, pagination, err := h.service.List(r.Context(), caller, mine, page, perPage)
	if err != nil {
		h.logger.Error("list posts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "", httpx.Envelope{"posts": list, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller := authz.CallerFromContext(r.Context())
	post, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views := h.counter.Touch(r.Context(), id)
	httpx.Success(w, http.StatusOK, "", httpx.Envelope{"post": post, "views": views})
}

func (h *Handler) trending(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	ids, err := h.counter.Top(r.Context(), n)
	if err != nil {
		h.logger.Error("trending ids", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.Trending(r.Context(), ids)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "", httpx.Envelope{"posts": list})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller := authz.CallerFromContext(r.Context())
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.counter.Remove(r.Context(), id)
	httpx.Success(w, http.StatusOK, "post deleted", nil)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller := authz.CallerFromContext(r.Context())
	post, err := h.service.Approve(r.Context(), caller, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "post approved", httpx.Envelope{"post": post})
}

func (h *Handler) favorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller := authz.CallerFromContext(r.Context())
	if err := h.service.Favorite(r.Context(), caller, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "post favorited", nil)
}

func (h *Handler) unfavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller := authz.CallerFromContext(r.Context())
	if err := h.service.Unfavorite(r.Context(), caller, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "post unfavorited", nil)
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller := authz.CallerFromContext(r.Context())
	post, err := h.service.Purchase(r.Context(), caller, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "post purchased", httpx.Envelope{"post": post})
}

type rateRequest struct {
	Stars int `json:"stars" validate:"required,min=1,max=5"`
}

func (h *Handler) rate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req rateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	caller := authz.CallerFromContext(r.Context())
	rating, err := h.service.Rate(r.Context(), caller, id, req.Stars)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "rating saved", httpx.Envelope{"rating": rating})
}

type commentRequest struct {
	Body string `json:"body" validate:"required,max=1000"`
}

func (h *Handler) comment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req commentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	caller := authz.CallerFromContext(r.Context())
	comment, err := h.service.Comment(r.Context(), caller, id, req.Body)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, "comment added", httpx.Envelope{"comment": comment})
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	comments, err := h.service.Comments(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "", httpx.Envelope{"comments": comments})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrValidation
	}
	return id, nil
}
