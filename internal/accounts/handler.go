package accounts

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pixelfolio/pixelfolio/internal/authz"
	"github.com/pixelfolio/pixelfolio/internal/platform/httpx"
	"github.com/pixelfolio/pixelfolio/internal/shared"
)

// Handler manages account management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validator: validator.New()}
}

// MountRoutes registers account routes. The authenticator middleware must
// already be installed on the parent router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermViewUsers))
		r.Get("/", h.list)
	})
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.updateProfile)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermChangeRole))
		r.Put("/{id}/role", h.changeRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermSuspendUser))
		r.Put("/{id}/status", h.setStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermDeleteUser))
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	list, pagination, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "", httpx.Envelope{"users": list, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller := authz.CallerFromContext(r.Context())
	if caller.ID != id && !authz.HasPermission(caller.Role, authz.PermViewUsers) {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "", httpx.Envelope{"user": account})
}

type updateProfileRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Bio      string `json:"bio" validate:"max=500"`
	Password string `json:"password" validate:"omitempty,min=7"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	caller := authz.CallerFromContext(r.Context())
	account, err := h.service.UpdateProfile(r.Context(), caller, id, UpdateProfileInput{
		Name:     req.Name,
		Bio:      req.Bio,
		Password: req.Password,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "profile updated", httpx.Envelope{"user": account})
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req changeRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	caller := authz.CallerFromContext(r.Context())
	account, err := h.service.ChangeRole(r.Context(), caller, id, req.Role)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "role updated", httpx.Envelope{"user": account})
}

type setStatusRequest struct {
	Suspended *bool `json:"suspended" validate:"required"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req setStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Suspended == nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	caller := authz.CallerFromContext(r.Context())
	account, err := h.service.SetSuspended(r.Context(), caller, id, *req.Suspended)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, "status updated", httpx.Envelope{"user": account})
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
	httpx.Success(w, http.StatusOK, "account deleted", nil)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrValidation
	}
	return id, nil
}
