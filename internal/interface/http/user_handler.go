package handlers

import (
	"errors"
	"expvar"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-user-directory/internal/application"
	"github.com/oksasatya/go-user-directory/internal/domain/entity"
	"github.com/oksasatya/go-user-directory/internal/domain/repository"
	"github.com/oksasatya/go-user-directory/pkg/helpers"
	"github.com/oksasatya/go-user-directory/pkg/response"
	"github.com/oksasatya/go-user-directory/pkg/validation"
)

// AllowedMethods is advertised in the Allow header on 405 responses.
var AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// userOps counts handled requests per operation and outcome, exposed via /debug/vars.
var userOps = expvar.NewMap("user_operations")

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type userResponse struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         *string   `json:"name"`
	AvatarURL    *string   `json:"avatar_url"`
	Followers    int       `json:"follwers"`
	IsActive     bool      `json:"isActive"`
	RegisteredAt time.Time `json:"registeredAt"`
}

func toResponse(u *entity.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		AvatarURL:    u.AvatarURL,
		Followers:    u.Followers,
		IsActive:     u.IsActive,
		RegisteredAt: u.RegisteredAt,
	}
}

// Handle is the single entry point for /api/user and dispatches on the HTTP method.
func (h *UserHandler) Handle(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodPost:
		h.Create(c)
	case http.MethodGet:
		h.Retrieve(c)
	case http.MethodPut:
		h.Modify(c)
	case http.MethodDelete:
		h.Delete(c)
	default:
		userOps.Add("method_not_allowed", 1)
		c.Header("Allow", strings.Join(AllowedMethods, ", "))
		response.Error[any](c, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", c.Request.Method), nil)
	}
}

func (h *UserHandler) Create(c *gin.Context) {
	var req userapp.CreateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidPayload(c, "create", err)
		return
	}

	u, err := h.Svc.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "create", err)
		return
	}
	userOps.Add("create_ok", 1)
	response.Success(c, http.StatusCreated, toResponse(u), "user created", nil)
}

func (h *UserHandler) Retrieve(c *gin.Context) {
	if c.Query("id") == "" {
		users, err := h.Svc.ListUsers(c.Request.Context())
		if err != nil {
			h.fail(c, "list", err)
			return
		}
		out := make([]userResponse, 0, len(users))
		for _, u := range users {
			out = append(out, toResponse(u))
		}
		userOps.Add("list_ok", 1)
		response.Success[any](c, http.StatusOK, out, "users", map[string]any{"count": len(out)})
		return
	}

	id, ok := h.parseID(c, "get")
	if !ok {
		return
	}
	u, err := h.Svc.GetUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	userOps.Add("get_ok", 1)
	response.Success(c, http.StatusOK, toResponse(u), "user", nil)
}

func (h *UserHandler) Modify(c *gin.Context) {
	id, ok := h.parseID(c, "update")
	if !ok {
		return
	}

	var req userapp.UpdateUserInput
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.invalidPayload(c, "update", err)
		return
	}

	u, err := h.Svc.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, "update", err)
		return
	}
	userOps.Add("update_ok", 1)
	response.Success(c, http.StatusOK, toResponse(u), "user updated", nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "delete")
	if !ok {
		return
	}

	if err := h.Svc.DeleteUser(c.Request.Context(), id); err != nil {
		h.fail(c, "delete", err)
		return
	}
	userOps.Add("delete_ok", 1)
	response.Success[any](c, http.StatusOK, nil, fmt.Sprintf("user %d deleted", id), nil)
}

// parseID reads the required id query parameter and writes a 400 when it is unusable.
func (h *UserHandler) parseID(c *gin.Context, op string) (int64, bool) {
	raw := c.Query("id")
	if raw == "" {
		userOps.Add(op+"_invalid", 1)
		response.Error[any](c, http.StatusBadRequest, "id is required", nil)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		userOps.Add(op+"_invalid", 1)
		response.Error[any](c, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return id, true
}

func (h *UserHandler) invalidPayload(c *gin.Context, op string, err error) {
	userOps.Add(op+"_invalid", 1)
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

// fail maps service outcomes onto HTTP statuses; unknown errors are logged and hidden.
func (h *UserHandler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, userapp.ErrInvalidInput):
		userOps.Add(op+"_invalid", 1)
		response.Error[any](c, http.StatusBadRequest, "validation failed", validation.ToDetails(err))
	case errors.Is(err, repository.ErrEmailTaken):
		userOps.Add(op+"_conflict", 1)
		response.Error[any](c, http.StatusBadRequest, "email already exists", nil)
	case errors.Is(err, repository.ErrUserNotFound):
		userOps.Add(op+"_not_found", 1)
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	default:
		userOps.Add(op+"_error", 1)
		helpers.LogError(h.Logger, "user "+op+" failed", err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"id":         c.Query("id"),
		})
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}
