// Package httpapi exposes the service operations over HTTP. The Handler
// methods hold the request/response logic and are framework-agnostic
// (request in, envelope plus status code out); router.go binds them to gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/learnhub/user-service/internal/common"
	"github.com/learnhub/user-service/internal/logging"
	"github.com/learnhub/user-service/internal/server/models"
	"github.com/learnhub/user-service/internal/server/services"
	"github.com/learnhub/user-service/internal/server/verify"
)

const (
	serviceName    = "user-service"
	serviceVersion = "1.0.0"
)

// UserOperations is the slice of the service layer the handlers call.
type UserOperations interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Get(ctx context.Context, id int64) (*models.Projection, bool, error)
	List(ctx context.Context, role string, page, limit int) (*services.Listing, bool, error)
	Update(ctx context.Context, id int64, in services.UpdateInput) (*models.User, error)
	ProbeStore(ctx context.Context) error
}

type Handler struct {
	users    UserOperations
	verifier verify.Verifier
	logger   logging.Logger
}

func NewHandler(users UserOperations, verifier verify.Verifier, logger logging.Logger) *Handler {
	return &Handler{
		users:    users,
		verifier: verifier,
		logger:   logger.With("module", "httpapi"),
	}
}

// --- auth ---

type RegisterRequest struct {
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      string  `json:"role"`
}

type authPayload struct {
	User  models.Projection `json:"user"`
	Token string            `json:"token"`
}

func (h *Handler) Register(ctx context.Context, req RegisterRequest) (Envelope, int) {
	for _, field := range []struct{ name, value string }{
		{"email", req.Email},
		{"username", req.Username},
		{"password", req.Password},
	} {
		if field.value == "" {
			return fail(field.name + " is required"), http.StatusBadRequest
		}
	}

	user, token, err := h.users.Register(ctx, services.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorEmailTaken):
			return fail("Email already registered"), http.StatusConflict
		case errors.Is(err, common.ErrorUsernameTaken):
			return fail("Username already taken"), http.StatusConflict
		default:
			h.logger.Error(ctx, "registration failed", "error", err.Error())
			return fail("Internal server error"), http.StatusInternalServerError
		}
	}

	return okMessage("User registered successfully", authPayload{
		User:  user.Projection(true),
		Token: token,
	}), http.StatusCreated
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(ctx context.Context, req LoginRequest) (Envelope, int) {
	if req.Email == "" || req.Password == "" {
		return fail("Email and password are required"), http.StatusBadRequest
	}

	user, token, err := h.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorInvalidCredentials):
			return fail("Invalid credentials"), http.StatusUnauthorized
		case errors.Is(err, common.ErrorAccountInactive):
			return fail("Account is inactive"), http.StatusForbidden
		default:
			h.logger.Error(ctx, "login failed", "error", err.Error())
			return fail("Internal server error"), http.StatusInternalServerError
		}
	}

	return okMessage("Login successful", authPayload{
		User:  user.Projection(true),
		Token: token,
	}), http.StatusOK
}

// --- users ---

func (h *Handler) ListUsers(ctx context.Context, role string, page, limit int) (Envelope, int) {
	listing, cached, err := h.users.List(ctx, role, page, limit)
	if err != nil {
		h.logger.Error(ctx, "listing users failed", "error", err.Error())
		return fail("Internal server error"), http.StatusInternalServerError
	}

	return okCached(cached, listing), http.StatusOK
}

func (h *Handler) GetUser(ctx context.Context, id int64) (Envelope, int) {
	projection, cached, err := h.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fail("User not found"), http.StatusNotFound
		}
		h.logger.Error(ctx, "loading user failed", "id", id, "error", err.Error())
		return fail("Internal server error"), http.StatusInternalServerError
	}

	return okCached(cached, projection), http.StatusOK
}

type UpdateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
}

func (h *Handler) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (Envelope, int) {
	user, err := h.users.Update(ctx, id, services.UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fail("User not found"), http.StatusNotFound
		}
		h.logger.Error(ctx, "updating user failed", "id", id, "error", err.Error())
		return fail("Internal server error"), http.StatusInternalServerError
	}

	return okMessage("User updated successfully", user.Projection(true)), http.StatusOK
}

// --- phone verification ---

type SendVerificationRequest struct {
	Phone string `json:"phone"`
}

func (h *Handler) SendVerification(ctx context.Context, req SendVerificationRequest) (Envelope, int) {
	if req.Phone == "" {
		return fail("phone is required"), http.StatusBadRequest
	}

	result := h.verifier.SendCode(ctx, req.Phone)
	if !result.Success {
		return Envelope{Success: false, Message: result.Message, Data: result}, http.StatusBadRequest
	}
	return okMessage(result.Message, result), http.StatusOK
}

type CheckVerificationRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (h *Handler) CheckVerification(ctx context.Context, req CheckVerificationRequest) (Envelope, int) {
	if req.Phone == "" || req.Code == "" {
		return fail("phone and code are required"), http.StatusBadRequest
	}

	result := h.verifier.CheckCode(ctx, req.Phone, req.Code)
	if !result.Success {
		return Envelope{Success: false, Message: result.Message, Data: result}, http.StatusBadRequest
	}
	return okMessage(result.Message, result), http.StatusOK
}

// --- health ---

type healthChecks struct {
	Database string `json:"database"`
}

type healthPayload struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Service   string       `json:"service"`
	Checks    healthChecks `json:"checks"`
}

// Health reports UP or DEGRADED based on the store probe. The cache is not
// part of health: the service works without it.
func (h *Handler) Health(ctx context.Context) (healthPayload, int) {
	dbStatus := "UP"
	status := http.StatusOK
	if err := h.users.ProbeStore(ctx); err != nil {
		h.logger.Warn(ctx, "store probe failed", "error", err.Error())
		dbStatus = "DOWN"
		status = http.StatusServiceUnavailable
	}

	overall := "UP"
	if dbStatus != "UP" {
		overall = "DEGRADED"
	}

	return healthPayload{
		Status:    overall,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   serviceName,
		Checks:    healthChecks{Database: dbStatus},
	}, status
}

type probePayload struct {
	Status string `json:"status"`
}

func (h *Handler) Ready(ctx context.Context) (probePayload, int) {
	if err := h.users.ProbeStore(ctx); err != nil {
		return probePayload{Status: "not ready"}, http.StatusServiceUnavailable
	}
	return probePayload{Status: "ready"}, http.StatusOK
}

func (h *Handler) Live(context.Context) (probePayload, int) {
	return probePayload{Status: "alive"}, http.StatusOK
}

// --- root ---

type infoPayload struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

func (h *Handler) Index() (infoPayload, int) {
	return infoPayload{Service: "User Service", Version: serviceVersion, Status: "running"}, http.StatusOK
}
