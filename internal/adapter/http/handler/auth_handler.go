package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iho/loanledger/internal/adapter/http/dto"
	"github.com/iho/loanledger/internal/adapter/http/middleware"
	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/infrastructure/auth"
	"github.com/iho/loanledger/internal/usecase"
)

// UserService defines the user operations the handler needs.
type UserService interface {
	CreateUser(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error)
	Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// AuthHandler handles authentication HTTP requests.
type AuthHandler struct {
	userUC     UserService
	jwtManager *auth.JWTManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userUC UserService, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{
		userUC:     userUC,
		jwtManager: jwtManager,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	role := req.Role
	if role == "" {
		role = domain.RoleStudent
	}
	// Admin accounts are provisioned out of band, never self-registered.
	if role == domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "cannot self-register as admin", "")
		return
	}

	user, err := h.userUC.CreateUser(r.Context(), usecase.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to register", err.Error())
		return
	}

	token, err := h.jwtManager.Generate(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.LoginResponse{
		Token: token,
		User:  dto.UserFromDomain(user),
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, err := h.userUC.Authenticate(r.Context(), usecase.AuthenticateInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "invalid credentials", "")
		return
	}

	token, err := h.jwtManager.Generate(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token: token,
		User:  dto.UserFromDomain(user),
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	user, err := h.userUC.GetUser(r.Context(), authUser.ID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get user", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}
