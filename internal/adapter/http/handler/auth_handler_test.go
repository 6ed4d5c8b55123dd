package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/infrastructure/auth"
	"github.com/iho/loanledger/internal/usecase"
)

type userServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error)
	authFn   func(ctx context.Context, input usecase.AuthenticateInput) (*domain.User, error)
	getFn    func(ctx context.Context, id string) (*domain.User, error)
}

func (s *userServiceStub) CreateUser(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, input)
}

func (s *userServiceStub) Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*domain.User, error) {
	return s.authFn(ctx, input)
}

func (s *userServiceStub) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func testUser(role domain.Role) *domain.User {
	return &domain.User{
		ID:        "user-1",
		Email:     "student@example.com",
		Name:      "Student",
		Role:      role,
		Active:    true,
		CreatedAt: time.Now(),
	}
}

func newAuthHandler(userUC UserService) *AuthHandler {
	return NewAuthHandler(userUC, auth.NewJWTManager("test-secret", time.Hour))
}

func TestAuthHandler_Register(t *testing.T) {
	var captured usecase.CreateUserInput
	userUC := &userServiceStub{
		createFn: func(_ context.Context, input usecase.CreateUserInput) (*domain.User, error) {
			captured = input
			return testUser(input.Role), nil
		},
	}
	h := newAuthHandler(userUC)

	body := `{"email":"student@example.com","name":"Student","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	// An omitted role defaults to student.
	if captured.Role != domain.RoleStudent {
		t.Errorf("Role = %q, want student", captured.Role)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Token == "" {
		t.Error("token must be issued on registration")
	}
}

func TestAuthHandler_Register_AdminRejected(t *testing.T) {
	h := newAuthHandler(&userServiceStub{})

	body := `{"email":"evil@example.com","name":"Evil","password":"secret123","role":"admin"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	userUC := &userServiceStub{
		authFn: func(_ context.Context, input usecase.AuthenticateInput) (*domain.User, error) {
			if input.Email != "student@example.com" || input.Password != "secret123" {
				return nil, domain.ErrUnauthorized
			}
			return testUser(domain.RoleStudent), nil
		},
	}
	h := newAuthHandler(userUC)

	body := `{"email":"student@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Token == "" || resp.User.Email != "student@example.com" {
		t.Errorf("response = %+v", resp)
	}
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	userUC := &userServiceStub{
		authFn: func(_ context.Context, _ usecase.AuthenticateInput) (*domain.User, error) {
			return nil, domain.ErrUnauthorized
		},
	}
	h := newAuthHandler(userUC)

	body := `{"email":"student@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	userUC := &userServiceStub{
		getFn: func(_ context.Context, id string) (*domain.User, error) {
			if id != "user-1" {
				return nil, domain.ErrUserNotFound
			}
			return testUser(domain.RoleStudent), nil
		},
	}
	h := newAuthHandler(userUC)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = withUser(req, &domain.User{ID: "user-1", Role: domain.RoleStudent})
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := newAuthHandler(&userServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
