package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
	"github.com/iho/loanledger/internal/usecase/mocks"
)

func newUserUseCase() (*usecase.UserUseCase, *mocks.FakeUserRepository) {
	repo := mocks.NewFakeUserRepository()
	return usecase.NewUserUseCase(repo, mocks.NewFakeIDGenerator()), repo
}

func TestUserUseCase_CreateUser(t *testing.T) {
	uc, _ := newUserUseCase()

	user, err := uc.CreateUser(context.Background(), usecase.CreateUserInput{
		Email:    "student@example.com",
		Name:     "A Student",
		Password: "Str0ngPassword",
		Role:     domain.RoleStudent,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.ID == "" {
		t.Error("ID must be assigned")
	}

	if user.HashedPassword != "" {
		t.Error("hashed password must not be returned")
	}

	if !user.Active {
		t.Error("new users must be active")
	}
}

func TestUserUseCase_CreateUser_Validation(t *testing.T) {
	uc, _ := newUserUseCase()

	tests := []struct {
		name  string
		input usecase.CreateUserInput
	}{
		{
			name: "bad email",
			input: usecase.CreateUserInput{
				Email: "not-an-email", Password: "Str0ngPassword", Role: domain.RoleStudent,
			},
		},
		{
			name: "weak password",
			input: usecase.CreateUserInput{
				Email: "a@example.com", Password: "short", Role: domain.RoleStudent,
			},
		},
		{
			name: "bad role",
			input: usecase.CreateUserInput{
				Email: "a@example.com", Password: "Str0ngPassword", Role: "superuser",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := uc.CreateUser(context.Background(), tt.input); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestUserUseCase_CreateUser_DuplicateEmail(t *testing.T) {
	uc, _ := newUserUseCase()

	input := usecase.CreateUserInput{
		Email:    "dup@example.com",
		Password: "Str0ngPassword",
		Role:     domain.RolePartner,
	}

	if _, err := uc.CreateUser(context.Background(), input); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	if _, err := uc.CreateUser(context.Background(), input); err == nil {
		t.Error("duplicate email must be rejected")
	}
}

func TestUserUseCase_Authenticate(t *testing.T) {
	uc, _ := newUserUseCase()

	if _, err := uc.CreateUser(context.Background(), usecase.CreateUserInput{
		Email:    "admin@example.com",
		Password: "Str0ngPassword",
		Role:     domain.RoleAdmin,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	user, err := uc.Authenticate(context.Background(), usecase.AuthenticateInput{
		Email:    "admin@example.com",
		Password: "Str0ngPassword",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.Role != domain.RoleAdmin {
		t.Errorf("Role = %s, want admin", user.Role)
	}

	_, err = uc.Authenticate(context.Background(), usecase.AuthenticateInput{
		Email:    "admin@example.com",
		Password: "WrongPassword1",
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}

	_, err = uc.Authenticate(context.Background(), usecase.AuthenticateInput{
		Email:    "nobody@example.com",
		Password: "Str0ngPassword",
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
}

func TestRole_Permissions(t *testing.T) {
	if !domain.RoleAdmin.CanWithdraw() || domain.RolePartner.CanWithdraw() || domain.RoleStudent.CanWithdraw() {
		t.Error("only admin may withdraw")
	}

	if !domain.RoleAdmin.CanFund() || !domain.RolePartner.CanFund() || domain.RoleStudent.CanFund() {
		t.Error("admin and partner may fund")
	}

	if !domain.RoleAdmin.CanOverrideStatus() || domain.RolePartner.CanOverrideStatus() {
		t.Error("only admin may override status")
	}
}
