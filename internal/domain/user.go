package domain

import (
	"errors"
	"time"
)

// User represents an authenticated platform user.
type User struct {
	ID             string
	Email          string
	Name           string
	HashedPassword string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Active         bool
}

// Role represents a user's access level.
type Role string

const (
	// RoleAdmin has full access: ledger withdrawals, status overrides, listings
	RoleAdmin Role = "admin"

	// RolePartner can fund loans of students it referred and view its wallet
	RolePartner Role = "partner"

	// RoleStudent can submit applications and repay its own loans
	RoleStudent Role = "student"
)

var validRoles = map[Role]bool{
	RoleAdmin:   true,
	RolePartner: true,
	RoleStudent: true,
}

// IsValid checks if the role is a valid role.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanFund checks if the role can disburse loans.
func (r Role) CanFund() bool {
	return r == RoleAdmin || r == RolePartner
}

// CanWithdraw checks if the role can withdraw from the admin ledger.
func (r Role) CanWithdraw() bool {
	return r == RoleAdmin
}

// CanOverrideStatus checks if the role can apply administrative status changes.
func (r Role) CanOverrideStatus() bool {
	return r == RoleAdmin
}

// CanViewAllLoans checks if the role can list loans across all users.
func (r Role) CanViewAllLoans() bool {
	return r == RoleAdmin
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
