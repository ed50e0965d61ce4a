package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"marate/models"
)

// minPasswordLen is the password policy floor.
const minPasswordLen = 6

// ErrInvalidCredentials is returned by Authenticate for a bad username or
// password, without distinguishing which.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Register creates a regular user. Username collisions surface as
// *ConflictError even when two registrations race past the pre-check.
func (e *Engine) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &ValidationError{Field: "username", Reason: "required"}
	}
	if len(password) < minPasswordLen {
		return nil, &ValidationError{Field: "password", Reason: fmt.Sprintf("too short (min %d)", minPasswordLen)}
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	role, err := e.store.RoleByName(ctx, RoleUser)
	if err != nil {
		return nil, fmt.Errorf("resolve user role: %w", err)
	}
	rid := role.ID
	user := &models.User{Username: username, HashedPassword: hashed, RoleID: &rid, Role: *role}
	if err := e.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and returns the principal the session
// should run as.
func (e *Engine) Authenticate(ctx context.Context, username, password string) (Principal, error) {
	user, err := e.store.UserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	return principalFor(user), nil
}

// PrincipalByUsername resolves a session identity (e.g. from a verified
// token) back to a live principal.
func (e *Engine) PrincipalByUsername(ctx context.Context, username string) (Principal, error) {
	user, err := e.store.UserByUsername(ctx, username)
	if err != nil {
		return Principal{}, err
	}
	return principalFor(user), nil
}

// ChangeUsername renames the acting principal's own account. The returned
// principal carries the new name so the session layer can rebind its identity
// in the same response.
func (e *Engine) ChangeUsername(ctx context.Context, p Principal, newUsername string) (Principal, error) {
	if err := p.Can(ActionViewDashboard); err != nil {
		return Principal{}, err
	}
	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return Principal{}, &ValidationError{Field: "username", Reason: "required"}
	}
	if other, err := e.store.UserByUsername(ctx, newUsername); err == nil && other.ID != p.UserID {
		return Principal{}, &ConflictError{Entity: "username", Value: newUsername}
	}
	user, err := e.store.UserByID(ctx, p.UserID)
	if err != nil {
		return Principal{}, err
	}
	user.Username = newUsername
	if err := e.store.UpdateUser(ctx, user); err != nil {
		return Principal{}, err
	}
	return principalFor(user), nil
}

// ChangePassword changes the acting principal's own password after verifying
// the current one.
func (e *Engine) ChangePassword(ctx context.Context, p Principal, current, next, confirm string) error {
	if err := p.Can(ActionViewDashboard); err != nil {
		return err
	}
	user, err := e.store.UserByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(current)); err != nil {
		return &ValidationError{Field: "current_password", Reason: "incorrect"}
	}
	if len(next) < minPasswordLen {
		return &ValidationError{Field: "new_password", Reason: fmt.Sprintf("too short (min %d)", minPasswordLen)}
	}
	if next != confirm {
		return &ValidationError{Field: "confirm_password", Reason: "does not match"}
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.HashedPassword = hashed
	return e.store.UpdateUser(ctx, user)
}

// SeedAdmin ensures the protected administrator account exists. It is called
// once at startup; an existing account is left untouched.
func (e *Engine) SeedAdmin(ctx context.Context, username, password string) error {
	if _, err := e.store.UserByUsername(ctx, username); err == nil {
		return nil
	}
	role, err := e.store.RoleByName(ctx, RoleAdmin)
	if err != nil {
		return fmt.Errorf("resolve administrator role: %w", err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	rid := role.ID
	admin := &models.User{
		Username:       username,
		HashedPassword: hashed,
		Protected:      true,
		RoleID:         &rid,
		Role:           *role,
	}
	if err := e.store.CreateUser(ctx, admin); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) { // raced with another starter
			return nil
		}
		return err
	}
	e.log.Info("seeded protected admin account", "username", username)
	return nil
}

func principalFor(u *models.User) Principal {
	role := u.Role.Name
	if role == "" {
		role = RoleUser
	}
	return Principal{UserID: u.ID, Username: u.Username, Role: role}
}
