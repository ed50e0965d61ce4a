package ledger

import "fmt"

// ValidationError reports malformed or missing input on a named field. It is
// always user-correctable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthorizationError means the principal is authenticated but lacks the role
// required for the operation.
type AuthorizationError struct {
	Op string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized: %s", e.Op)
}

// NotFoundError means a referenced entity id does not exist.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ConflictError reports a uniqueness violation on a stored value. Receipt
// numbering retries on it; username collisions surface it to the caller.
type ConflictError struct {
	Entity string
	Value  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Value)
}

// ProtectedEntityError means a delete was attempted against the protected
// admin account.
type ProtectedEntityError struct {
	Username string
}

func (e *ProtectedEntityError) Error() string {
	return fmt.Sprintf("account %q is protected and cannot be deleted", e.Username)
}

// RendererUnavailableError wraps a document renderer failure. It never fails
// the issuance that triggered it; callers get the fallback text instead.
type RendererUnavailableError struct {
	Err error
}

func (e *RendererUnavailableError) Error() string {
	return fmt.Sprintf("renderer unavailable: %v", e.Err)
}

func (e *RendererUnavailableError) Unwrap() error { return e.Err }
