package ledger

import (
	"context"

	"marate/models"
)

// Scope is the visibility filter for aggregation queries. The zero value is
// company-wide; PersonalScope narrows to records owned by one user and
// excludes unattributed records.
type Scope struct {
	personal bool
	userID   uint
}

// CompanyScope covers every record, including unattributed ones.
func CompanyScope() Scope { return Scope{} }

// PersonalScope covers records owned by the given user only.
func PersonalScope(userID uint) Scope { return Scope{personal: true, userID: userID} }

// Personal reports whether the scope is narrowed to a single owner, and to whom.
func (s Scope) Personal() (uint, bool) { return s.userID, s.personal }

// Includes reports whether a record with the given owner falls inside the scope.
func (s Scope) Includes(owner *uint) bool {
	if !s.personal {
		return true
	}
	return owner != nil && *owner == s.userID
}

// Store is the transactional table API the engine runs against. Implementations
// must enforce uniqueness of Receipt.ReceiptNumber and User.Username by
// returning *ConflictError, and must report missing rows as *NotFoundError.
// List methods return rows in insertion order (ascending id) so that recency
// tie-breaking stays stable.
type Store interface {
	// RoleByName resolves a role from the seeded role table.
	RoleByName(ctx context.Context, name string) (*models.Role, error)

	CreateUser(ctx context.Context, u *models.User) error
	// User lookups populate the Role association.
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	// DeleteUser removes the row and detaches the owner reference on the
	// user's receipts and expenses (sets it to nil) in the same transaction.
	DeleteUser(ctx context.Context, id uint) error
	ListUsers(ctx context.Context) ([]models.User, error)

	CreateReceipt(ctx context.Context, r *models.Receipt) error
	ReceiptByID(ctx context.Context, id uint) (*models.Receipt, error)
	UpdateReceipt(ctx context.Context, r *models.Receipt) error
	DeleteReceipt(ctx context.Context, id uint) error
	ReceiptsInScope(ctx context.Context, s Scope) ([]models.Receipt, error)

	CreateExpense(ctx context.Context, e *models.Expense) error
	ExpenseByID(ctx context.Context, id uint) (*models.Expense, error)
	UpdateExpense(ctx context.Context, e *models.Expense) error
	DeleteExpense(ctx context.Context, id uint) error
	ExpensesInScope(ctx context.Context, s Scope) ([]models.Expense, error)

	CreateClient(ctx context.Context, c *models.Client) error
	ClientByID(ctx context.Context, id uint) (*models.Client, error)
	UpdateClient(ctx context.Context, c *models.Client) error
	DeleteClient(ctx context.Context, id uint) error
	ListClients(ctx context.Context) ([]models.Client, error)

	// Ping reports store reachability for the liveness check.
	Ping(ctx context.Context) error
}
