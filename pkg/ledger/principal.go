package ledger

// Role names match the seeded role table.
const (
	RoleAdmin = "administrator"
	RoleUser  = "user"
)

// Principal is the authenticated identity an operation runs as. The engine
// never reads ambient session state; the HTTP layer resolves the session and
// passes a Principal into every call.
type Principal struct {
	UserID   uint
	Username string
	Role     string
}

// Action is a capability the policy can grant or deny.
type Action string

const (
	ActionIssueReceipt  Action = "issue receipt"
	ActionRecordExpense Action = "record expense"
	ActionViewDashboard Action = "view dashboard"
	ActionEditReceipt   Action = "edit receipt"
	ActionDeleteReceipt Action = "delete receipt"
	ActionEditExpense   Action = "edit expense"
	ActionDeleteExpense Action = "delete expense"
	ActionManageUsers   Action = "manage users"
	ActionManageClients Action = "manage clients"
)

// adminOnly lists the actions reserved for the administrator role. Editing and
// deleting history is admin-only even for the record's owner.
var adminOnly = map[Action]bool{
	ActionEditReceipt:   true,
	ActionDeleteReceipt: true,
	ActionEditExpense:   true,
	ActionDeleteExpense: true,
	ActionManageUsers:   true,
	ActionManageClients: true,
}

// Can is the single authorization policy consulted at every mutation entry
// point. Every action requires an authenticated principal; admin-only actions
// additionally require the administrator role.
func (p Principal) Can(a Action) error {
	if p.UserID == 0 {
		return &AuthorizationError{Op: string(a)}
	}
	if adminOnly[a] && p.Role != RoleAdmin {
		return &AuthorizationError{Op: string(a)}
	}
	return nil
}

// IsAdmin reports whether the principal holds the administrator role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
