package ledger

import (
	"context"
	"strings"
	"time"

	"marate/models"
)

// ReceiptUpdate rewrites every mutable receipt field. The receipt number is
// immutable after issuance and is deliberately absent here. The description
// is re-derived from the payment type and reason, same as at issuance.
type ReceiptUpdate struct {
	CustomerName  string
	PaymentType   string
	PaymentReason string
	Price         string
	AmountInWords string
	Date          time.Time
}

// ExpenseUpdate rewrites every mutable expense field.
type ExpenseUpdate struct {
	Description string
	Amount      string
	Date        time.Time
}

// UpdateReceipt is admin-only; the role check runs here regardless of what
// the calling layer already verified.
func (e *Engine) UpdateReceipt(ctx context.Context, p Principal, id uint, in ReceiptUpdate) (*models.Receipt, error) {
	if err := p.Can(ActionEditReceipt); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, &ValidationError{Field: "customer_name", Reason: "required"}
	}
	if in.PaymentType != PaymentRecurringMonthly && in.PaymentType != PaymentOneTime {
		return nil, &ValidationError{Field: "payment_type", Reason: "must be recurring_monthly or one_time"}
	}
	cents, err := ParseAmount("price", in.Price)
	if err != nil {
		return nil, err
	}
	receipt, err := e.store.ReceiptByID(ctx, id)
	if err != nil {
		return nil, err
	}

	receipt.CustomerName = strings.TrimSpace(in.CustomerName)
	receipt.PaymentType = in.PaymentType
	receipt.PaymentReason = strings.TrimSpace(in.PaymentReason)
	if in.PaymentType != PaymentOneTime {
		receipt.PaymentReason = ""
	}
	receipt.Description = deriveDescription(in.PaymentType, in.PaymentReason)
	receipt.PriceCents = cents
	receipt.AmountInWords = strings.TrimSpace(in.AmountInWords)
	if !in.Date.IsZero() {
		receipt.Date = in.Date
	}
	if err := e.store.UpdateReceipt(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// DeleteReceipt is admin-only.
func (e *Engine) DeleteReceipt(ctx context.Context, p Principal, id uint) error {
	if err := p.Can(ActionDeleteReceipt); err != nil {
		return err
	}
	return e.store.DeleteReceipt(ctx, id)
}

// UpdateExpense is admin-only.
func (e *Engine) UpdateExpense(ctx context.Context, p Principal, id uint, in ExpenseUpdate) (*models.Expense, error) {
	if err := p.Can(ActionEditExpense); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, &ValidationError{Field: "description", Reason: "required"}
	}
	cents, err := ParseAmount("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	exp, err := e.store.ExpenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	exp.Description = strings.TrimSpace(in.Description)
	exp.AmountCents = cents
	if !in.Date.IsZero() {
		exp.Date = in.Date
	}
	if err := e.store.UpdateExpense(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

// DeleteExpense is admin-only.
func (e *Engine) DeleteExpense(ctx context.Context, p Principal, id uint) error {
	if err := p.Can(ActionDeleteExpense); err != nil {
		return err
	}
	return e.store.DeleteExpense(ctx, id)
}

// DeleteUser is admin-only and refuses to delete the protected account, no
// matter who asks. The user's receipts and expenses survive with their owner
// reference detached.
func (e *Engine) DeleteUser(ctx context.Context, p Principal, id uint) error {
	if err := p.Can(ActionManageUsers); err != nil {
		return err
	}
	user, err := e.store.UserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Protected {
		return &ProtectedEntityError{Username: user.Username}
	}
	return e.store.DeleteUser(ctx, id)
}

// ListUsers is admin-only.
func (e *Engine) ListUsers(ctx context.Context, p Principal) ([]models.User, error) {
	if err := p.Can(ActionManageUsers); err != nil {
		return nil, err
	}
	return e.store.ListUsers(ctx)
}
