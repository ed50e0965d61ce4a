package ledger

import (
	"context"
	"strings"
	"time"

	"marate/models"
)

// RecordExpense validates and persists an expense owned by the principal.
func (e *Engine) RecordExpense(ctx context.Context, p Principal, description, amount string, now time.Time) (*models.Expense, error) {
	if err := p.Can(ActionRecordExpense); err != nil {
		return nil, err
	}
	if strings.TrimSpace(description) == "" {
		return nil, &ValidationError{Field: "description", Reason: "required"}
	}
	cents, err := ParseAmount("amount", amount)
	if err != nil {
		return nil, err
	}
	uid := p.UserID
	exp := &models.Expense{
		Description: strings.TrimSpace(description),
		AmountCents: cents,
		Date:        now,
		OwnerUserID: &uid,
	}
	if err := e.store.CreateExpense(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}
