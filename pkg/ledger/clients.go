package ledger

import (
	"context"
	"strings"
	"time"

	"marate/models"
)

// ClientInput carries the fields for creating or rewriting a client record.
type ClientInput struct {
	Name            string
	Type            string
	Address         string
	StartDate       time.Time
	EndDate         *time.Time
	InstallationFee string
	MonthlyPayment  string
	Status          string
}

// CreateClient is admin-only. Clients are informational; they only pre-fill
// receipt forms.
func (e *Engine) CreateClient(ctx context.Context, p Principal, in ClientInput) (*models.Client, error) {
	if err := p.Can(ActionManageClients); err != nil {
		return nil, err
	}
	client, err := clientFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := e.store.CreateClient(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// UpdateClient is admin-only and rewrites all fields.
func (e *Engine) UpdateClient(ctx context.Context, p Principal, id uint, in ClientInput) (*models.Client, error) {
	if err := p.Can(ActionManageClients); err != nil {
		return nil, err
	}
	next, err := clientFromInput(in)
	if err != nil {
		return nil, err
	}
	client, err := e.store.ClientByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next.ID = client.ID
	next.CreatedAt = client.CreatedAt
	if err := e.store.UpdateClient(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// DeleteClient is admin-only.
func (e *Engine) DeleteClient(ctx context.Context, p Principal, id uint) error {
	if err := p.Can(ActionManageClients); err != nil {
		return err
	}
	return e.store.DeleteClient(ctx, id)
}

// ListClients is available to any authenticated principal so the issuance
// form can offer them.
func (e *Engine) ListClients(ctx context.Context, p Principal) ([]models.Client, error) {
	if err := p.Can(ActionViewDashboard); err != nil {
		return nil, err
	}
	return e.store.ListClients(ctx)
}

func clientFromInput(in ClientInput) (*models.Client, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	install, err := ParseAmount("installation_fee", orZero(in.InstallationFee))
	if err != nil {
		return nil, err
	}
	monthly, err := ParseAmount("monthly_payment", orZero(in.MonthlyPayment))
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = "active"
	}
	start := in.StartDate
	if start.IsZero() {
		start = time.Now()
	}
	return &models.Client{
		Name:                 strings.TrimSpace(in.Name),
		Type:                 strings.TrimSpace(in.Type),
		Address:              strings.TrimSpace(in.Address),
		StartDate:            start,
		EndDate:              in.EndDate,
		InstallationFeeCents: install,
		MonthlyPaymentCents:  monthly,
		Status:               status,
	}, nil
}

func orZero(s string) string {
	if strings.TrimSpace(s) == "" {
		return "0"
	}
	return s
}
