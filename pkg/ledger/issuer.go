package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"marate/models"
)

// Payment types accepted on issuance.
const (
	PaymentRecurringMonthly = "recurring_monthly"
	PaymentOneTime          = "one_time"
)

// Fixed description phrases.
const (
	descRecurring      = "Recurring monthly payment"
	descOneTimeDefault = "One-time payment"
)

// numberAttempts bounds retries when the store rejects a receipt number as a
// duplicate. Each retry uses a fresh random token, so exhausting this means
// the store itself is misbehaving.
const numberAttempts = 5

// IssueInput carries the validated form fields for a new receipt. Price is
// the raw decimal string as entered; parsing is part of issuance validation.
type IssueInput struct {
	CustomerName  string
	PaymentType   string
	PaymentReason string
	Price         string
	AmountInWords string
}

// IssueResult is the outcome of a successful issuance. When the renderer was
// unavailable, Degraded is true, Document is nil and Fallback carries the
// textual receipt instead; the persisted receipt is committed either way.
type IssueResult struct {
	Receipt  *models.Receipt
	Document []byte
	Fallback string
	Degraded bool
}

// Issue validates the input, derives the description, assigns a unique
// receipt number, persists the receipt and renders its document. Renderer
// failure does not fail the issuance.
func (e *Engine) Issue(ctx context.Context, p Principal, in IssueInput, now time.Time) (*IssueResult, error) {
	if err := p.Can(ActionIssueReceipt); err != nil {
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

	receipt := &models.Receipt{
		CustomerName:  strings.TrimSpace(in.CustomerName),
		Description:   deriveDescription(in.PaymentType, in.PaymentReason),
		PaymentType:   in.PaymentType,
		PaymentReason: strings.TrimSpace(in.PaymentReason),
		PriceCents:    cents,
		AmountInWords: strings.TrimSpace(in.AmountInWords),
		Date:          now,
	}
	if in.PaymentType != PaymentOneTime {
		receipt.PaymentReason = ""
	}
	if p.UserID != 0 {
		uid := p.UserID
		receipt.OwnerUserID = &uid
	}

	if err := e.persistNumbered(ctx, receipt, now); err != nil {
		return nil, err
	}

	doc, rerr := e.renderDocument(ctx, receipt)
	if rerr != nil {
		// The receipt row is already committed; degrade instead of failing.
		e.log.Warn("receipt document render failed, returning fallback",
			"receipt_number", receipt.ReceiptNumber, "error", rerr)
		return &IssueResult{Receipt: receipt, Fallback: FallbackText(receipt), Degraded: true}, nil
	}
	return &IssueResult{Receipt: receipt, Document: doc}, nil
}

// Render re-renders the document for an already issued receipt. Identical
// stored fields yield identical bytes.
func (e *Engine) Render(ctx context.Context, p Principal, receiptID uint) ([]byte, error) {
	if err := p.Can(ActionViewDashboard); err != nil {
		return nil, err
	}
	receipt, err := e.store.ReceiptByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	return e.renderDocument(ctx, receipt)
}

// persistNumbered assigns a receipt number and creates the row, retrying with
// a fresh token when the store reports a numbering collision.
func (e *Engine) persistNumbered(ctx context.Context, r *models.Receipt, now time.Time) error {
	for attempt := 0; attempt < numberAttempts; attempt++ {
		r.ReceiptNumber = e.nextNumber(now, attempt > 0)
		err := e.store.CreateReceipt(ctx, r)
		if err == nil {
			return nil
		}
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			e.log.Debug("receipt number collision, retrying",
				"receipt_number", r.ReceiptNumber, "attempt", attempt+1)
			continue
		}
		return err
	}
	return fmt.Errorf("could not assign a unique receipt number after %d attempts", numberAttempts)
}

// nextNumber builds "REC-<unix seconds>-<token>". The token is a per-process
// monotonic counter, never the clock alone, so concurrent issuances within
// the same second stay distinct; retries after a store conflict (counter
// reset across restarts within one second) switch to a random token.
func (e *Engine) nextNumber(now time.Time, randomize bool) string {
	if randomize {
		b := make([]byte, 4)
		if _, err := rand.Read(b); err == nil {
			return fmt.Sprintf("REC-%d-%s", now.Unix(), hex.EncodeToString(b))
		}
	}
	return fmt.Sprintf("REC-%d-%d", now.Unix(), e.seq.Add(1))
}

// deriveDescription applies the fixed description policy: recurring payments
// always get the recurring phrase, one-time payments use the stated reason or
// the default phrase.
func deriveDescription(paymentType, reason string) string {
	if paymentType == PaymentRecurringMonthly {
		return descRecurring
	}
	if r := strings.TrimSpace(reason); r != "" {
		return r
	}
	return descOneTimeDefault
}

// FallbackText is the textual equivalent of the rendered document, used when
// the renderer is unavailable.
func FallbackText(r *models.Receipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RECEIPT %s\n", r.ReceiptNumber)
	fmt.Fprintf(&b, "Date: %s\n", r.Date.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Customer: %s\n", r.CustomerName)
	fmt.Fprintf(&b, "Description: %s\n", r.Description)
	if r.PaymentType == PaymentOneTime && r.PaymentReason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", r.PaymentReason)
	}
	fmt.Fprintf(&b, "Amount: %s\n", FormatCents(r.PriceCents))
	fmt.Fprintf(&b, "Amount in words: %s\n", r.AmountInWords)
	return b.String()
}
