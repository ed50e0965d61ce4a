package ledger_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marate/models"
	"marate/pkg/ledger"
	"marate/pkg/memstore"
)

// fakeRenderer is a controllable stand-in for the PDF renderer.
type fakeRenderer struct {
	mu    sync.Mutex
	fail  bool
	delay time.Duration
	calls int
}

func (f *fakeRenderer) Render(ctx context.Context, r *models.Receipt) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	fail, delay := f.fail, f.delay
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errors.New("renderer down")
	}
	return []byte("%PDF " + r.ReceiptNumber), nil
}

func (f *fakeRenderer) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func newTestEngine(t *testing.T, r ledger.Renderer) (*ledger.Engine, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ledger.New(store, r, logger), store
}

// seedPrincipals creates the protected admin and one regular user and logs
// both in.
func seedPrincipals(t *testing.T, eng *ledger.Engine) (admin, alice ledger.Principal) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, eng.SeedAdmin(ctx, "admin", "admin123"))
	_, err := eng.Register(ctx, "alice", "password1")
	require.NoError(t, err)

	admin, err = eng.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	alice, err = eng.Authenticate(ctx, "alice", "password1")
	require.NoError(t, err)
	return admin, alice
}

func issueOne(t *testing.T, eng *ledger.Engine, p ledger.Principal, customer, price string, at time.Time) *models.Receipt {
	t.Helper()
	res, err := eng.Issue(context.Background(), p, ledger.IssueInput{
		CustomerName:  customer,
		PaymentType:   ledger.PaymentOneTime,
		Price:         price,
		AmountInWords: "some amount",
	}, at)
	require.NoError(t, err)
	return res.Receipt
}

func recordOne(t *testing.T, eng *ledger.Engine, p ledger.Principal, desc, amount string, at time.Time) *models.Expense {
	t.Helper()
	exp, err := eng.RecordExpense(context.Background(), p, desc, amount, at)
	require.NoError(t, err)
	return exp
}
