package ledger

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"marate/models"
)

// recentLimit caps the recency views on the dashboard.
const recentLimit = 10

// MonthBucket is one calendar month of the dashboard series. A month appears
// when it has at least one receipt or one expense; the absent side is zero.
type MonthBucket struct {
	Year         int
	Month        time.Month
	IncomeCents  int64
	ExpenseCents int64
	NetCents     int64
}

// Summary is the full dashboard view for a scope.
type Summary struct {
	TotalIncomeCents  int64
	TotalExpenseCents int64
	NetCents          int64
	Monthly           []MonthBucket
	RecentReceipts    []models.Receipt
	RecentExpenses    []models.Expense
}

// Aggregate recomputes totals, the monthly series and the recency views over
// every record in scope. It is a full re-bucket on every call, correct for
// sparse and out-of-order-inserted dates; the two table reads run
// concurrently.
func (e *Engine) Aggregate(ctx context.Context, p Principal, scope Scope) (*Summary, error) {
	if err := p.Can(ActionViewDashboard); err != nil {
		return nil, err
	}

	var (
		receipts []models.Receipt
		expenses []models.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		receipts, err = e.store.ReceiptsInScope(gctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = e.store.ExpensesInScope(gctx, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := &Summary{}
	type ym struct {
		year  int
		month time.Month
	}
	buckets := map[ym]*MonthBucket{}
	bucket := func(t time.Time) *MonthBucket {
		k := ym{t.Year(), t.Month()}
		b, ok := buckets[k]
		if !ok {
			b = &MonthBucket{Year: k.year, Month: k.month}
			buckets[k] = b
		}
		return b
	}

	for i := range receipts {
		r := &receipts[i]
		sum.TotalIncomeCents += r.PriceCents
		bucket(r.Date).IncomeCents += r.PriceCents
	}
	for i := range expenses {
		x := &expenses[i]
		sum.TotalExpenseCents += x.AmountCents
		bucket(x.Date).ExpenseCents += x.AmountCents
	}
	sum.NetCents = sum.TotalIncomeCents - sum.TotalExpenseCents

	sum.Monthly = make([]MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		b.NetCents = b.IncomeCents - b.ExpenseCents
		sum.Monthly = append(sum.Monthly, *b)
	}
	sort.Slice(sum.Monthly, func(i, j int) bool {
		a, b := sum.Monthly[i], sum.Monthly[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})

	sum.RecentReceipts = recentReceipts(receipts)
	sum.RecentExpenses = recentExpenses(expenses)
	return sum, nil
}

// recentReceipts returns the newest receipts by date, insertion order
// preserved on equal dates. Input is in insertion order per the Store
// contract.
func recentReceipts(in []models.Receipt) []models.Receipt {
	out := make([]models.Receipt, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > recentLimit {
		out = out[:recentLimit]
	}
	return out
}

func recentExpenses(in []models.Expense) []models.Expense {
	out := make([]models.Expense, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > recentLimit {
		out = out[:recentLimit]
	}
	return out
}
