package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marate/models"
	"marate/pkg/ledger"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
}

func TestAggregateMonthlySeries(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeRenderer{})
	admin, alice := seedPrincipals(t, eng)
	ctx := context.Background()

	// receipts in January and March, expense in February, inserted out of
	// chronological order on purpose
	issueOne(t, eng, alice, "Acme", "50.00", date(2024, time.March, 10))
	issueOne(t, eng, alice, "Acme", "100.00", date(2024, time.January, 5))
	recordOne(t, eng, alice, "Hosting", "30.00", date(2024, time.February, 20))

	sum, err := eng.Aggregate(ctx, admin, ledger.CompanyScope())
	require.NoError(t, err)

	assert.Equal(t, int64(15000), sum.TotalIncomeCents)
	assert.Equal(t, int64(3000), sum.TotalExpenseCents)
	assert.Equal(t, int64(12000), sum.NetCents)

	require.Len(t, sum.Monthly, 3)
	want := []ledger.MonthBucket{
		{Year: 2024, Month: time.January, IncomeCents: 10000, ExpenseCents: 0, NetCents: 10000},
		{Year: 2024, Month: time.February, IncomeCents: 0, ExpenseCents: 3000, NetCents: -3000},
		{Year: 2024, Month: time.March, IncomeCents: 5000, ExpenseCents: 0, NetCents: 5000},
	}
	assert.Equal(t, want, sum.Monthly)
}

func TestAggregateSparseYears(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeRenderer{})
	admin, alice := seedPrincipals(t, eng)

	issueOne(t, eng, alice, "Acme", "10.00", date(2025, time.June, 1))
	issueOne(t, eng, alice, "Acme", "10.00", date(2022, time.December, 31))
	recordOne(t, eng, alice, "Rent", "5.00", date(2023, time.January, 1))

	sum, err := eng.Aggregate(context.Background(), admin, ledger.CompanyScope())
	require.NoError(t, err)

	require.Len(t, sum.Monthly, 3)
	assert.Equal(t, 2022, sum.Monthly[0].Year)
	assert.Equal(t, time.December, sum.Monthly[0].Month)
	assert.Equal(t, 2023, sum.Monthly[1].Year)
	assert.Equal(t, time.January, sum.Monthly[1].Month)
	assert.Equal(t, 2025, sum.Monthly[2].Year)
}

func TestAggregateScopeIsolation(t *testing.T) {
	eng, store := newTestEngine(t, &fakeRenderer{})
	admin, alice := seedPrincipals(t, eng)
	ctx := context.Background()

	_, err := eng.Register(ctx, "bob", "password1")
	require.NoError(t, err)
	bob, err := eng.Authenticate(ctx, "bob", "password1")
	require.NoError(t, err)

	issueOne(t, eng, alice, "Alice Client", "100.00", date(2024, time.May, 1))
	issueOne(t, eng, bob, "Bob Client", "40.00", date(2024, time.May, 2))
	// unattributed record, as left behind by a deleted user
	require.NoError(t, store.CreateReceipt(ctx, &models.Receipt{
		ReceiptNumber: "REC-legacy-1",
		CustomerName:  "Old Client",
		Description:   "One-time payment",
		PaymentType:   ledger.PaymentOneTime,
		PriceCents:    777,
		AmountInWords: "legacy",
		Date:          date(2024, time.May, 3),
	}))

	personal, err := eng.Aggregate(ctx, bob, ledger.PersonalScope(bob.UserID))
	require.NoError(t, err)
	assert.Equal(t, int64(4000), personal.TotalIncomeCents, "personal scope must exclude other owners and unattributed records")
	require.Len(t, personal.RecentReceipts, 1)
	assert.Equal(t, "Bob Client", personal.RecentReceipts[0].CustomerName)

	company, err := eng.Aggregate(ctx, admin, ledger.CompanyScope())
	require.NoError(t, err)
	assert.Equal(t, int64(10000+4000+777), company.TotalIncomeCents)
	assert.Len(t, company.RecentReceipts, 3)
}

func TestAggregateRecency(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeRenderer{})
	admin, alice := seedPrincipals(t, eng)

	// 12 receipts: two share a date, so insertion order breaks the tie
	tied := date(2024, time.July, 15)
	first := issueOne(t, eng, alice, "Tie First", "1.00", tied)
	second := issueOne(t, eng, alice, "Tie Second", "1.00", tied)
	for d := 1; d <= 10; d++ {
		issueOne(t, eng, alice, "Daily", "1.00", date(2024, time.August, d))
	}

	sum, err := eng.Aggregate(context.Background(), admin, ledger.CompanyScope())
	require.NoError(t, err)

	require.Len(t, sum.RecentReceipts, 10)
	// newest first
	assert.Equal(t, date(2024, time.August, 10), sum.RecentReceipts[0].Date)
	for i := 1; i < len(sum.RecentReceipts); i++ {
		assert.False(t, sum.RecentReceipts[i].Date.After(sum.RecentReceipts[i-1].Date))
	}
	// the tied pair fell off the top 10 entirely
	for _, r := range sum.RecentReceipts {
		assert.NotEqual(t, first.ID, r.ID)
		assert.NotEqual(t, second.ID, r.ID)
	}

	// with only the tied pair present, order must follow insertion
	eng2, _ := newTestEngine(t, &fakeRenderer{})
	_, carol := seedPrincipals(t, eng2)
	a := issueOne(t, eng2, carol, "First Inserted", "1.00", tied)
	b := issueOne(t, eng2, carol, "Second Inserted", "1.00", tied)
	sum3, err := eng2.Aggregate(context.Background(), carol, ledger.PersonalScope(carol.UserID))
	require.NoError(t, err)
	require.Len(t, sum3.RecentReceipts, 2)
	assert.Equal(t, a.ID, sum3.RecentReceipts[0].ID, "equal dates keep insertion order")
	assert.Equal(t, b.ID, sum3.RecentReceipts[1].ID)
}

func TestAggregateRequiresAuthentication(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeRenderer{})
	_, err := eng.Aggregate(context.Background(), ledger.Principal{}, ledger.CompanyScope())
	var aerr *ledger.AuthorizationError
	require.ErrorAs(t, err, &aerr)
}

func TestAggregateEmptyScope(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeRenderer{})
	admin, _ := seedPrincipals(t, eng)

	sum, err := eng.Aggregate(context.Background(), admin, ledger.CompanyScope())
	require.NoError(t, err)
	assert.Zero(t, sum.TotalIncomeCents)
	assert.Zero(t, sum.TotalExpenseCents)
	assert.Empty(t, sum.Monthly)
	assert.Empty(t, sum.RecentReceipts)
	assert.Empty(t, sum.RecentExpenses)
}
