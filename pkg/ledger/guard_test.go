package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marate/pkg/ledger"
)

func TestMutationsRequireAdmin(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeRenderer{})
	_, alice := seedPrincipals(t, eng)
	ctx := context.Background()

	// alice owns both records; ownership still does not grant edit rights
	receipt := issueOne(t, eng, alice, "Acme", "10.00", time.Now())
	expense := recordOne(t, eng, alice, "Hosting", "5.00", time.Now())

	var aerr *ledger.AuthorizationError

	_, err := eng.UpdateReceipt(ctx, alice, receipt.ID, ledger.ReceiptUpdate{
		CustomerName: "Changed", PaymentType: ledger.PaymentOneTime, Price: "11.00",
	})
	require.ErrorAs(t, err, &aerr)

	require.ErrorAs(t, eng.DeleteReceipt(ctx, alice, receipt.ID), &aerr)

	_, err = eng.UpdateExpense(ctx, alice, expense.ID, ledger.ExpenseUpdate{Description: "Changed", Amount: "6.00"})
	require.ErrorAs(t, err, &aerr)

	require.ErrorAs(t, eng.DeleteExpense(ctx, alice, expense.ID), &aerr)

	require.ErrorAs(t, eng.DeleteUser(ctx, alice, alice.UserID), &aerr)

	_, err = eng.ListUsers(ctx, alice)
	require.ErrorAs(t, err, &aerr)
}

func TestAdminEditsReceipt(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeRenderer{})
	admin, alice := seedPrincipals(t, eng)
	ctx := context.Background()

	receipt := issueOne(t, eng, alice, "Acme", "10.00", time.Now())
	originalNumber := receipt.ReceiptNumber

	updated, err := eng.UpdateReceipt(ctx, admin, receipt.ID, ledger.ReceiptUpdate{
		CustomerName:  "Acme Renamed",
		PaymentType:   ledger.PaymentRecurringMonthly,
		PaymentReason: "should be discarded",
		Price:         "99.50",
		AmountInWords: "ninety nine fifty",
	})
	require.NoError(t, err)
	assert.Equal(t, originalNumber, updated.ReceiptNumber, "receipt number is immutable")
	assert.Equal(t, "Acme Renamed", updated.CustomerName)
	assert.Equal(t, int64(9950), updated.PriceCents)
	assert.Equal(t, "Recurring monthly payment", updated.Description)
	assert.Empty(t, updated.PaymentReason, "recurring receipts carry no reason")
}

func TestAdminDeletesRecords(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeRenderer{})
	admin, alice := seedPrincipals(t, eng)
	ctx := context.Background()

	receipt := issueOne(t, eng, alice, "Acme", "10.00", time.Now())
	expense := recordOne(t, eng, alice, "Hosting", "5.00", time.Now())

	require.NoError(t, eng.DeleteReceipt(ctx, admin, receipt.ID))
	require.NoError(t, eng.DeleteExpense(ctx, admin, expense.ID))

	var nferr *ledger.NotFoundError
	require.ErrorAs(t, eng.DeleteReceipt(ctx, admin, receipt.ID), &nferr)
}

func TestProtectedAdminCannotBeDeleted(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeRenderer{})
	admin, _ := seedPrincipals(t, eng)

	// even the admin cannot delete the protected account
	err := eng.DeleteUser(context.Background(), admin, admin.UserID)
	var perr *ledger.ProtectedEntityError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "admin", perr.Username)
}

func TestDeleteUserDetachesRecords(t *testing.T) {
	eng, store := newTestEngine(t, &fakeRenderer{})
	admin, alice := seedPrincipals(t, eng)
	ctx := context.Background()

	receipt := issueOne(t, eng, alice, "Acme", "100.00", date(2024, time.April, 1))
	recordOne(t, eng, alice, "Hosting", "20.00", date(2024, time.April, 2))

	require.NoError(t, eng.DeleteUser(ctx, admin, alice.UserID))

	// the records survive as unattributed
	kept, err := store.ReceiptByID(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.OwnerUserID)

	company, err := eng.Aggregate(ctx, admin, ledger.CompanyScope())
	require.NoError(t, err)
	assert.Equal(t, int64(10000), company.TotalIncomeCents)
	assert.Equal(t, int64(2000), company.TotalExpenseCents)

	// and stay invisible to any personal scope
	personal, err := eng.Aggregate(ctx, admin, ledger.PersonalScope(alice.UserID))
	require.NoError(t, err)
	assert.Zero(t, personal.TotalIncomeCents)
}

func TestUpdateReceiptValidation(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeRenderer{})
	admin, alice := seedPrincipals(t, eng)
	ctx := context.Background()
	receipt := issueOne(t, eng, alice, "Acme", "10.00", time.Now())

	var verr *ledger.ValidationError
	_, err := eng.UpdateReceipt(ctx, admin, receipt.ID, ledger.ReceiptUpdate{
		CustomerName: "", PaymentType: ledger.PaymentOneTime, Price: "10.00",
	})
	require.ErrorAs(t, err, &verr)

	_, err = eng.UpdateReceipt(ctx, admin, receipt.ID, ledger.ReceiptUpdate{
		CustomerName: "Acme", PaymentType: ledger.PaymentOneTime, Price: "-3",
	})
	require.ErrorAs(t, err, &verr)

	var nferr *ledger.NotFoundError
	_, err = eng.UpdateReceipt(ctx, admin, 9999, ledger.ReceiptUpdate{
		CustomerName: "Acme", PaymentType: ledger.PaymentOneTime, Price: "10.00",
	})
	require.ErrorAs(t, err, &nferr)
}
