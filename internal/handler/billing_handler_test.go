package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hms-service/internal/authz"
	"hms-service/internal/collection"
	"hms-service/internal/model"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=app dbname=tenant_tenant-a",
		PreferSimpleProtocol: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db
}

func TestSettleBillRequiresEditCapability(t *testing.T) {
	ident := &authz.Identity{
		UserID:      "user-1",
		Permissions: map[string]interface{}{"hms.billing.view": "own"},
	}
	bill := model.Bill{ID: 7, TotalAmount: 450}
	bill.SetOwner("user-1")

	err := settleBill(nil, ident, &bill, "cash")
	assert.ErrorIs(t, err, collection.ErrNotAuthorized)
}

func TestSettleBillDeniesForeignBillForOwnScope(t *testing.T) {
	ident := &authz.Identity{
		UserID: "user-1",
		Permissions: map[string]interface{}{
			"hms.billing.view": "own",
			"hms.billing.edit": true,
		},
	}
	bill := model.Bill{ID: 7, TotalAmount: 450}
	bill.SetOwner("user-2")

	err := settleBill(nil, ident, &bill, "cash")
	assert.ErrorIs(t, err, collection.ErrNotAuthorized)
}

func TestSettleBillMarksPaidAndWritesLedger(t *testing.T) {
	db := dryRunDB(t)
	ident := &authz.Identity{UserID: "admin-1", IsSuperAdmin: true}

	bill := model.Bill{ID: 7, ServiceType: "opd", Status: model.BillPending, TotalAmount: 450}
	require.NoError(t, settleBill(db, ident, &bill, "card"))

	assert.Equal(t, model.BillPaid, bill.Status)
	assert.True(t, bill.IsPaid)
	assert.Equal(t, "card", bill.PaymentMethod)
}

func TestBillPaymentLedgerEntry(t *testing.T) {
	bill := model.Bill{ID: 7, ServiceType: "opd", TotalAmount: 450}

	payment := billPayment(&bill, "upi", "user-1")

	assert.NotEmpty(t, payment.TransactionNumber)
	assert.Equal(t, 450.0, payment.Amount)
	assert.Equal(t, model.PaymentIncome, payment.TransactionType)
	assert.Equal(t, "upi", payment.PaymentMethod)
	assert.Equal(t, "opd", payment.Category)
	assert.Equal(t, "bill", payment.ReferenceType)
	require.NotNil(t, payment.ReferenceID)
	assert.Equal(t, uint(7), *payment.ReferenceID)
	assert.Equal(t, "user-1", payment.OwnerID())
}
