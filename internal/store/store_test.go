package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iurnickita/airbilling/internal/model"
	"github.com/iurnickita/airbilling/internal/store/config"
)

func newTestStore(t *testing.T) Store {
	dsn := os.Getenv("DATABASE_URI")
	if dsn == "" {
		t.Skip("DATABASE_URI is not set")
	}

	store, err := NewStore(config.Config{DBDsn: dsn})
	require.NoError(t, err)
	return store
}

func TestStoreInvoiceRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seq, err := store.InvoiceNextSeq(ctx)
	require.NoError(t, err)
	next, err := store.InvoiceNextSeq(ctx)
	require.NoError(t, err)
	require.Greater(t, next, seq)

	invoice := model.Invoice{
		ID:            "test-" + time.Now().Format("20060102150405.000"),
		Number:        time.Now().Format("20060102150405.000"),
		ClientName:    "Test Airline",
		ClientAddress: "Test Address",
		IssuedAt:      time.Now().UTC(),
		Total:         227984,
		Status:        model.InvoiceStatusDraft,
		DocType:       model.DocTypeProforma,
	}
	err = store.InvoiceInsert(ctx, invoice)
	require.NoError(t, err)

	err = store.InvoiceLinesInsert(ctx, []model.InvoiceLine{
		{
			ID:        invoice.ID + "-1",
			InvoiceID: invoice.ID,
			Code:      "ATT",
			Label:     "Landing fee",
			Quantity:  22,
			UnitPrice: 1206,
			Total:     26532,
			Group:     model.GroupAero,
			SortOrder: 1,
		},
	})
	require.NoError(t, err)

	dbInvoice, err := store.InvoiceGetByID(ctx, invoice.ID)
	require.NoError(t, err)
	require.Equal(t, invoice.Number, dbInvoice.Number)
	require.Equal(t, invoice.Total, dbInvoice.Total)
	require.Equal(t, model.InvoiceStatusDraft, dbInvoice.Status)

	// the compensation path removes the invoice and its lines
	err = store.InvoiceDelete(ctx, invoice.ID)
	require.NoError(t, err)

	_, err = store.InvoiceGetByID(ctx, invoice.ID)
	require.ErrorIs(t, err, ErrNoRows)
}

func TestStoreAircraftGetByRegistration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AircraftGetByRegistration(ctx, "ZZ-NONE")
	require.ErrorIs(t, err, ErrNoRows)
}

func TestStoreAuth(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	login := "t" + time.Now().Format("0102150405")

	userCodeRegister, err := store.AuthRegister(ctx, login, "password")
	require.NoError(t, err)

	userCodeLogin, err := store.AuthLogin(ctx, login, "password")
	require.NoError(t, err)

	require.Equal(t, userCodeRegister, userCodeLogin)

	_, err = store.AuthRegister(ctx, login, "password")
	require.ErrorIs(t, err, ErrAlreadyExists)
}
