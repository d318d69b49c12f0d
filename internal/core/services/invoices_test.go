// internal/core/services/invoices_test.go
package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
	"github.com/ngiletta/taller-be/internal/core/services"
	"github.com/ngiletta/taller-be/test/helpers"
	"github.com/ngiletta/taller-be/test/mocks"
)

func newTestInvoiceService(t *testing.T, invoices ports.InvoiceRepository, suppliers ports.SupplierRepository, ledger ports.Ledger) *services.InvoiceReconciliationService {
	t.Helper()
	return services.NewInvoiceReconciliationService(invoices, suppliers, ledger, helpers.TestLogger())
}

func invoiceParams(supplierID uuid.UUID, lines []domain.InvoiceLine, total string) ports.CreateInvoiceParams {
	return ports.CreateInvoiceParams{
		SupplierID:    supplierID,
		Number:        "FC-0001-00001234",
		Date:          time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		LineItems:     lines,
		DeclaredTotal: decimal.RequireFromString(total),
	}
}

func TestInvoiceService_Create(t *testing.T) {
	supplierID := uuid.New()
	partA := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
	partB := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")

	linesAB := []domain.InvoiceLine{
		{PartID: partA, Quantity: 10, UnitPrice: decimal.RequireFromString("45.00")},
		{PartID: partB, Quantity: 5, UnitPrice: decimal.RequireFromString("21.10")},
	}

	t.Run("matching_total_restocks_every_line", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		invoiceRepo := mocks.NewMockInvoiceRepository(ctrl)
		supplierRepo := mocks.NewMockSupplierRepository(ctrl)
		ledger := mocks.NewMockLedger(ctrl)
		passthroughScope(ledger)

		supplierRepo.EXPECT().Exists(gomock.Any(), supplierID).Return(true, nil)
		ledger.EXPECT().
			GetItem(gomock.Any(), gomock.Any()).
			Return(helpers.CreateTestPart(), nil).
			Times(2)
		ledger.EXPECT().Restock(gomock.Any(), partA, 10, gomock.Any()).Return(nil)
		ledger.EXPECT().Restock(gomock.Any(), partB, 5, gomock.Any()).Return(nil)
		invoiceRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

		svc := newTestInvoiceService(t, invoiceRepo, supplierRepo, ledger)
		// 10*45.00 + 5*21.10 = 555.50
		invoice, err := svc.Create(context.Background(), invoiceParams(supplierID, linesAB, "555.50"))

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, invoice.ID)
		assert.Equal(t, "555.50", invoice.Total.StringFixed(2))
	})

	t.Run("declared_total_mismatch_rejected_before_any_restock", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc := newTestInvoiceService(t,
			mocks.NewMockInvoiceRepository(ctrl),
			mocks.NewMockSupplierRepository(ctrl),
			mocks.NewMockLedger(ctrl))

		_, err := svc.Create(context.Background(), invoiceParams(supplierID, linesAB, "555.49"))

		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Contains(t, err.Error(), "does not match")
	})

	t.Run("unknown_supplier_rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		supplierRepo := mocks.NewMockSupplierRepository(ctrl)
		supplierRepo.EXPECT().Exists(gomock.Any(), supplierID).Return(false, nil)

		svc := newTestInvoiceService(t,
			mocks.NewMockInvoiceRepository(ctrl), supplierRepo, mocks.NewMockLedger(ctrl))

		_, err := svc.Create(context.Background(), invoiceParams(supplierID, linesAB, "555.50"))

		var notFound *domain.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("unknown_part_fails_before_the_first_restock", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		invoiceRepo := mocks.NewMockInvoiceRepository(ctrl)
		supplierRepo := mocks.NewMockSupplierRepository(ctrl)
		ledger := mocks.NewMockLedger(ctrl)
		passthroughScope(ledger)

		supplierRepo.EXPECT().Exists(gomock.Any(), supplierID).Return(true, nil)
		ledger.EXPECT().
			GetItem(gomock.Any(), partA).
			Return(nil, &domain.NotFoundError{Entity: "part", ID: partA.String()})
		// No Restock and no Save: the pre-check rejects the whole invoice.

		svc := newTestInvoiceService(t, invoiceRepo, supplierRepo, ledger)
		_, err := svc.Create(context.Background(), invoiceParams(supplierID, linesAB, "555.50"))

		var notFound *domain.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("mid_sequence_failure_rolls_back_applied_restocks", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		invoiceRepo := mocks.NewMockInvoiceRepository(ctrl)
		supplierRepo := mocks.NewMockSupplierRepository(ctrl)
		ledger := mocks.NewMockLedger(ctrl)
		passthroughScope(ledger)

		supplierRepo.EXPECT().Exists(gomock.Any(), supplierID).Return(true, nil)
		ledger.EXPECT().
			GetItem(gomock.Any(), gomock.Any()).
			Return(helpers.CreateTestPart(), nil).
			Times(2)
		ledger.EXPECT().Restock(gomock.Any(), partA, 10, gomock.Any()).Return(nil)
		ledger.EXPECT().
			Restock(gomock.Any(), partB, 5, gomock.Any()).
			Return(&domain.StorageError{Op: "restock", Err: errors.New("connection reset")})
		// The applied restock for partA is withdrawn again.
		ledger.EXPECT().
			Reserve(gomock.Any(), partA, 10, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, _ int, ref string) (*domain.Part, error) {
				assert.Contains(t, ref, "/rollback")
				return helpers.CreateTestPart(), nil
			})

		svc := newTestInvoiceService(t, invoiceRepo, supplierRepo, ledger)
		_, err := svc.Create(context.Background(), invoiceParams(supplierID, linesAB, "555.50"))

		var storage *domain.StorageError
		require.ErrorAs(t, err, &storage)
	})

	t.Run("save_failure_rolls_back_every_restock", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		invoiceRepo := mocks.NewMockInvoiceRepository(ctrl)
		supplierRepo := mocks.NewMockSupplierRepository(ctrl)
		ledger := mocks.NewMockLedger(ctrl)
		passthroughScope(ledger)

		supplierRepo.EXPECT().Exists(gomock.Any(), supplierID).Return(true, nil)
		ledger.EXPECT().
			GetItem(gomock.Any(), gomock.Any()).
			Return(helpers.CreateTestPart(), nil).
			Times(2)
		ledger.EXPECT().Restock(gomock.Any(), partA, 10, gomock.Any()).Return(nil)
		ledger.EXPECT().Restock(gomock.Any(), partB, 5, gomock.Any()).Return(nil)
		invoiceRepo.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			Return(errors.New("unique violation"))
		// Rollback runs newest-first.
		gomock.InOrder(
			ledger.EXPECT().Reserve(gomock.Any(), partB, 5, gomock.Any()).Return(helpers.CreateTestPart(), nil),
			ledger.EXPECT().Reserve(gomock.Any(), partA, 10, gomock.Any()).Return(helpers.CreateTestPart(), nil),
		)

		svc := newTestInvoiceService(t, invoiceRepo, supplierRepo, ledger)
		_, err := svc.Create(context.Background(), invoiceParams(supplierID, linesAB, "555.50"))

		var storage *domain.StorageError
		require.ErrorAs(t, err, &storage)
		assert.Contains(t, err.Error(), "save_invoice")
	})

	t.Run("validation_failures", func(t *testing.T) {
		tests := []struct {
			name          string
			params        ports.CreateInvoiceParams
			errorContains string
		}{
			{
				name:          "missing_supplier_id",
				params:        invoiceParams(uuid.Nil, linesAB, "555.50"),
				errorContains: "supplier_id",
			},
			{
				name: "missing_number",
				params: func() ports.CreateInvoiceParams {
					p := invoiceParams(supplierID, linesAB, "555.50")
					p.Number = ""
					return p
				}(),
				errorContains: "number",
			},
			{
				name:          "empty_line_items",
				params:        invoiceParams(supplierID, nil, "0"),
				errorContains: "line_items",
			},
			{
				name: "zero_quantity_line",
				params: invoiceParams(supplierID, []domain.InvoiceLine{
					{PartID: partA, Quantity: 0, UnitPrice: decimal.RequireFromString("45.00")},
				}, "0"),
				errorContains: "quantity must be positive",
			},
			{
				name: "negative_unit_price_line",
				params: invoiceParams(supplierID, []domain.InvoiceLine{
					{PartID: partA, Quantity: 1, UnitPrice: decimal.RequireFromString("-45.00")},
				}, "-45.00"),
				errorContains: "unit price cannot be negative",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svc := newTestInvoiceService(t,
					mocks.NewMockInvoiceRepository(ctrl),
					mocks.NewMockSupplierRepository(ctrl),
					mocks.NewMockLedger(ctrl))

				_, err := svc.Create(context.Background(), tt.params)

				var validation *domain.ValidationError
				require.ErrorAs(t, err, &validation)
				assert.Contains(t, err.Error(), tt.errorContains)
			})
		}
	})
}

func TestInvoiceService_Get(t *testing.T) {
	id := uuid.New()

	t.Run("unknown_invoice_is_not_found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		invoiceRepo := mocks.NewMockInvoiceRepository(ctrl)
		invoiceRepo.EXPECT().FindByID(gomock.Any(), id).Return(nil, nil)

		svc := newTestInvoiceService(t, invoiceRepo,
			mocks.NewMockSupplierRepository(ctrl), mocks.NewMockLedger(ctrl))
		_, err := svc.Get(context.Background(), id)

		var notFound *domain.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("found_invoice_is_returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		invoiceRepo := mocks.NewMockInvoiceRepository(ctrl)
		invoiceRepo.EXPECT().
			FindByID(gomock.Any(), id).
			Return(&domain.Invoice{ID: id, Number: "FC-0001-00001234"}, nil)

		svc := newTestInvoiceService(t, invoiceRepo,
			mocks.NewMockSupplierRepository(ctrl), mocks.NewMockLedger(ctrl))
		invoice, err := svc.Get(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, "FC-0001-00001234", invoice.Number)
	})
}
