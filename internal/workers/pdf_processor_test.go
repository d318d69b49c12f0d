// internal/workers/pdf_processor_test.go
package workers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
	"github.com/ngiletta/taller-be/test/helpers"
	"github.com/ngiletta/taller-be/test/mocks"
)

func newTestProcessor(t *testing.T, parts ports.PartRepository) *InvoicePDFProcessor {
	t.Helper()
	return NewInvoicePDFProcessor(nil, nil, parts, nil, helpers.TestLogger())
}

func TestParseHeader(t *testing.T) {
	p := newTestProcessor(t, nil)

	tests := []struct {
		name           string
		lines          []string
		expectedNumber string
		expectedDate   string
	}{
		{
			name: "spanish_invoice_header",
			lines: []string{
				"TecnoPartes S.R.L.",
				"Fecha: 2025-06-15",
				"Factura Nº: FC-0001-00001234",
			},
			expectedNumber: "FC-0001-00001234",
			expectedDate:   "2025-06-15",
		},
		{
			name: "english_header_with_slash_date",
			lines: []string{
				"Invoice #: INV-2025-042 15/06/2025",
			},
			expectedNumber: "INV-2025-042",
			expectedDate:   "2025-06-15",
		},
		{
			name: "number_with_colon_separator",
			lines: []string{
				"invoice no: A-100/2025",
			},
			expectedNumber: "A-100/2025",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			number, date := p.parseHeader(tt.lines)
			assert.Equal(t, tt.expectedNumber, number)
			if tt.expectedDate != "" {
				assert.Equal(t, tt.expectedDate, date.Format("2006-01-02"))
			}
		})
	}

	t.Run("missing_number_returns_empty", func(t *testing.T) {
		number, _ := p.parseHeader([]string{"just some text", "nothing useful"})
		assert.Empty(t, number)
	})
}

func TestParseLines(t *testing.T) {
	p := newTestProcessor(t, nil)

	t.Run("table_rows_and_total", func(t *testing.T) {
		lines := []string{
			"Descripcion          Cant.   Precio    Subtotal",
			"iPhone 12 Screen     10      $45.00    $450.00",
			"USB-C Charging Port  5       $21.10    $105.50",
			"",
			"Total                                  $555.50",
			"iPhone 13 Screen     2       $60.00    $120.00",
		}

		items, total := p.parseLines(lines)

		require.Len(t, items, 2)
		assert.Equal(t, "iPhone 12 Screen", items[0].description)
		assert.Equal(t, 10, items[0].quantity)
		assert.True(t, items[0].unitPrice.Equal(decimal.RequireFromString("45.00")))
		assert.Equal(t, "USB-C Charging Port", items[1].description)
		assert.Equal(t, 5, items[1].quantity)

		// Parsing stops at the total row; the trailing line is ignored.
		assert.True(t, total.Equal(decimal.RequireFromString("555.50")))
	})

	t.Run("thousands_separators", func(t *testing.T) {
		lines := []string{
			"MacBook Logic Board  2       $1,250.00   $2,500.00",
			"Total                            $2,500.00",
		}

		items, total := p.parseLines(lines)

		require.Len(t, items, 1)
		assert.True(t, items[0].unitPrice.Equal(decimal.RequireFromString("1250.00")))
		assert.True(t, total.Equal(decimal.RequireFromString("2500.00")))
	})

	t.Run("non_table_lines_skipped", func(t *testing.T) {
		lines := []string{
			"TecnoPartes S.R.L.",
			"CUIT 30-12345678-9",
			"Gracias por su compra",
		}

		items, total := p.parseLines(lines)

		assert.Empty(t, items)
		assert.True(t, total.IsZero())
	})
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"45.00", "45.00"},
		{"$45.00", "45.00"},
		{"1,250.00", "1250.00"},
		{" $2,500.00 ", "2500.00"},
		{"garbage", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseCurrency(tt.input)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)),
				"parseCurrency(%q) = %s", tt.input, got)
		})
	}
}

func TestMatchPart(t *testing.T) {
	partID := uuid.New()

	tests := []struct {
		name        string
		description string
		setupMocks  func(*mocks.MockPartRepository)
		expectedID  uuid.UUID
		expectError bool
	}{
		{
			name:        "case_insensitive_exact_match",
			description: "iphone 12 screen",
			setupMocks: func(m *mocks.MockPartRepository) {
				m.EXPECT().
					List(gomock.Any(), ports.PartListParams{
						Search: "iphone 12 screen", Page: 1, PageSize: 10,
					}).
					Return(&ports.PartListResult{Items: []*domain.Part{
						{ID: uuid.New(), Name: "iPhone 12 Screen Protector"},
						{ID: partID, Name: "iPhone 12 Screen"},
					}}, nil)
			},
			expectedID: partID,
		},
		{
			name:        "substring_match_is_not_enough",
			description: "iPhone 12",
			setupMocks: func(m *mocks.MockPartRepository) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					Return(&ports.PartListResult{Items: []*domain.Part{
						{ID: uuid.New(), Name: "iPhone 12 Screen"},
					}}, nil)
			},
			expectError: true,
		},
		{
			name:        "no_candidates",
			description: "Unknown Widget",
			setupMocks: func(m *mocks.MockPartRepository) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					Return(&ports.PartListResult{}, nil)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			parts := mocks.NewMockPartRepository(ctrl)
			tt.setupMocks(parts)

			p := newTestProcessor(t, parts)

			id, err := p.matchPart(context.Background(), tt.description)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedID, id)
		})
	}
}

func TestParseHeaderDateDefaultsToNow(t *testing.T) {
	p := newTestProcessor(t, nil)

	before := time.Now()
	_, date := p.parseHeader([]string{"Factura Nº: FC-0001-00000001"})

	assert.False(t, date.Before(before.Add(-time.Second)))
}
