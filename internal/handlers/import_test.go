// internal/handlers/import_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ngiletta/taller-be/internal/core/domain"
	"github.com/ngiletta/taller-be/internal/core/ports"
	"github.com/ngiletta/taller-be/internal/handlers"
	"github.com/ngiletta/taller-be/test/helpers"
	"github.com/ngiletta/taller-be/test/mocks"
)

const testMaxFileSize = 10 << 20

// multipartPDF builds a multipart body with a fake PDF part and the supplier
// form field, returning the body and its content type.
func multipartPDF(t *testing.T, supplierID, contentType string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="factura-junio.pdf"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake invoice document"))
	require.NoError(t, err)

	require.NoError(t, writer.WriteField("supplier_id", supplierID))
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestImportHandler_ImportInvoicePDF(t *testing.T) {
	supplierID := uuid.New()

	t.Run("successful_upload_queues_a_job", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		store := mocks.NewMockFileStore(ctrl)
		jobs := mocks.NewMockImportJobRepository(ctrl)
		suppliers := mocks.NewMockSupplierRepository(ctrl)
		tasks := mocks.NewMockTaskEnqueuer(ctrl)

		suppliers.EXPECT().Exists(gomock.Any(), supplierID).Return(true, nil)
		store.EXPECT().
			Upload(gomock.Any(), gomock.Any(), gomock.Any(), "application/pdf").
			Return("documents/incoming/"+supplierID.String()+"/upload.pdf", nil)
		jobs.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		tasks.EXPECT().Enqueue(gomock.Any(), ports.TaskInvoicePDF, gomock.Any()).Return(nil)

		handler := handlers.NewImportHandler(store, jobs, suppliers, tasks, testMaxFileSize, helpers.TestLogger())

		body, contentType := multipartPDF(t, supplierID.String(), "application/pdf")
		req := httptest.NewRequest("POST", "/api/v1/imports/pdf", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ImportInvoicePDF(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response["job_id"])
		assert.Equal(t, string(domain.ImportStatusQueued), response["status"])
	})

	t.Run("non_pdf_upload_rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		handler := handlers.NewImportHandler(
			mocks.NewMockFileStore(ctrl),
			mocks.NewMockImportJobRepository(ctrl),
			mocks.NewMockSupplierRepository(ctrl),
			mocks.NewMockTaskEnqueuer(ctrl),
			testMaxFileSize, helpers.TestLogger())

		body, contentType := multipartPDF(t, supplierID.String(), "image/png")
		req := httptest.NewRequest("POST", "/api/v1/imports/pdf", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ImportInvoicePDF(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown_supplier_rejected_before_upload", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		suppliers := mocks.NewMockSupplierRepository(ctrl)
		suppliers.EXPECT().Exists(gomock.Any(), supplierID).Return(false, nil)

		handler := handlers.NewImportHandler(
			mocks.NewMockFileStore(ctrl),
			mocks.NewMockImportJobRepository(ctrl),
			suppliers,
			mocks.NewMockTaskEnqueuer(ctrl),
			testMaxFileSize, helpers.TestLogger())

		body, contentType := multipartPDF(t, supplierID.String(), "application/pdf")
		req := httptest.NewRequest("POST", "/api/v1/imports/pdf", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ImportInvoicePDF(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("enqueue_failure_marks_job_failed_and_discards_upload", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		store := mocks.NewMockFileStore(ctrl)
		jobs := mocks.NewMockImportJobRepository(ctrl)
		suppliers := mocks.NewMockSupplierRepository(ctrl)
		tasks := mocks.NewMockTaskEnqueuer(ctrl)

		suppliers.EXPECT().Exists(gomock.Any(), supplierID).Return(true, nil)
		store.EXPECT().
			Upload(gomock.Any(), gomock.Any(), gomock.Any(), "application/pdf").
			Return("key", nil)

		gomock.InOrder(
			jobs.EXPECT().
				Save(gomock.Any(), gomock.Any()).
				Return(nil),
			tasks.EXPECT().
				Enqueue(gomock.Any(), ports.TaskInvoicePDF, gomock.Any()).
				Return(errors.New("broker unavailable")),
			jobs.EXPECT().
				Save(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, job *domain.ImportJob) error {
					assert.Equal(t, domain.ImportStatusFailed, job.Status)
					assert.NotEmpty(t, job.Error)
					return nil
				}),
		)
		store.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

		handler := handlers.NewImportHandler(store, jobs, suppliers, tasks, testMaxFileSize, helpers.TestLogger())

		body, contentType := multipartPDF(t, supplierID.String(), "application/pdf")
		req := httptest.NewRequest("POST", "/api/v1/imports/pdf", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.ImportInvoicePDF(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestImportHandler_ImportStatus(t *testing.T) {
	jobID := uuid.New()

	t.Run("found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		jobs := mocks.NewMockImportJobRepository(ctrl)
		jobs.EXPECT().
			FindByID(gomock.Any(), jobID).
			Return(&domain.ImportJob{ID: jobID, Status: domain.ImportStatusProcessing}, nil)

		handler := handlers.NewImportHandler(
			mocks.NewMockFileStore(ctrl), jobs,
			mocks.NewMockSupplierRepository(ctrl),
			mocks.NewMockTaskEnqueuer(ctrl),
			testMaxFileSize, helpers.TestLogger())

		req := httptest.NewRequest("GET", "/api/v1/imports/"+jobID.String(), nil)
		req.SetPathValue("id", jobID.String())
		w := httptest.NewRecorder()

		handler.ImportStatus(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var job domain.ImportJob
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
		assert.Equal(t, domain.ImportStatusProcessing, job.Status)
	})

	t.Run("not_found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		jobs := mocks.NewMockImportJobRepository(ctrl)
		jobs.EXPECT().FindByID(gomock.Any(), jobID).Return(nil, nil)

		handler := handlers.NewImportHandler(
			mocks.NewMockFileStore(ctrl), jobs,
			mocks.NewMockSupplierRepository(ctrl),
			mocks.NewMockTaskEnqueuer(ctrl),
			testMaxFileSize, helpers.TestLogger())

		req := httptest.NewRequest("GET", "/api/v1/imports/"+jobID.String(), nil)
		req.SetPathValue("id", jobID.String())
		w := httptest.NewRecorder()

		handler.ImportStatus(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
