package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	appbilling "github.com/hostel/backend/internal/application/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptHandler_GetAndDownload(t *testing.T) {
	srv := newAPIServer(t)
	inv := srv.createInvoice(t, "4000")
	payment := srv.pay(t, inv.ID, "1500")
	txnPath := "/transactions/" + payment.Transaction.ID.String()

	w := srv.do(t, http.MethodGet, txnPath+"/receipt", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var receipt appbilling.ReceiptResponse
	decodeData(t, w, &receipt)
	assert.Regexp(t, `^RCP-`, receipt.ReceiptNumber)
	assert.Equal(t, payment.Transaction.ID, receipt.TransactionID)
	assertAmount(t, "1500", receipt.Amount)
	require.NotEmpty(t, receipt.ArtifactHandle)
	assert.True(t, receipt.Emailed)
	assert.Equal(t, 1, srv.sink.count())

	w = srv.do(t, http.MethodGet, txnPath+"/receipt/artifact", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), receipt.ReceiptNumber+".pdf")
	assert.Contains(t, w.Body.String(), receipt.ReceiptNumber)

	t.Run("missing artifact", func(t *testing.T) {
		require.NoError(t, srv.store.Delete(context.Background(), receipt.ArtifactHandle))
		w := srv.do(t, http.MethodGet, txnPath+"/receipt/artifact", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("regenerate restores the artifact", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/receipts/"+receipt.ID.String()+"/regenerate", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = srv.do(t, http.MethodGet, txnPath+"/receipt/artifact", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/transactions/"+uuid.NewString()+"/receipt", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(t, w))
	})

	t.Run("unknown receipt", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/receipts/"+uuid.NewString()+"/regenerate", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
