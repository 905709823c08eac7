package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/hostel/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentInput struct {
	Amount   decimal.Decimal  `json:"amount" binding:"required,decimal_gt0"`
	Discount *decimal.Decimal `json:"discount" binding:"omitempty,decimal_gte0"`
	Method   string           `json:"method" binding:"required,payment_method"`
	Channel  string           `json:"channel" binding:"omitempty,channel"`
	Type     string           `json:"reminder_type" binding:"omitempty,reminder_type"`
}

func newTestValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, RegisterValidations(v))
	return v
}

func TestRegisterValidations_BillingTags(t *testing.T) {
	v := newTestValidator(t)
	zero := decimal.Zero
	negative := decimal.NewFromInt(-5)

	tests := []struct {
		name    string
		input   paymentInput
		wantTag string
	}{
		{"valid", paymentInput{Amount: decimal.RequireFromString("10.50"), Method: "upi", Channel: "email", Type: "OVERDUE"}, ""},
		{"zero discount allowed", paymentInput{Amount: decimal.NewFromInt(1), Discount: &zero, Method: "CASH"}, ""},
		{"zero amount", paymentInput{Amount: decimal.Zero, Method: "CASH"}, "decimal_gt0"},
		{"negative amount", paymentInput{Amount: decimal.NewFromInt(-1), Method: "CASH"}, "decimal_gt0"},
		{"negative discount", paymentInput{Amount: decimal.NewFromInt(1), Discount: &negative, Method: "CASH"}, "decimal_gte0"},
		{"unknown method", paymentInput{Amount: decimal.NewFromInt(1), Method: "BITCOIN"}, "payment_method"},
		{"unknown channel", paymentInput{Amount: decimal.NewFromInt(1), Method: "CASH", Channel: "PIGEON"}, "channel"},
		{"unknown reminder type", paymentInput{Amount: decimal.NewFromInt(1), Method: "CASH", Type: "GENTLE"}, "reminder_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.wantTag, verrs[0].Tag())
		})
	}
}

func TestRegisterValidations_UsesJSONFieldNames(t *testing.T) {
	v := newTestValidator(t)

	err := v.Struct(paymentInput{Amount: decimal.NewFromInt(1), Method: "nope"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "method", verrs[0].Field())
}

func TestHandleValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, SetupValidator())

	router := gin.New()
	router.Use(RequestID())
	router.POST("/payments", func(c *gin.Context) {
		var req paymentInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req.Amount.String()))
	})

	t.Run("field errors", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{"amount": "0", "method": "BARTER"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)

		fields := map[string]string{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "Must be a decimal greater than zero", fields["amount"])
		assert.Equal(t, "Unknown payment method", fields["method"])
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{"amount":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Malformed request body")
	})

	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{"amount": "250.75", "method": "card"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "250.75")
	})
}
