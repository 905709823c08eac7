package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/hostel/backend/internal/interfaces/http/dto"
	"github.com/hostel/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setJWTContext simulates the actor middleware without issuing tokens
func setJWTContext(c *gin.Context, tenantID, userID uuid.UUID) {
	c.Set(middleware.JWTTenantIDKey, tenantID.String())
	c.Set(middleware.JWTUserIDKey, userID.String())
}

func newTestContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name:       "from context",
			setup:      func(c *gin.Context) { c.Set(middleware.RequestIDKey, "ctx-request-id") },
			expectedID: "ctx-request-id",
		},
		{
			name:       "from header when context empty",
			setup:      func(c *gin.Context) { c.Request.Header.Set("X-Request-ID", "header-request-id") },
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(middleware.RequestIDKey, "ctx-id")
				c.Request.Header.Set("X-Request-ID", "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodGet, "/")
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestTenantAndActor(t *testing.T) {
	h := &BaseHandler{}

	t.Run("resolved from actor context", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/")
		tenantID, userID := uuid.New(), uuid.New()
		setJWTContext(c, tenantID, userID)

		got, ok := h.tenantOrAbort(c)
		require.True(t, ok)
		assert.Equal(t, tenantID, got)

		actor := getActorID(c)
		require.NotNil(t, actor)
		assert.Equal(t, userID, *actor)
	})

	t.Run("tenant only", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/")
		c.Set(middleware.JWTTenantIDKey, uuid.NewString())
		c.Set(middleware.JWTUserIDKey, "not-a-uuid")
		_, ok := h.tenantOrAbort(c)
		assert.True(t, ok)
		assert.Nil(t, getActorID(c))
	})

	for name, tenant := range map[string]string{"missing tenant": "", "malformed tenant": "hostel-7"} {
		t.Run(name, func(t *testing.T) {
			c, w := newTestContext(http.MethodGet, "/")
			if tenant != "" {
				c.Set(middleware.JWTTenantIDKey, tenant)
			}
			_, ok := h.tenantOrAbort(c)
			assert.False(t, ok)
			assert.Nil(t, getActorID(c))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, dto.ErrCodeUnauthorized, decodeResponse(t, w).Error.Code)
		})
	}
}

func TestUUIDParam(t *testing.T) {
	h := &BaseHandler{}

	c, _ := newTestContext(http.MethodGet, "/")
	id := uuid.New()
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	got, ok := h.uuidParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, id, got)

	c, w := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	_, ok = h.uuidParam(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, decodeResponse(t, w).Error.Code)
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext(http.MethodGet, "/")
	h.Success(c, map[string]string{"invoice_number": "INV-1"})
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)

	c, w = newTestContext(http.MethodPost, "/")
	h.Created(c, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newTestContext(http.MethodGet, "/")
	h.SuccessWithMeta(c, []string{"a", "b"}, 45, 2, 20)
	resp = decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{
			name:           "not found",
			err:            shared.NewDomainError(shared.CodeNotFound, "Invoice not found"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
			expectedMsg:    "Invoice not found",
		},
		{
			name:           "amount exceeds due",
			err:            shared.NewDomainError(shared.CodeAmountExceedsDue, "Payment exceeds the amount due"),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "AMOUNT_EXCEEDS_DUE",
			expectedMsg:    "Payment exceeds the amount due",
		},
		{
			name:           "illegal transition",
			err:            shared.NewDomainError(shared.CodeIllegalStateTransition, "Refund is not pending"),
			expectedStatus: http.StatusConflict,
			expectedCode:   "ILLEGAL_STATE_TRANSITION",
			expectedMsg:    "Refund is not pending",
		},
		{
			name:           "wrapped domain error",
			err:            fmt.Errorf("approve: %w", shared.NewDomainError(shared.CodeDependencyFailed, "Gateway unavailable")),
			expectedStatus: http.StatusBadGateway,
			expectedCode:   "DEPENDENCY_FAILED",
			expectedMsg:    "Gateway unavailable",
		},
		{
			name:           "plain error is hidden",
			err:            fmt.Errorf("pq: connection refused"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "INTERNAL",
			expectedMsg:    "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(http.MethodPost, "/")
			c.Set(middleware.RequestIDKey, "req-1")
			(&BaseHandler{}).HandleError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
			assert.Equal(t, tt.expectedMsg, resp.Error.Message)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandlerHandleErrorNil(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/")
	(&BaseHandler{}).HandleError(c, nil)
	assert.Equal(t, 0, w.Body.Len())
}
