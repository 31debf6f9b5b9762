package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms-platform/business-rules-service/pkg/errors"
	"github.com/wms-platform/business-rules-service/pkg/logging"
)

type testBox struct {
	Width float64 `json:"width" binding:"gt=0"`
}

type testRequest struct {
	Currency   string    `json:"currency" binding:"required,currency_code"`
	MemberCode *string   `json:"memberCode"`
	Boxes      []testBox `json:"boxes" binding:"dive"`
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	Setup(router, DefaultConfig("business-rules-service", slog.New(slog.NewJSONHandler(io.Discard, nil))))
	return router
}

func TestSetup_RequestAndCorrelationIDs(t *testing.T) {
	router := newTestRouter()

	var ctxRequestID any
	router.GET("/ping", func(c *gin.Context) {
		ctxRequestID = c.Request.Context().Value(logging.RequestIDKey)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
	assert.NotEmpty(t, rec.Header().Get(HeaderCorrelationID))
	assert.Equal(t, "req-123", ctxRequestID)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{name: "AnyOrigin", origin: "http://ops.example", wantOrigin: "*", wantStatus: http.StatusNoContent},
		{name: "ListedOrigin", origins: []string{"http://ops.example"}, origin: "http://ops.example", wantOrigin: "http://ops.example", wantStatus: http.StatusNoContent},
		{name: "UnlistedOrigin", origins: []string{"http://ops.example"}, origin: "http://evil.example", wantOrigin: "", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			router := gin.New()
			router.Use(CORS(tt.origins))
			router.POST("/rules", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodOptions, "/rules", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFields []string
	}{
		{
			name:       "Valid body",
			body:       `{"currency":"thb","memberCode":"   ","boxes":[{"width":10}]}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "Missing currency",
			body:       `{"boxes":[]}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"currency"},
		},
		{
			name:       "Nested box error uses JSON path",
			body:       `{"currency":"THB","boxes":[{"width":1},{"width":-1}]}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"boxes[1].width"},
		},
		{
			name:       "Bad currency code",
			body:       `{"currency":"BAHT"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"currency"},
		},
		{
			name:       "Malformed JSON",
			body:       `{"currency":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	router := newTestRouter()
	router.POST("/bind", func(c *gin.Context) {
		var req testRequest
		if appErr := BindAndValidate(c, &req); appErr != nil {
			NewErrorResponder(c, nil).RespondWithAppError(appErr)
			return
		}
		c.Status(http.StatusOK)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if len(tt.wantFields) == 0 {
				return
			}

			var resp APIErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, errors.CodeValidationError, resp.Code)
			for _, field := range tt.wantFields {
				assert.Contains(t, resp.Details, field)
			}
		})
	}
}

func TestContentType_RejectsNonJSON(t *testing.T) {
	router := newTestRouter()
	router.POST("/bind", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString("width=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.CodeInvalidContentType)
}

func TestErrorHandler_MapsAttachedErrors(t *testing.T) {
	router := newTestRouter()
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.ErrNotFoundWithID("order", "ORD-404"))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, errors.CodeNotFound, resp.Code)
	assert.Equal(t, "ORD-404", resp.Details["id"])
	assert.Equal(t, "/fail", resp.Path)
	assert.NotEmpty(t, resp.RequestID)
}

func TestRecovery(t *testing.T) {
	router := newTestRouter()
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.CodeInternalError)
}

func TestNoRouteAndNoMethod(t *testing.T) {
	router := newTestRouter()
	router.GET("/only-get", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.CodeRouteNotFound)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/only-get", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.CodeMethodNotAllowed)
}

func TestValidateVar(t *testing.T) {
	InitValidator()

	assert.Nil(t, ValidateVar("orderId", "ORD-001", "order_ref"))

	appErr := ValidateVar("orderId", "ORD 001!", "order_ref")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeValidationError, appErr.Code)
	assert.Contains(t, appErr.Details, "orderId")
}
