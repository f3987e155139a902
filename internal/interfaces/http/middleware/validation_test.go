package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jhk/storefront/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productInput struct {
	ProductID int64  `json:"product_id" binding:"required,gt=0"`
	Email     string `json:"email" binding:"required,email"`
	RUT       string `json:"rut" binding:"required,min=8"`
	Method    string `json:"metodo_pago" binding:"omitempty,oneof=webpay"`
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req productInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	t.Run("reports each field by json name", func(t *testing.T) {
		body := strings.NewReader(`{"product_id": 0, "email": "nope", "rut": "123", "metodo_pago": "cash"}`)
		req := httptest.NewRequest(http.MethodPost, "/test", body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(RequestIDHeader, "req-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-1", resp.Error.RequestID)

		messages := map[string]string{}
		for _, d := range resp.Error.Details {
			messages[d.Field] = d.Message
		}
		assert.Equal(t, map[string]string{
			"product_id":  "This field is required",
			"email":       "Invalid email format",
			"rut":         "Must be at least 8 characters",
			"metodo_pago": "Must be one of: webpay",
		}, messages)
	})

	t.Run("valid input passes", func(t *testing.T) {
		body := strings.NewReader(`{"product_id": 3, "email": "a@b.cl", "rut": "12345678-9"}`)
		req := httptest.NewRequest(http.MethodPost, "/test", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestValidationDetails_OtherErrors(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("boom")))
}
