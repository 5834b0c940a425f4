package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coopfin/ledger-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		want int
	}{
		{services.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("loan: %w", services.ErrNotFound), http.StatusNotFound},
		{services.ErrValidation, http.StatusBadRequest},
		{services.ErrInvalidState, http.StatusBadRequest},
		{services.ErrInvalidBalance, http.StatusBadRequest},
		{services.ErrSettingsMissing, http.StatusBadRequest},
		{errors.New("database is down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		respondError(c, tt.err)

		assert.Equal(t, tt.want, w.Code, "error: %v", tt.err)
		assert.Contains(t, w.Body.String(), "error")
	}
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", NewHealthHandler().Index)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
