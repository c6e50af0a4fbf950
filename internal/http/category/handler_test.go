package category_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hometab/hometab/internal/category"
	categoryHandler "github.com/hometab/hometab/internal/http/category"
)

func TestList(t *testing.T) {
	router := chi.NewRouter()
	categoryHandler.NewHandler().Routes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Categories []category.Category `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, category.All(), body.Categories)
	assert.Equal(t, category.Other, body.Categories[len(body.Categories)-1])
}
