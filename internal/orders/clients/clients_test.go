package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamhossain-git/e-commerce/internal/session"
)

func TestCartClientGetCart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/cart", r.URL.Path)
		assert.Equal(t, "S1", r.Header.Get(session.Header))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"product_id":42,"quantity":2},{"product_id":7,"quantity":1}]`))
	}))
	defer srv.Close()

	c := NewCartClient(srv.URL, time.Second)
	lines, err := c.GetCart(context.Background(), "S1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(42), lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestCartClientGetCart_SessionRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"session ID required","code":"session_required"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewCartClient(srv.URL, time.Second)
	_, err := c.GetCart(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionMissing)
}

func TestCartClientGetCart_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewCartClient(srv.URL, time.Second)
	_, err := c.GetCart(context.Background(), "S1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionMissing)
}

func TestCartClientClearCart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "S1", r.Header.Get(session.Header))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items_removed":3}`))
	}))
	defer srv.Close()

	c := NewCartClient(srv.URL, time.Second)
	removed, err := c.ClearCart(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
}

func TestCartClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewCartClient(srv.URL, 50*time.Millisecond)
	_, err := c.GetCart(context.Background(), "S1")
	assert.Error(t, err)
}

func TestCatalogClientGetProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":42,"name":"Keyboard","price":10.5,"stock_quantity":12}`))
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL, time.Second)
	p, err := c.GetProduct(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.ID)
	assert.Equal(t, "Keyboard", p.Name)
	assert.Equal(t, 10.5, p.Price)
	assert.True(t, p.Available)
}

func TestCatalogClientGetProduct_OutOfStock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":42,"name":"Keyboard","price":10.5,"stock_quantity":0}`))
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL, time.Second)
	p, err := c.GetProduct(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, p.Available)
}

func TestCatalogClientGetProduct_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"product not found","code":"product_not_found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewCatalogClient(srv.URL, time.Second)
	_, err := c.GetProduct(context.Background(), 999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
