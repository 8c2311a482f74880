package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
}

func TestClientSendsActionAndKey(t *testing.T) {
	var gotAction, gotKey, gotService, gotCountry string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotAction = q.Get("action")
		gotKey = q.Get("api_key")
		gotService = q.Get("service")
		gotCountry = q.Get("country")
		w.Write([]byte("ACCESS_NUMBER:12345:+48600000000"))
	})

	reply, err := c.RentNumber(context.Background(), "tg", 48)
	require.NoError(t, err)
	assert.Equal(t, "getNumber", gotAction)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "tg", gotService)
	assert.Equal(t, "48", gotCountry)
	assert.Equal(t, MarkerNumber, reply.Marker)
}

func TestClientBalance(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ACCESS_BALANCE:12.50"))
	})
	amount, err := c.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("12.50")))
}

func TestClientBalanceDomainError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("BAD_KEY"))
	})
	_, err := c.Balance(context.Background())
	var derr *DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "BAD_KEY", derr.Raw)
}

func TestClientUnavailableOnHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Status(context.Background(), "12345")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestClientUnavailableOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	c := New(Config{BaseURL: srv.URL, APIKey: "k", Timeout: time.Second})

	_, err := c.Balance(context.Background())
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestClientUnavailableOnTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("STATUS_WAIT_CODE"))
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Status(ctx, "12345")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestClientSetStatusPassesCode(t *testing.T) {
	var gotID, gotStatus string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.URL.Query().Get("id")
		gotStatus = r.URL.Query().Get("status")
		w.Write([]byte("ACCESS_READY"))
	})

	reply, err := c.SetStatus(context.Background(), "12345", StatusConfirm)
	require.NoError(t, err)
	assert.Equal(t, "12345", gotID)
	assert.Equal(t, "6", gotStatus)
	assert.Equal(t, MarkerReady, reply.Marker)
}

func TestClientTopCountries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "getTopCountriesByService", r.URL.Query().Get("action"))
		assert.Equal(t, "tg", r.URL.Query().Get("service"))
		w.Write([]byte(`{"0": {"country": 48, "price": 0.21, "count": 7}}`))
	})

	got, err := c.TopCountries(context.Background(), "tg")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 48, got[0].CountryID)
}
