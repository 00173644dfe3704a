package buildium

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testStart = civil.Date{Year: 2024, Month: time.January, Day: 1}
	testEnd   = civil.Date{Year: 2024, Month: time.December, Day: 31}
)

// newTestClient points a Client at server and records every backoff sleep
// instead of actually sleeping.
func newTestClient(server *httptest.Server, sleeps *[]time.Duration) *Client {
	return NewClient(ClientConfig{
		BaseURL:      server.URL,
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		HTTPClient:   server.Client(),
		Sleep: func(d time.Duration) {
			*sleeps = append(*sleeps, d)
		},
	})
}

func TestFetchAccountsSendsCredentialHeaders(t *testing.T) {
	var gotID, gotSecret string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("x-buildium-client-id")
		gotSecret = r.Header.Get("x-buildium-client-secret")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := newTestClient(server, &sleeps)

	body, err := client.FetchAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(body))
	assert.Equal(t, "test-client-id", gotID)
	assert.Equal(t, "test-client-secret", gotSecret)
	assert.Empty(t, sleeps)
}

func TestFetchTransactionsRetriesOnRateLimit(t *testing.T) {
	// Rate-limited once, then successful: completes after exactly one
	// sleep at the base delay.
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[{"Id": 1}]`))
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := newTestClient(server, &sleeps)

	body, err := client.FetchTransactions(context.Background(), 10, testStart, testEnd)
	require.NoError(t, err)
	assert.Equal(t, `[{"Id": 1}]`, string(body))
	assert.Equal(t, 2, calls)
	require.Len(t, sleeps, 1)
	assert.Equal(t, 2*time.Second, sleeps[0])
}

func TestFetchTransactionsRetryExhausted(t *testing.T) {
	// Rate-limited on every call: five requests, five sleeps with doubling
	// delays, then RetryExhaustedError.
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := newTestClient(server, &sleeps)

	_, err := client.FetchTransactions(context.Background(), 10, testStart, testEnd)
	require.Error(t, err)

	var retryErr *RetryExhaustedError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 5, retryErr.Attempts)
	assert.Equal(t, 5, calls)
	assert.Equal(t, []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
	}, sleeps)
}

func TestFetchTransactionsTransportErrorNoRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := newTestClient(server, &sleeps)

	_, err := client.FetchTransactions(context.Background(), 10, testStart, testEnd)
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusInternalServerError, transportErr.StatusCode)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeps)
}

func TestFetchTransactionsQueryParameters(t *testing.T) {
	var query map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := newTestClient(server, &sleeps)

	_, err := client.FetchTransactions(context.Background(), 42, testStart, testEnd)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01"}, query["startdate"])
	assert.Equal(t, []string{"2024-12-31"}, query["enddate"])
	assert.Equal(t, []string{"42"}, query["glaccountids"])
}

func TestFetchTransactionsInputValidation(t *testing.T) {
	var sleeps []time.Duration
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	defer server.Close()
	client := newTestClient(server, &sleeps)

	var inputErr *InputError

	_, err := client.FetchTransactions(context.Background(), 0, testStart, testEnd)
	require.ErrorAs(t, err, &inputErr)

	_, err = client.FetchTransactions(context.Background(), 10, civil.Date{}, testEnd)
	require.ErrorAs(t, err, &inputErr)

	_, err = client.FetchTransactions(context.Background(), 10, testStart, civil.Date{})
	require.ErrorAs(t, err, &inputErr)
}
