package scoring

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazirhxxx/listlab/internal/model"
	"github.com/mazirhxxx/listlab/internal/resilience"
)

func sampleRequest() *BatchRequest {
	return &BatchRequest{
		Avatar:    model.AvatarSpec{Name: "Test Avatar"},
		AvatarID:  "testavatar",
		BatchID:   "batch-1",
		BatchSize: 1,
		Leads: []BatchLead{
			{ID: "a", Emails: []string{"jane@acme.com"}, Phones: []string{"5551234567"}},
		},
	}
}

func TestClassify_PostsBatchAndParsesSummary(t *testing.T) {
	var got BatchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"summary":{"accept_count":3,"review_count":1,"reject_count":2,"average_score":0.64}}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Classify(context.Background(), sampleRequest())
	require.NoError(t, err)

	require.NotNil(t, resp.Summary)
	assert.Equal(t, 3, resp.Summary.AcceptCount)
	assert.Equal(t, 1, resp.Summary.ReviewCount)
	assert.Equal(t, 2, resp.Summary.RejectCount)
	assert.InDelta(t, 0.64, resp.Summary.AverageScore, 0.001)

	assert.Equal(t, "batch-1", got.BatchID)
	assert.Equal(t, "testavatar", got.AvatarID)
	require.Len(t, got.Leads, 1)
	assert.Equal(t, "a", got.Leads[0].ID)
}

func TestClassify_NonSuccessStatusIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "workflow not active", http.StatusConflict)
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Classify(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, resilience.IsTransport(err))
	assert.Contains(t, err.Error(), "409")
}

func TestClassify_UnreachableHostIsTransportError(t *testing.T) {
	// Reserve a port, then close it so the connection is refused.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Classify(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.True(t, resilience.IsTransport(err))
}

func TestClassify_MalformedBodyIsDataError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Classify(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.True(t, resilience.IsData(err))
}

func TestClassify_SingleAttempt(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Classify(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "classification is never retried")
}

func TestClassify_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client going away and
		// cancels the request context, letting Close return.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL).Classify(ctx, sampleRequest())
	require.Error(t, err)
}

func TestOptions(t *testing.T) {
	hc := &http.Client{}
	c := NewClient("http://example.test", WithHTTPClient(hc), WithTimeout(5*time.Second)).(*httpClient)
	assert.Same(t, hc, c.http)
	assert.Equal(t, 5*time.Second, c.http.Timeout)
}
