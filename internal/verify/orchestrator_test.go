package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazirhxxx/listlab/internal/model"
	"github.com/mazirhxxx/listlab/internal/resilience"
	"github.com/mazirhxxx/listlab/pkg/scoring"
)

type stubLeads struct {
	leads []model.Lead
	err   error
}

func (s *stubLeads) FetchLeads(_ context.Context, _ string) ([]model.Lead, error) {
	return s.leads, s.err
}

func (s *stubLeads) UpdateLead(_ context.Context, _ string, _ map[string]any) error { return nil }

func (s *stubLeads) DeleteLeads(_ context.Context, _ []string) error { return nil }

type memSessions struct {
	created   int
	session   *model.CleaningSession
	updates   []map[string]any
	updateErr error
}

func (m *memSessions) CreateSession(_ context.Context, s *model.CleaningSession) (*model.CleaningSession, error) {
	m.created++
	out := *s
	out.ID = "sess-1"
	m.session = &out
	return &out, nil
}

func (m *memSessions) UpdateSession(_ context.Context, id string, fields map[string]any) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.session == nil || m.session.ID != id {
		return resilience.NewNotFoundError("session", id)
	}
	m.updates = append(m.updates, fields)
	if status, ok := fields["status"].(string); ok {
		m.session.Status = model.SessionStatus(status)
	}
	return nil
}

func (m *memSessions) GetSession(_ context.Context, id string) (*model.CleaningSession, error) {
	if m.session == nil || m.session.ID != id {
		return nil, resilience.NewNotFoundError("session", id)
	}
	return m.session, nil
}

func (m *memSessions) ListSessions(_ context.Context, _ string, _ int) ([]model.CleaningSession, error) {
	if m.session == nil {
		return nil, nil
	}
	return []model.CleaningSession{*m.session}, nil
}

func wealthManagerSpec() model.AvatarSpec {
	return model.AvatarSpec{
		Name:         "US Wealth Managers",
		Geography:    []string{"Us"},
		Industries:   []string{"Finance"},
		RolesPrimary: []string{"Founder"},
		Thresholds:   model.DefaultThresholds(),
		Weighting:    model.DefaultWeighting(),
	}
}

func testLeads() []model.Lead {
	return []model.Lead{
		{
			ID:             "a",
			ListID:         "list-1",
			Name:           "Jane van der Berg",
			Email:          " Jane@Acme.COM ",
			Phone:          "555-123-4567",
			Company:        "Acme",
			Title:          "Founder",
			SourceURL:      "https://linkedin.com/in/jane",
			SourcePlatform: "linkedin",
			CustomFields:   map[string]string{"country": "US", "state": "NY", "city": "New York"},
		},
		{ID: "b", ListID: "list-1", Name: "Bob", Email: "bob@gmail.com"},
		{ListID: "list-1", Name: "No Id"},
	}
}

func okWebhook(t *testing.T, capture *scoring.BatchRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"summary":{"accept_count":5,"review_count":2,"reject_count":1,"average_score":0.81}}`))
	}))
}

func TestRun_CompletesAndRecordsSummary(t *testing.T) {
	var got scoring.BatchRequest
	srv := okWebhook(t, &got)
	defer srv.Close()

	sessions := &memSessions{}
	orch := NewOrchestrator(&stubLeads{leads: testLeads()}, sessions, scoring.NewClient(srv.URL))

	session, err := orch.Run(context.Background(), "owner-1", "list-1", wealthManagerSpec())
	require.NoError(t, err)

	assert.Equal(t, model.SessionCompleted, session.Status)
	assert.NotNil(t, session.StartedAt)
	assert.NotNil(t, session.CompletedAt)
	require.NotNil(t, session.Summary)
	assert.Equal(t, 5, session.Summary.AcceptCount)
	assert.Equal(t, 2, session.Summary.ReviewCount)
	assert.Equal(t, 1, session.Summary.RejectCount)
	assert.InDelta(t, 0.81, session.Summary.AverageScore, 0.001)
	assert.Equal(t, "5 ACCEPT, 2 REVIEW, 1 REJECT, avg score 0.81", session.Summary.StatusLine())

	// The lead without an id is dropped from the batch; all three count as
	// list leads.
	assert.Equal(t, 2, session.BatchSize)
	assert.Equal(t, 3, session.LeadCount)
	assert.Equal(t, "uswealthmanagers", session.AvatarID)
	assert.NotEmpty(t, session.BatchID)
}

func TestRun_PayloadShape(t *testing.T) {
	var got scoring.BatchRequest
	srv := okWebhook(t, &got)
	defer srv.Close()

	orch := NewOrchestrator(&stubLeads{leads: testLeads()}, &memSessions{}, scoring.NewClient(srv.URL))
	_, err := orch.Run(context.Background(), "owner-1", "list-1", wealthManagerSpec())
	require.NoError(t, err)

	require.Len(t, got.Leads, 2)
	assert.Equal(t, 2, got.BatchSize)
	assert.Equal(t, "uswealthmanagers", got.AvatarID)

	jane := got.Leads[0]
	assert.Equal(t, "a", jane.ID)
	assert.Equal(t, []string{"jane@acme.com"}, jane.Emails)
	assert.Equal(t, []string{"5551234567"}, jane.Phones)
	assert.Equal(t, "Jane", jane.FirstName)
	assert.Equal(t, "van der Berg", jane.LastName)
	assert.Equal(t, "acme.com", jane.CompanyDomain)
	assert.Equal(t, "https://linkedin.com/in/jane", jane.LinkedinURL)
	assert.Equal(t, "linkedin", jane.SourceSlug)
	assert.Equal(t, "US", jane.Country)
	assert.Equal(t, "NY", jane.State)
	assert.Equal(t, "New York", jane.City)

	// Consumer mail domains never become a company domain.
	bob := got.Leads[1]
	assert.Equal(t, []string{"bob@gmail.com"}, bob.Emails)
	assert.Empty(t, bob.CompanyDomain)
	assert.Empty(t, bob.Phones)
	assert.Equal(t, "Bob", bob.FirstName)
	assert.Empty(t, bob.LastName)
}

func TestRun_WebhookErrorFailsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "classifier down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sessions := &memSessions{}
	orch := NewOrchestrator(&stubLeads{leads: testLeads()}, sessions, scoring.NewClient(srv.URL))

	session, err := orch.Run(context.Background(), "owner-1", "list-1", wealthManagerSpec())
	require.Error(t, err)
	assert.True(t, resilience.IsTransport(err))

	require.NotNil(t, session)
	assert.Equal(t, model.SessionFailed, session.Status)
	assert.NotNil(t, session.CompletedAt, "failed sessions still get a completion time")
	require.NotNil(t, session.Summary)
	assert.Contains(t, session.Summary.Error, "500")
	assert.True(t, sessions.session.Status.IsTerminal(), "session must not be left running")
}

func TestRun_MissingSummaryFailsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	sessions := &memSessions{}
	orch := NewOrchestrator(&stubLeads{leads: testLeads()}, sessions, scoring.NewClient(srv.URL))

	session, err := orch.Run(context.Background(), "owner-1", "list-1", wealthManagerSpec())
	require.Error(t, err)
	assert.True(t, resilience.IsData(err))
	assert.Equal(t, model.SessionFailed, session.Status)
}

func TestRun_EmptyListCreatesNoSession(t *testing.T) {
	sessions := &memSessions{}
	orch := NewOrchestrator(&stubLeads{}, sessions, scoring.NewClient("http://unused"))

	session, err := orch.Run(context.Background(), "owner-1", "list-1", wealthManagerSpec())
	require.Error(t, err)
	assert.True(t, resilience.IsValidation(err))
	assert.Nil(t, session)
	assert.Zero(t, sessions.created)
}

func TestRun_InvalidSpecRejectedBeforeFetch(t *testing.T) {
	spec := wealthManagerSpec()
	spec.RolesPrimary = nil

	orch := NewOrchestrator(&stubLeads{err: assert.AnError}, &memSessions{}, scoring.NewClient("http://unused"))
	_, err := orch.Run(context.Background(), "owner-1", "list-1", spec)
	require.Error(t, err)
	assert.True(t, resilience.IsValidation(err), "spec validation runs before any store access")
}

func TestRun_AvatarIDFallsBackWhenNameHasNoSlug(t *testing.T) {
	var got scoring.BatchRequest
	srv := okWebhook(t, &got)
	defer srv.Close()

	spec := wealthManagerSpec()
	spec.Name = "!!!"

	sessions := &memSessions{}
	orch := NewOrchestrator(&stubLeads{leads: testLeads()}, sessions, scoring.NewClient(srv.URL))
	session, err := orch.Run(context.Background(), "owner-1", "list-1", spec)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(session.AvatarID, "avatar-"))
}
