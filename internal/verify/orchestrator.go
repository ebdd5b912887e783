// Package verify runs avatar verification sessions: it snapshots a list,
// submits the batch to the external scoring webhook, and records the outcome
// as a durable session in queued → running → {completed|failed} order.
package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mazirhxxx/listlab/internal/avatar"
	"github.com/mazirhxxx/listlab/internal/model"
	"github.com/mazirhxxx/listlab/internal/normalize"
	"github.com/mazirhxxx/listlab/internal/resilience"
	"github.com/mazirhxxx/listlab/internal/store"
	"github.com/mazirhxxx/listlab/pkg/scoring"
)

// freeMailDomains are consumer providers that never identify a company.
var freeMailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"live.com":       true,
	"aol.com":        true,
	"icloud.com":     true,
	"me.com":         true,
	"proton.me":      true,
	"protonmail.com": true,
}

// Orchestrator drives one verification session at a time. It is the only
// writer of session records.
type Orchestrator struct {
	leads    store.LeadStore
	sessions store.SessionStore
	scoring  scoring.Client
}

// NewOrchestrator creates a verification orchestrator.
func NewOrchestrator(leads store.LeadStore, sessions store.SessionStore, sc scoring.Client) *Orchestrator {
	return &Orchestrator{leads: leads, sessions: sessions, scoring: sc}
}

// Run verifies a list against an avatar spec. The spec is validated and the
// list fetched before any session exists; an empty list returns an error
// without creating a session. After creation every failure transitions the
// session to failed with the cause recorded, so a session is never left in
// running. The returned session reflects the terminal state.
func (o *Orchestrator) Run(ctx context.Context, ownerID, listID string, spec model.AvatarSpec) (*model.CleaningSession, error) {
	if err := avatar.Validate(spec); err != nil {
		return nil, err
	}

	leads, err := o.leads.FetchLeads(ctx, listID)
	if err != nil {
		return nil, eris.Wrap(err, "verify: fetch leads")
	}
	if len(leads) == 0 {
		return nil, resilience.NewValidationError("list_id", "list has no leads to verify")
	}

	batch := buildBatchLeads(leads)
	if len(batch) == 0 {
		return nil, resilience.NewValidationError("list_id", "no lead has a resolvable id")
	}

	batchID := uuid.NewString()
	avatarID := avatarIDFromName(spec.Name)

	session, err := o.sessions.CreateSession(ctx, &model.CleaningSession{
		OwnerID:   ownerID,
		ListID:    listID,
		Avatar:    spec,
		AvatarID:  avatarID,
		BatchID:   batchID,
		BatchSize: len(batch),
		LeadCount: len(leads),
		Status:    model.SessionQueued,
	})
	if err != nil {
		return nil, eris.Wrap(err, "verify: create session")
	}

	zap.L().Info("verification session created",
		zap.String("session_id", session.ID),
		zap.String("list_id", listID),
		zap.String("batch_id", batchID),
		zap.Int("batch_size", len(batch)))

	startedAt := time.Now().UTC()
	if err := o.sessions.UpdateSession(ctx, session.ID, map[string]any{
		"status":     string(model.SessionRunning),
		"started_at": startedAt,
	}); err != nil {
		return o.fail(ctx, session, eris.Wrap(err, "verify: mark running"))
	}
	session.Status = model.SessionRunning
	session.StartedAt = &startedAt

	resp, err := o.scoring.Classify(ctx, &scoring.BatchRequest{
		Avatar:    spec,
		AvatarID:  avatarID,
		BatchID:   batchID,
		BatchSize: len(batch),
		Leads:     batch,
	})
	if err != nil {
		return o.fail(ctx, session, err)
	}
	if resp.Summary == nil {
		return o.fail(ctx, session, resilience.NewDataError("classifier response is missing the summary object"))
	}

	summary := &model.SessionSummary{
		AcceptCount:  resp.Summary.AcceptCount,
		ReviewCount:  resp.Summary.ReviewCount,
		RejectCount:  resp.Summary.RejectCount,
		AverageScore: resp.Summary.AverageScore,
	}
	completedAt := time.Now().UTC()
	if err := o.sessions.UpdateSession(ctx, session.ID, map[string]any{
		"status":       string(model.SessionCompleted),
		"completed_at": completedAt,
		"summary":      summary,
	}); err != nil {
		return o.fail(ctx, session, eris.Wrap(err, "verify: record result"))
	}
	session.Status = model.SessionCompleted
	session.CompletedAt = &completedAt
	session.Summary = summary

	zap.L().Info("verification session completed",
		zap.String("session_id", session.ID),
		zap.String("result", summary.StatusLine()))

	return session, nil
}

// fail transitions a created session to its failed terminal state. The
// original cause is returned even if recording the failure also errors.
func (o *Orchestrator) fail(ctx context.Context, session *model.CleaningSession, cause error) (*model.CleaningSession, error) {
	completedAt := time.Now().UTC()
	summary := &model.SessionSummary{Error: cause.Error()}

	if err := o.sessions.UpdateSession(ctx, session.ID, map[string]any{
		"status":       string(model.SessionFailed),
		"completed_at": completedAt,
		"summary":      summary,
	}); err != nil {
		zap.L().Error("failed to record session failure",
			zap.String("session_id", session.ID),
			zap.Error(err))
	}
	session.Status = model.SessionFailed
	session.CompletedAt = &completedAt
	session.Summary = summary

	zap.L().Warn("verification session failed",
		zap.String("session_id", session.ID),
		zap.Error(cause))

	return session, cause
}

// buildBatchLeads converts list leads into the webhook payload shape. Leads
// without an id are dropped: the classifier's verdicts could not be applied
// to them anyway.
func buildBatchLeads(leads []model.Lead) []scoring.BatchLead {
	batch := make([]scoring.BatchLead, 0, len(leads))
	for _, lead := range leads {
		if lead.ID == "" {
			continue
		}

		entry := scoring.BatchLead{
			ID:         lead.ID,
			Emails:     []string{},
			Phones:     []string{},
			FullName:   lead.Name,
			Title:      lead.Title,
			Company:    lead.Company,
			SourceSlug: lead.SourcePlatform,
			Country:    lead.Custom("country"),
			State:      lead.Custom("state"),
			City:       lead.Custom("city"),
		}

		entry.FirstName, entry.LastName = splitName(lead.Name)

		if lead.HasEmail() {
			if r := normalize.Email(lead.Email); r.Valid || r.Fixable {
				entry.Emails = append(entry.Emails, r.Clean)
				entry.CompanyDomain = companyDomain(r.Clean)
			}
		}
		if lead.HasPhone() {
			if digits := normalize.Digits(lead.Phone); digits != "" {
				entry.Phones = append(entry.Phones, digits)
			}
		}
		if strings.Contains(strings.ToLower(lead.SourceURL), "linkedin.") {
			entry.LinkedinURL = lead.SourceURL
		}

		batch = append(batch, entry)
	}
	return batch
}

// splitName separates a display name into first and last parts. A single
// token is all first name.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// companyDomain returns the email domain unless it belongs to a consumer
// mail provider.
func companyDomain(email string) string {
	domain := normalize.EmailDomain(email)
	if domain == "" || freeMailDomains[domain] {
		return ""
	}
	return domain
}

// avatarIDFromName derives a stable slug from the avatar name. Names with no
// usable characters fall back to a timestamped id.
func avatarIDFromName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fmt.Sprintf("avatar-%d", time.Now().UnixMilli())
	}
	return b.String()
}
