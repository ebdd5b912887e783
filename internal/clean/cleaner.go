// Package clean applies remediation steps to a list using a prior analysis
// as its plan: format fixes, duplicate removal, empty-record removal, and
// name standardization.
package clean

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mazirhxxx/listlab/internal/model"
	"github.com/mazirhxxx/listlab/internal/normalize"
	"github.com/mazirhxxx/listlab/internal/resilience"
	"github.com/mazirhxxx/listlab/internal/store"
)

// FallbackName replaces names that stay empty after standardization.
const FallbackName = "Unknown Contact"

// Options selects which remediation steps run. Steps always execute in the
// fixed order fix phones → remove dup phones → remove dup emails → fix
// emails → remove empty → standardize names.
type Options struct {
	FixPhoneFormats       bool `json:"fix_phone_formats"`
	RemoveDuplicatePhones bool `json:"remove_duplicate_phones"`
	RemoveDuplicateEmails bool `json:"remove_duplicate_emails"`
	FixEmailFormats       bool `json:"fix_email_formats"`
	RemoveEmptyLeads      bool `json:"remove_empty_leads"`
	StandardizeNames      bool `json:"standardize_names"`
}

// All returns options with every step enabled.
func All() Options {
	return Options{
		FixPhoneFormats:       true,
		RemoveDuplicatePhones: true,
		RemoveDuplicateEmails: true,
		FixEmailFormats:       true,
		RemoveEmptyLeads:      true,
		StandardizeNames:      true,
	}
}

// Progress reports one unit of work inside a step. This is an observability
// contract for progress UIs, not a correctness one.
type Progress struct {
	Step      string
	Completed int
	Total     int
	Action    string
}

// ProgressFunc receives progress events. May be nil.
type ProgressFunc func(Progress)

// Result summarizes a completed cleaning run.
type Result struct {
	PhonesFixed       int `json:"phones_fixed"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	EmailsFixed       int `json:"emails_fixed"`
	EmptyRemoved      int `json:"empty_removed"`
	NamesStandardized int `json:"names_standardized"`
}

// Cleaner executes remediation runs against a lead store.
type Cleaner struct {
	leads   store.LeadStore
	limiter *rate.Limiter
}

// New creates a Cleaner. limiter may be nil for unthrottled mutation.
func New(leads store.LeadStore, limiter *rate.Limiter) *Cleaner {
	return &Cleaner{leads: leads, limiter: limiter}
}

// Run executes the selected steps sequentially. Each step commits before
// the next begins; later steps depend on the store reflecting earlier ones.
// Individual "not found" mutations are tolerated as no-ops, since a
// concurrent client may have deleted a lead between analysis and cleaning.
// Any other mutation failure aborts the run; completed steps are not rolled
// back (at-least-once, not atomic).
func (c *Cleaner) Run(ctx context.Context, analysis *model.CleaningAnalysis, opts Options, progress ProgressFunc) (*Result, error) {
	if analysis == nil {
		return nil, eris.New("clean: analysis is required")
	}
	if progress == nil {
		progress = func(Progress) {}
	}

	log := zap.L().With(zap.String("list_id", analysis.ListID))
	log.Info("clean: starting run")

	result := &Result{}

	if opts.FixPhoneFormats {
		if err := c.fixPhoneFormats(ctx, analysis, result, progress); err != nil {
			return result, err
		}
	}
	if opts.RemoveDuplicatePhones {
		if err := c.removeDuplicates(ctx, analysis, model.FieldPhone, "Removing duplicate phones", result, progress); err != nil {
			return result, err
		}
	}
	if opts.RemoveDuplicateEmails {
		if err := c.removeDuplicates(ctx, analysis, model.FieldEmail, "Removing duplicate emails", result, progress); err != nil {
			return result, err
		}
	}
	if opts.FixEmailFormats {
		if err := c.fixEmailFormats(ctx, analysis, result, progress); err != nil {
			return result, err
		}
	}
	if opts.RemoveEmptyLeads {
		if err := c.removeEmptyLeads(ctx, analysis.ListID, result, progress); err != nil {
			return result, err
		}
	}
	if opts.StandardizeNames {
		if err := c.standardizeNames(ctx, analysis.ListID, result, progress); err != nil {
			return result, err
		}
	}

	log.Info("clean: run complete",
		zap.Int("phones_fixed", result.PhonesFixed),
		zap.Int("duplicates_removed", result.DuplicatesRemoved),
		zap.Int("emails_fixed", result.EmailsFixed),
		zap.Int("empty_removed", result.EmptyRemoved),
		zap.Int("names_standardized", result.NamesStandardized),
	)
	return result, nil
}

func (c *Cleaner) fixPhoneFormats(ctx context.Context, analysis *model.CleaningAnalysis, result *Result, progress ProgressFunc) error {
	const step = "Fixing phone formats"
	issues := analysis.PhoneIssues

	for i, issue := range issues {
		if err := c.updateLead(ctx, issue.LeadID, map[string]any{"phone": issue.SuggestedFix}); err != nil {
			return eris.Wrapf(err, "clean: fix phone for lead %s", issue.LeadID)
		}
		result.PhonesFixed++
		progress(Progress{
			Step:      step,
			Completed: i + 1,
			Total:     len(issues),
			Action:    fmt.Sprintf("Fixed %s -> %s", issue.CurrentValue, issue.SuggestedFix),
		})
	}
	return nil
}

func (c *Cleaner) removeDuplicates(ctx context.Context, analysis *model.CleaningAnalysis, field model.FieldKind, step string, result *Result, progress ProgressFunc) error {
	var groups []model.DuplicateGroup
	for _, g := range analysis.DuplicateGroups {
		if g.Field == field {
			groups = append(groups, g)
		}
	}

	for i, group := range groups {
		if len(group.MemberIDs) < 2 {
			continue
		}
		// The first member is always retained.
		doomed := group.MemberIDs[1:]
		if err := c.deleteLeads(ctx, doomed); err != nil {
			return eris.Wrapf(err, "clean: remove %s duplicates for %s", field, group.CanonicalValue)
		}
		result.DuplicatesRemoved += len(doomed)
		progress(Progress{
			Step:      step,
			Completed: i + 1,
			Total:     len(groups),
			Action:    fmt.Sprintf("Removed %d duplicates of %s", len(doomed), group.CanonicalValue),
		})
	}
	return nil
}

func (c *Cleaner) fixEmailFormats(ctx context.Context, analysis *model.CleaningAnalysis, result *Result, progress ProgressFunc) error {
	const step = "Fixing email formats"
	issues := analysis.EmailIssues

	for i, issue := range issues {
		if err := c.updateLead(ctx, issue.LeadID, map[string]any{"email": issue.SuggestedFix}); err != nil {
			return eris.Wrapf(err, "clean: fix email for lead %s", issue.LeadID)
		}
		result.EmailsFixed++
		progress(Progress{
			Step:      step,
			Completed: i + 1,
			Total:     len(issues),
			Action:    fmt.Sprintf("Fixed %s -> %s", issue.CurrentValue, issue.SuggestedFix),
		})
	}
	return nil
}

// removeEmptyLeads deletes leads with neither phone nor email. It re-fetches
// the list because earlier steps may have changed it.
func (c *Cleaner) removeEmptyLeads(ctx context.Context, listID string, result *Result, progress ProgressFunc) error {
	const step = "Removing empty leads"

	leads, err := c.leads.FetchLeads(ctx, listID)
	if err != nil {
		return eris.Wrap(err, "clean: refetch leads for empty removal")
	}

	var empty []string
	for _, lead := range leads {
		// A lead missing only one of the two is retained.
		if !lead.HasPhone() && !lead.HasEmail() {
			empty = append(empty, lead.ID)
		}
	}

	for i, id := range empty {
		if err := c.deleteLeads(ctx, []string{id}); err != nil {
			return eris.Wrapf(err, "clean: remove empty lead %s", id)
		}
		result.EmptyRemoved++
		progress(Progress{
			Step:      step,
			Completed: i + 1,
			Total:     len(empty),
			Action:    "Removed lead " + id,
		})
	}
	return nil
}

// standardizeNames rewrites placeholder names. It re-fetches the list so it
// never renames records earlier steps deleted.
func (c *Cleaner) standardizeNames(ctx context.Context, listID string, result *Result, progress ProgressFunc) error {
	const step = "Standardizing names"

	leads, err := c.leads.FetchLeads(ctx, listID)
	if err != nil {
		return eris.Wrap(err, "clean: refetch leads for name standardization")
	}

	var candidates []model.Lead
	for _, lead := range leads {
		if normalize.IsPlaceholderName(lead.Name) {
			candidates = append(candidates, lead)
		}
	}

	for i, lead := range candidates {
		// The refetched value may have gained a real name since analysis;
		// title-case it, or fall back when nothing usable remains.
		newName := normalize.TitleCase(lead.Name)
		if normalize.IsPlaceholderName(newName) {
			newName = FallbackName
		}
		if err := c.updateLead(ctx, lead.ID, map[string]any{"name": newName}); err != nil {
			return eris.Wrapf(err, "clean: standardize name for lead %s", lead.ID)
		}
		result.NamesStandardized++
		progress(Progress{
			Step:      step,
			Completed: i + 1,
			Total:     len(candidates),
			Action:    fmt.Sprintf("Renamed %q -> %q", lead.Name, newName),
		})
	}
	return nil
}

// updateLead applies one mutation, tolerating a concurrently deleted lead.
func (c *Cleaner) updateLead(ctx context.Context, id string, fields map[string]any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	err := c.leads.UpdateLead(ctx, id, fields)
	if resilience.IsNotFound(err) {
		zap.L().Debug("clean: lead vanished mid-run, skipping", zap.String("lead_id", id))
		return nil
	}
	return err
}

func (c *Cleaner) deleteLeads(ctx context.Context, ids []string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	err := c.leads.DeleteLeads(ctx, ids)
	if resilience.IsNotFound(err) {
		return nil
	}
	return err
}

func (c *Cleaner) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}
