// Package analyze scans a list's leads for duplicates, malformed contact
// fields, and missing data, and summarizes the result as a CleaningAnalysis.
package analyze

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mazirhxxx/listlab/internal/model"
	"github.com/mazirhxxx/listlab/internal/normalize"
	"github.com/mazirhxxx/listlab/internal/store"
)

// issueAxes is the number of independent issue axes per lead used by the
// quality score: duplicate/invalid/missing, for phone and email each.
const issueAxes = 6

// Analyzer builds cleaning analyses from a lead store.
type Analyzer struct {
	leads store.LeadStore
}

// New creates an Analyzer.
func New(leads store.LeadStore) *Analyzer {
	return &Analyzer{leads: leads}
}

// Analyze fetches every lead of the list and produces a fresh analysis in a
// single pass. Duplicate detection needs global visibility, so a fetch
// failure fails the whole analysis; no partial result is returned.
func (a *Analyzer) Analyze(ctx context.Context, listID string) (*model.CleaningAnalysis, error) {
	log := zap.L().With(zap.String("list_id", listID))

	leads, err := a.leads.FetchLeads(ctx, listID)
	if err != nil {
		return nil, eris.Wrapf(err, "analyze: fetch leads for list %s", listID)
	}

	analysis := Scan(listID, leads)

	log.Info("analyze: complete",
		zap.Int("total_leads", analysis.TotalLeads),
		zap.Int("duplicate_phones", analysis.DuplicatePhones),
		zap.Int("duplicate_emails", analysis.DuplicateEmails),
		zap.Int("invalid_phones", analysis.InvalidPhones),
		zap.Int("invalid_emails", analysis.InvalidEmails),
		zap.Int("quality_score", analysis.QualityScore),
	)
	return analysis, nil
}

// Scan runs the single-pass analysis over an in-memory snapshot of leads.
func Scan(listID string, leads []model.Lead) *model.CleaningAnalysis {
	analysis := &model.CleaningAnalysis{
		ListID:     listID,
		TotalLeads: len(leads),
	}

	// Dedup maps hold member ids in discovery order.
	phonesByKey := make(map[string][]string)
	emailsByKey := make(map[string][]string)
	var phoneKeyOrder, emailKeyOrder []string

	for _, lead := range leads {
		if normalize.IsPlaceholderName(lead.Name) {
			analysis.MissingNames++
		}
		if lead.Company == "" {
			analysis.MissingCompanies++
		}

		if !lead.HasPhone() {
			analysis.MissingPhones++
		} else {
			r := normalize.Phone(lead.Phone)
			// Dedup on digits so formatting variants of the same number
			// match; values with no digits at all never form groups.
			key := normalize.Digits(lead.Phone)
			if key != "" {
				if _, seen := phonesByKey[key]; !seen {
					phoneKeyOrder = append(phoneKeyOrder, key)
				}
				phonesByKey[key] = append(phonesByKey[key], lead.ID)
			}
			if !r.Valid {
				analysis.InvalidPhones++
				// Issue records exist to be applied; values with no
				// re-validating fix are counted but not listed.
				if r.SuggestedFix != "" {
					analysis.PhoneIssues = append(analysis.PhoneIssues, model.IssueRecord{
						LeadID:       lead.ID,
						Field:        model.FieldPhone,
						CurrentValue: lead.Phone,
						Kind:         model.IssueInvalidFormat,
						SuggestedFix: r.SuggestedFix,
					})
				}
			}
		}

		if !lead.HasEmail() {
			analysis.MissingEmails++
		} else {
			r := normalize.Email(lead.Email)
			if _, seen := emailsByKey[r.Clean]; !seen {
				emailKeyOrder = append(emailKeyOrder, r.Clean)
			}
			emailsByKey[r.Clean] = append(emailsByKey[r.Clean], lead.ID)
			if !r.Valid {
				analysis.InvalidEmails++
				// Only canonical forms that re-validate are offered as
				// fixes; garbage has no deterministic repair.
				if r.Fixable {
					analysis.EmailIssues = append(analysis.EmailIssues, model.IssueRecord{
						LeadID:       lead.ID,
						Field:        model.FieldEmail,
						CurrentValue: lead.Email,
						Kind:         model.IssueInvalidFormat,
						SuggestedFix: r.Clean,
					})
				}
			}
		}
	}

	// A group of size n has n-1 removable duplicates: the first member is
	// always retained.
	for _, key := range phoneKeyOrder {
		members := phonesByKey[key]
		if len(members) < 2 {
			continue
		}
		analysis.DuplicatePhones += len(members) - 1
		analysis.DuplicateGroups = append(analysis.DuplicateGroups, model.DuplicateGroup{
			Field:          model.FieldPhone,
			CanonicalValue: key,
			MemberIDs:      members,
		})
	}
	for _, key := range emailKeyOrder {
		members := emailsByKey[key]
		if len(members) < 2 {
			continue
		}
		analysis.DuplicateEmails += len(members) - 1
		analysis.DuplicateGroups = append(analysis.DuplicateGroups, model.DuplicateGroup{
			Field:          model.FieldEmail,
			CanonicalValue: key,
			MemberIDs:      members,
		})
	}

	analysis.QualityScore = qualityScore(analysis)
	return analysis
}

// qualityScore summarizes the analysis as a 0-100 heuristic over six issue
// axes per lead. Zero leads yields 0, never a division error.
func qualityScore(a *model.CleaningAnalysis) int {
	if a.TotalLeads == 0 {
		return 0
	}

	totalIssues := a.DuplicatePhones + a.DuplicateEmails +
		a.InvalidPhones + a.InvalidEmails +
		a.MissingPhones + a.MissingEmails
	maxPossible := a.TotalLeads * issueAxes

	score := float64(maxPossible-totalIssues) / float64(maxPossible) * 100
	score = math.Max(0, math.Min(100, score))
	return int(math.Round(score))
}
