package fulfillment

import "incentiva-engine/services/submission"

// TierStatus is the derived per-(vendor, objective key, tier) state. There is
// no transition operation; status is recomputed from the ledger on every read.
type TierStatus string

const (
	TierLocked   TierStatus = "LOCKED"
	TierActive   TierStatus = "ACTIVE"
	TierComplete TierStatus = "COMPLETE"
)

// Progress is the completion picture of one objective instance.
type Progress struct {
	Count    int        `json:"count"`
	Required int        `json:"required"`
	Status   TierStatus `json:"status"`
}

// clampRequired guards the tier arithmetic against a zero or negative
// required quantity. Definitions are validated upstream; this is the
// division-by-zero guard for data that slipped past it.
func clampRequired(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// TotalValidated counts VALIDATED submissions across all tiers, ignoring
// resolvedTier. This is the running total the spillover arithmetic is built
// on.
func TotalValidated(subs []*submission.Submission) int {
	n := 0
	for _, s := range subs {
		if s.Status.Counted() {
			n++
		}
	}
	return n
}

// CompletedTiers is how many tiers the validated total has fully filled.
func CompletedTiers(subs []*submission.Submission, required int) int {
	return TotalValidated(subs) / clampRequired(required)
}

// OpenTier is the tier currently absorbing not-yet-settled submissions. When
// the validated total is an exact multiple of required, the open tier is the
// next one: tiers close when filled and never reopen. The result can exceed
// the number of tiers the campaign defines; consumers hide submissions that
// spill past the last definition.
func OpenTier(subs []*submission.Submission, required int) int {
	return CompletedTiers(subs, required) + 1
}

// AssignTier places the nth validated submission (1-indexed) into its
// permanent tier: ceil(n / required).
func AssignTier(nth, required int) int {
	required = clampRequired(required)
	if nth < 1 {
		nth = 1
	}
	return (nth + required - 1) / required
}

// ValidatedInTier counts VALIDATED submissions credited to one tier.
func ValidatedInTier(subs []*submission.Submission, tier int) int {
	n := 0
	for _, s := range subs {
		if s.Status.Counted() && s.ResolvedTier != nil && *s.ResolvedTier == tier {
			n++
		}
	}
	return n
}

// Classify derives the tier state for one objective key. LOCKED while any
// earlier tier is unfilled, COMPLETE once the tier holds its required count,
// ACTIVE in between.
func Classify(subs []*submission.Submission, required, tier int) TierStatus {
	required = clampRequired(required)

	if ValidatedInTier(subs, tier) >= required {
		return TierComplete
	}
	for t := 1; t < tier; t++ {
		if ValidatedInTier(subs, t) < required {
			return TierLocked
		}
	}
	return TierActive
}

// EvaluateProgress is the Classify + count pair most read paths need.
func EvaluateProgress(subs []*submission.Submission, required, tier int) Progress {
	return Progress{
		Count:    ValidatedInTier(subs, tier),
		Required: clampRequired(required),
		Status:   Classify(subs, required, tier),
	}
}

// DisplayedUnderTier selects the submissions a vendor sees inside one tier:
// the VALIDATED ones credited there, plus the unsettled ones (PENDING,
// REJECTED, MANUAL_CONFLICT with no resolved tier) on the currently open
// tier only. Input order is preserved.
func DisplayedUnderTier(subs []*submission.Submission, required, tier int) []*submission.Submission {
	open := OpenTier(subs, required)

	out := make([]*submission.Submission, 0, len(subs))
	for _, s := range subs {
		switch {
		case s.Status.Counted():
			if s.ResolvedTier != nil && *s.ResolvedTier == tier {
				out = append(out, s)
			}
		case s.ResolvedTier == nil && tier == open:
			out = append(out, s)
		}
	}
	return out
}
