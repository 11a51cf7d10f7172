package fulfillment

import (
	"math/rand"
	"testing"

	"incentiva-engine/services/submission"

	"github.com/stretchr/testify/require"
)

func tiered(status submission.Status, tier int) *submission.Submission {
	s := &submission.Submission{Status: status}
	if tier > 0 {
		s.ResolvedTier = &tier
	}
	return s
}

func TestAssignTier(t *testing.T) {
	cases := []struct {
		nth, required, want int
	}{
		{1, 2, 1},
		{2, 2, 1},
		{3, 2, 2},
		{4, 2, 2},
		{5, 2, 3},
		{1, 1, 1},
		{7, 1, 7},
		{10, 3, 4},
		{9, 3, 3},
		{1, 0, 1},  // degenerate required clamps to 1
		{4, -2, 4}, // negative required clamps to 1
	}
	for _, c := range cases {
		require.Equal(t, c.want, AssignTier(c.nth, c.required),
			"nth=%d required=%d", c.nth, c.required)
	}
}

func TestOpenTierAdvancesOnExactFill(t *testing.T) {
	subs := []*submission.Submission{}
	require.Equal(t, 1, OpenTier(subs, 2))

	subs = append(subs, tiered(submission.StatusValidated, 1))
	require.Equal(t, 1, OpenTier(subs, 2))

	// Second validation fills tier 1 exactly; the open tier moves on
	// immediately, tiers never reopen.
	subs = append(subs, tiered(submission.StatusValidated, 1))
	require.Equal(t, 2, OpenTier(subs, 2))

	subs = append(subs,
		tiered(submission.StatusPending, 0),
		tiered(submission.StatusRejected, 0),
	)
	require.Equal(t, 2, OpenTier(subs, 2), "non-validated submissions never advance the open tier")
}

func TestClassify(t *testing.T) {
	subs := []*submission.Submission{
		tiered(submission.StatusValidated, 1),
		tiered(submission.StatusValidated, 1),
		tiered(submission.StatusValidated, 2),
	}

	require.Equal(t, TierComplete, Classify(subs, 2, 1))
	require.Equal(t, TierActive, Classify(subs, 2, 2))
	require.Equal(t, TierLocked, Classify(subs, 2, 3), "tier 3 locked while tier 2 is unfilled")
}

func TestClassifyEmptyLedger(t *testing.T) {
	require.Equal(t, TierActive, Classify(nil, 2, 1))
	require.Equal(t, TierLocked, Classify(nil, 2, 2))
}

func TestEvaluateProgress(t *testing.T) {
	subs := []*submission.Submission{
		tiered(submission.StatusValidated, 1),
		tiered(submission.StatusPending, 0),
	}

	p := EvaluateProgress(subs, 2, 1)
	require.Equal(t, 1, p.Count)
	require.Equal(t, 2, p.Required)
	require.Equal(t, TierActive, p.Status)
}

// Five submissions against a quantity-2 objective where the third never
// settles: the four validated ones hold tiers 1,1,2,2 and the straggler
// displays under the open tier 3.
func TestDisplayedUnderTierSpillover(t *testing.T) {
	first := tiered(submission.StatusValidated, 1)
	second := tiered(submission.StatusValidated, 1)
	third := tiered(submission.StatusPending, 0)
	fourth := tiered(submission.StatusValidated, 2)
	fifth := tiered(submission.StatusValidated, 2)

	subs := []*submission.Submission{first, second, third, fourth, fifth}

	require.Equal(t, []*submission.Submission{first, second}, DisplayedUnderTier(subs, 2, 1))
	require.Equal(t, []*submission.Submission{fourth, fifth}, DisplayedUnderTier(subs, 2, 2))
	require.Equal(t, []*submission.Submission{third}, DisplayedUnderTier(subs, 2, 3))
	require.Empty(t, DisplayedUnderTier(subs, 2, 4))
}

func TestDisplayedUnderTierSettledWithoutTierIsHidden(t *testing.T) {
	rejected := tiered(submission.StatusRejected, 0)
	conflict := tiered(submission.StatusManualConflict, 0)
	subs := []*submission.Submission{rejected, conflict}

	// Unsettled-looking rows (no resolved tier) show only on the open tier.
	require.Equal(t, subs, DisplayedUnderTier(subs, 3, 1))
	require.Empty(t, DisplayedUnderTier(subs, 3, 2))
}

// Whatever order validations arrive in, tiers fill strictly in sequence: every
// tier below the last assigned one holds exactly the required count.
func TestSequentialFillProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		required := 1 + rng.Intn(4)
		total := 1 + rng.Intn(20)

		subs := make([]*submission.Submission, 0, total)
		for n := 1; n <= total; n++ {
			nth := TotalValidated(subs) + 1
			tier := AssignTier(nth, required)
			require.Equal(t, n, nth)
			subs = append(subs, tiered(submission.StatusValidated, tier))
		}

		last := AssignTier(total, required)
		for tier := 1; tier < last; tier++ {
			require.Equal(t, required, ValidatedInTier(subs, tier),
				"required=%d total=%d tier=%d", required, total, tier)
		}
		inLast := ValidatedInTier(subs, last)
		require.Greater(t, inLast, 0)
		require.LessOrEqual(t, inLast, required)
	}
}
