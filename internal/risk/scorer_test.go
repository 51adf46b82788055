package risk

import (
	"errors"
	"testing"
	"time"

	"github.com/CoachTrace/CoachTrace/internal/common/config"
)

type fakeClassifier struct {
	label    int
	err      error
	features [3]float64
}

func (c *fakeClassifier) Predict(features [3]float64) (int, error) {
	c.features = features
	if c.err != nil {
		return 0, c.err
	}
	return c.label, nil
}

func newTestScorer(t *testing.T, clf Classifier) *Scorer {
	t.Helper()
	s, err := NewScorer(config.RiskConfig{KmNorm: 33000}, clf, nil)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return s
}

func TestNewScorerValidation(t *testing.T) {
	if _, err := NewScorer(config.RiskConfig{KmNorm: 33000}, nil, nil); err == nil {
		t.Fatalf("nil classifier should fail")
	}
	if _, err := NewScorer(config.RiskConfig{KmNorm: 0}, &fakeClassifier{}, nil); err == nil {
		t.Fatalf("zero km_norm should fail")
	}
}

func TestAssessZeroKm(t *testing.T) {
	clf := &fakeClassifier{label: 0}
	s := newTestScorer(t, clf)

	got, err := s.Assess("CH-001", nil, "", time.Now())
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if got.Tier != TierLow {
		t.Fatalf("tier = %s, want Low", got.Tier)
	}
	if got.Vibration != 0.1 || got.BrakeHealth != 100.0 {
		t.Fatalf("derived features = %v / %v, want 0.1 / 100", got.Vibration, got.BrakeHealth)
	}
	if got.DaysSince != 0 {
		t.Fatalf("days = %d, want 0", got.DaysSince)
	}
	// 零公里时振动项贡献 0.1*30，取整后总分为 3
	if got.Score != 3 {
		t.Fatalf("score = %d, want 3", got.Score)
	}
	if got.Breakdown.KmScore != 0 {
		t.Fatalf("km score = %v, want 0", got.Breakdown.KmScore)
	}
	if clf.features != [3]float64{0, 0.1, 100} {
		t.Fatalf("classifier features = %v", clf.features)
	}
}

func TestAssessAtKmNorm(t *testing.T) {
	clf := &fakeClassifier{label: 1}
	s := newTestScorer(t, clf)

	km := int64(33000)
	got, err := s.Assess("CH-002", &km, "01.01.2023", time.Date(2023, 1, 31, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if got.Tier != TierMedium {
		t.Fatalf("tier = %s, want Medium", got.Tier)
	}
	if got.Breakdown.KmScore != 40.0 {
		t.Fatalf("km score = %v, want 40", got.Breakdown.KmScore)
	}
	if got.Vibration != 0.23 || got.BrakeHealth != 86.8 {
		t.Fatalf("derived features = %v / %v", got.Vibration, got.BrakeHealth)
	}
	if got.Score != 50 {
		t.Fatalf("score = %d, want 50", got.Score)
	}
	if got.DaysSince != 30 {
		t.Fatalf("days = %d, want 30", got.DaysSince)
	}
}

func TestKmScoreSaturates(t *testing.T) {
	s := newTestScorer(t, &fakeClassifier{label: 2})

	// 超过归一化里程后 KmScore 不再增长
	b := s.ScoreBreakdown(66000, 0.36, 73.6)
	if b.KmScore != 40.0 {
		t.Fatalf("km score past norm = %v, want 40", b.KmScore)
	}

	km := int64(66000)
	got, err := s.Assess("CH-003", &km, "", time.Now())
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if got.Tier != TierHigh {
		t.Fatalf("tier = %s, want High", got.Tier)
	}
	if got.Breakdown.KmScore != 40.0 {
		t.Fatalf("km score = %v, want 40", got.Breakdown.KmScore)
	}
	if got.Score != 58 {
		t.Fatalf("score = %d, want 58", got.Score)
	}
}

func TestLinearScoreClamp(t *testing.T) {
	s := newTestScorer(t, &fakeClassifier{})

	if got := s.LinearScore(1e9, 5.0, 0); got != 100 {
		t.Fatalf("score = %d, want 100", got)
	}
	if got := s.LinearScore(0, 0, 100); got != 0 {
		t.Fatalf("score = %d, want 0", got)
	}
}

func TestAssessUnknownLabel(t *testing.T) {
	s := newTestScorer(t, &fakeClassifier{label: 7})

	_, err := s.Assess("CH-004", nil, "", time.Now())
	if !errors.Is(err, ErrUnknownLabel) {
		t.Fatalf("err = %v, want ErrUnknownLabel", err)
	}
}

func TestAssessClassifierError(t *testing.T) {
	boom := errors.New("boom")
	s := newTestScorer(t, &fakeClassifier{err: boom})

	_, err := s.Assess("CH-005", nil, "", time.Now())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped classifier error", err)
	}
}

func TestDisagrees(t *testing.T) {
	cases := []struct {
		tier  Tier
		score int
		want  bool
	}{
		{TierLow, 10, false},
		{TierLow, 80, true},
		{TierMedium, 50, false},
		{TierHigh, 67, false},
		{TierHigh, 66, true},
	}
	for _, tc := range cases {
		a := Assessment{Tier: tc.tier, Score: tc.score}
		if got := a.Disagrees(); got != tc.want {
			t.Fatalf("Disagrees(%s, %d) = %v, want %v", tc.tier, tc.score, got, tc.want)
		}
	}
}
