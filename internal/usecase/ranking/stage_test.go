package ranking

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	dommatch "github.com/kailas-cloud/serendip/internal/domain/match"
	"github.com/kailas-cloud/serendip/internal/domain/opportunity"
)

func assertFallback(t *testing.T, cs []dommatch.CandidateScore, got []dommatch.RankedMatch) {
	t.Helper()
	if len(got) != len(cs) {
		t.Fatalf("expected %d entries, got %d", len(cs), len(got))
	}
	for i := range cs {
		if got[i].PersonID != cs[i].Person.ID() {
			t.Errorf("entry %d person = %s, want %s", i, got[i].PersonID, cs[i].Person.ID())
		}
		if got[i].Rank != i+1 {
			t.Errorf("entry %d rank = %d, want %d", i, got[i].Rank, i+1)
		}
		if got[i].Score != cs[i].CombinedScore {
			t.Errorf("entry %d score = %v, want %v", i, got[i].Score, cs[i].CombinedScore)
		}
	}
}

func TestStage_OracleSuccess(t *testing.T) {
	want := []dommatch.RankedMatch{
		{PersonID: "carol", Rank: 1, Score: 0.9, Explanation: "x"},
		{PersonID: "alice", Rank: 2, Score: 0.8, Explanation: "y"},
		{PersonID: "bob", Rank: 3, Score: 0.7, Explanation: "z"},
	}
	o := &mockOracle{rankFn: func(_ context.Context, _ opportunity.Opportunity, _ []dommatch.CandidateScore) ([]dommatch.RankedMatch, error) {
		return want, nil
	}}
	s := NewStage(o, time.Second, zap.NewNop())

	got := s.RankAndExplain(context.Background(), testOpportunity(), shortlist())
	if len(got) != 3 || got[0].PersonID != "carol" {
		t.Errorf("expected oracle ranking, got %+v", got)
	}
}

func TestStage_FallbackOnError(t *testing.T) {
	o := &mockOracle{rankFn: func(_ context.Context, _ opportunity.Opportunity, _ []dommatch.CandidateScore) ([]dommatch.RankedMatch, error) {
		return nil, errors.New("provider down")
	}}
	s := NewStage(o, time.Second, zap.NewNop())
	cs := shortlist()

	got := s.RankAndExplain(context.Background(), testOpportunity(), cs)
	assertFallback(t, cs, got)
	if got[0].Explanation != "Matched based on profile similarity (82% skill match)." {
		t.Errorf("unexpected explanation %q", got[0].Explanation)
	}
}

func TestStage_FallbackOnTimeout(t *testing.T) {
	o := &mockOracle{rankFn: func(ctx context.Context, _ opportunity.Opportunity, _ []dommatch.CandidateScore) ([]dommatch.RankedMatch, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	s := NewStage(o, 20*time.Millisecond, zap.NewNop())
	cs := shortlist()

	start := time.Now()
	got := s.RankAndExplain(context.Background(), testOpportunity(), cs)
	if time.Since(start) > time.Second {
		t.Error("stage did not honor its timeout")
	}
	assertFallback(t, cs, got)
}

func TestStage_LateResultDiscarded(t *testing.T) {
	release := make(chan struct{})
	o := &mockOracle{rankFn: func(_ context.Context, _ opportunity.Opportunity, cs []dommatch.CandidateScore) ([]dommatch.RankedMatch, error) {
		<-release
		return []dommatch.RankedMatch{{PersonID: "bob", Rank: 1}}, nil
	}}
	s := NewStage(o, 10*time.Millisecond, zap.NewNop())
	cs := shortlist()

	got := s.RankAndExplain(context.Background(), testOpportunity(), cs)
	close(release)
	assertFallback(t, cs, got)
}

func TestStage_FallbackOnLengthMismatch(t *testing.T) {
	o := &mockOracle{rankFn: func(_ context.Context, _ opportunity.Opportunity, _ []dommatch.CandidateScore) ([]dommatch.RankedMatch, error) {
		return []dommatch.RankedMatch{{PersonID: "alice", Rank: 1, Score: 1, Explanation: "x"}}, nil
	}}
	s := NewStage(o, time.Second, zap.NewNop())
	cs := shortlist()

	assertFallback(t, cs, s.RankAndExplain(context.Background(), testOpportunity(), cs))
}

func TestStage_NilOracle(t *testing.T) {
	s := NewStage(nil, time.Second, zap.NewNop())
	cs := shortlist()

	assertFallback(t, cs, s.RankAndExplain(context.Background(), testOpportunity(), cs))
}

func TestStage_EmptyShortlist(t *testing.T) {
	o := &mockOracle{rankFn: func(_ context.Context, _ opportunity.Opportunity, _ []dommatch.CandidateScore) ([]dommatch.RankedMatch, error) {
		t.Fatal("oracle must not be called")
		return nil, nil
	}}
	s := NewStage(o, time.Second, zap.NewNop())

	if got := s.RankAndExplain(context.Background(), testOpportunity(), nil); len(got) != 0 {
		t.Errorf("expected empty result, got %+v", got)
	}
}

func TestFallback_ScoreMayExceedOne(t *testing.T) {
	cs := []dommatch.CandidateScore{candidate("a", "A", 0.955, 0.15), candidate("b", "B", 0.125, 0)}

	got := Fallback(cs)
	if got[0].Score != cs[0].CombinedScore || got[0].Score <= 1 {
		t.Errorf("expected uncapped combined score, got %v", got[0].Score)
	}
	if got[1].Explanation != "Matched based on profile similarity (12% skill match)." {
		t.Errorf("unexpected explanation %q", got[1].Explanation)
	}
}
