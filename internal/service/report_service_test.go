package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"decihire/internal/model"
)

func resultAt(id string, score float64, minutes int) *model.Result {
	return &model.Result{
		SessionID:   id,
		CandidateID: "cand-" + id,
		Profile:     "backend",
		TotalScore:  score,
		Subscores: map[model.Category]model.CategoryScore{
			model.CategoryTechnical: {Earned: score, Possible: 100, Percent: score},
		},
		SubmittedAt: fixedNow.Add(time.Duration(minutes) * time.Minute),
	}
}

func TestSaveThenQueryReturnsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(model.PolicyAllowPartial)

	r := resultAt("s1", 82.5, 0)
	if err := f.reports.Save(ctx, r); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := f.reports.Save(ctx, r); err != nil {
		t.Fatalf("second Save returned error: %v", err)
	}

	minScore := 80.0
	got, err := f.reports.Query(ctx, model.ResultFilter{MinScore: &minScore, Category: model.CategoryTechnical})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(got) != 1 || got[0].SessionID != "s1" || got[0].TotalScore != 82.5 {
		t.Fatalf("query = %+v, want exactly s1", got)
	}
}

func TestQueryMinScoreOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(model.PolicyAllowPartial)
	for _, r := range []*model.Result{resultAt("a", 80, 0), resultAt("b", 60, 1), resultAt("c", 90, 2)} {
		if err := f.reports.Save(ctx, r); err != nil {
			t.Fatalf("Save(%s): %v", r.SessionID, err)
		}
	}

	minScore := 70.0
	got, err := f.reports.Query(ctx, model.ResultFilter{MinScore: &minScore})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(got) != 2 || got[0].TotalScore != 90 || got[1].TotalScore != 80 {
		t.Fatalf("query scores = %v, want [90 80]", scoresOf(got))
	}
}

func TestQueryFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(model.PolicyAllowPartial)
	for _, r := range []*model.Result{resultAt("a", 80, 0), resultAt("b", 60, 10), resultAt("c", 90, 20)} {
		f.reports.Save(ctx, r)
	}

	cases := []struct {
		name   string
		filter model.ResultFilter
		want   []string
	}{
		{"all", model.ResultFilter{}, []string{"c", "a", "b"}},
		{"from inclusive", model.ResultFilter{From: fixedNow.Add(10 * time.Minute)}, []string{"c", "b"}},
		{"to exclusive", model.ResultFilter{To: fixedNow.Add(10 * time.Minute)}, []string{"a"}},
		{"missing category", model.ResultFilter{Category: model.CategoryEthical}, nil},
		{"other profile", model.ResultFilter{Profile: "frontend"}, nil},
		{"limit", model.ResultFilter{Limit: 1}, []string{"c"}},
	}
	for _, c := range cases {
		got, err := f.reports.Query(ctx, c.filter)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if len(got) != len(c.want) {
			t.Fatalf("%s: got %d results, want %v", c.name, len(got), c.want)
		}
		for i, id := range c.want {
			if got[i].SessionID != id {
				t.Fatalf("%s: position %d = %s, want %s", c.name, i, got[i].SessionID, id)
			}
		}
	}
}

func TestSaveRetriesStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(model.PolicyAllowPartial)

	f.results.fail("upsert", 2)
	if err := f.reports.Save(ctx, resultAt("s1", 70, 0)); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if f.results.upserts != 1 {
		t.Fatalf("upserts = %d, want 1", f.results.upserts)
	}

	f.results.fail("upsert", 3)
	err := f.reports.Save(ctx, resultAt("s2", 70, 0))
	var unavailable *model.StoreUnavailableError
	if !errors.As(err, &unavailable) || !errors.Is(err, errConnReset) {
		t.Fatalf("got %v, want StoreUnavailableError wrapping the cause", err)
	}
}

func TestGetMissingResult(t *testing.T) {
	f := newFixture(model.PolicyAllowPartial)
	if _, err := f.reports.Get(context.Background(), "nope"); !errors.Is(err, model.ErrResultNotFound) {
		t.Fatalf("got %v, want ErrResultNotFound", err)
	}
}

func TestRescoreUsesCurrentRubric(t *testing.T) {
	ctx := context.Background()
	f := newFixture(model.PolicyAllowPartial)
	s := startSession(t, f, "ada@example.com")
	f.recorder.RecordAnswer(ctx, s.ID, "t1", "b", 40000)
	f.recorder.RecordAnswer(ctx, s.ID, "e1", "y", 40000)
	if _, r, _ := f.recorder.Submit(ctx, s.ID); r.TotalScore != 20 {
		t.Fatalf("initial total = %.2f, want 20", r.TotalScore)
	}

	f.reports.scoring.Rubric = model.Rubric{model.GradeBest: 1, model.GradeAcceptable: 0.75}
	f.reports.now = func() time.Time { return fixedNow.Add(time.Hour) }

	r, err := f.reports.Rescore(ctx, s.ID)
	if err != nil {
		t.Fatalf("Rescore returned error: %v", err)
	}
	if r.TotalScore != 30 {
		t.Fatalf("rescored total = %.2f, want 30", r.TotalScore)
	}
	if !r.SubmittedAt.Equal(fixedNow) || !r.ComputedAt.Equal(fixedNow.Add(time.Hour)) {
		t.Fatalf("timestamps submitted=%v computed=%v", r.SubmittedAt, r.ComputedAt)
	}
	stored, _ := f.reports.Get(ctx, s.ID)
	if stored.TotalScore != 30 {
		t.Fatalf("stored total = %.2f, want 30", stored.TotalScore)
	}
}

func TestRescoreOpenSession(t *testing.T) {
	f := newFixture(model.PolicyAllowPartial)
	s := startSession(t, f, "ada@example.com")
	if _, err := f.reports.Rescore(context.Background(), s.ID); !errors.Is(err, model.ErrSessionOpen) {
		t.Fatalf("got %v, want ErrSessionOpen", err)
	}
}

func TestLeaderboardTracksSaves(t *testing.T) {
	ctx := context.Background()
	f := newFixture(model.PolicyAllowPartial)
	f.reports.Save(ctx, resultAt("a", 50, 0))
	f.reports.Save(ctx, resultAt("b", 95, 0))
	f.reports.Save(ctx, resultAt("a", 99, 0))

	top, err := f.reports.Leaderboard(ctx, "backend", 5)
	if err != nil {
		t.Fatalf("Leaderboard returned error: %v", err)
	}
	if len(top) != 2 || top[0].SessionID != "a" || top[0].Score != 99 || top[1].Rank != 2 {
		t.Fatalf("leaderboard = %+v", top)
	}
}

func TestLeaderboardTiesFavorEarliestSubmission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(model.PolicyAllowPartial)
	f.reports.Save(ctx, resultAt("z-late", 80, 5))
	f.reports.Save(ctx, resultAt("a-early", 80, 1))

	top, err := f.reports.Leaderboard(ctx, "backend", 5)
	if err != nil {
		t.Fatalf("Leaderboard returned error: %v", err)
	}
	if len(top) != 2 || top[0].SessionID != "a-early" || top[1].SessionID != "z-late" {
		t.Fatalf("leaderboard = %+v, want a-early then z-late", top)
	}

	ranked, _ := f.reports.Query(ctx, model.ResultFilter{Profile: "backend"})
	for i := range ranked {
		if ranked[i].SessionID != top[i].SessionID {
			t.Fatalf("query order %v disagrees with leaderboard %+v", ranked[i].SessionID, top)
		}
	}

	last := f.broadcaster.events[len(f.broadcaster.events)-1]
	if rank := last.payload.(map[string]interface{})["rank"]; rank != int64(1) {
		t.Fatalf("announced rank of a-early = %v, want 1", rank)
	}
}

func TestStatsCachedUntilNextSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(model.PolicyAllowPartial)
	f.reports.Save(ctx, resultAt("a", 80, 0))
	f.reports.Save(ctx, resultAt("b", 60, 1))

	stats, err := f.reports.Stats(ctx, "backend")
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.Candidates != 2 || stats.AvgScore != 70 {
		t.Fatalf("stats = %+v", stats)
	}

	reads := f.results.queryCalls
	if again, _ := f.reports.Stats(ctx, "backend"); again != stats || f.results.queryCalls != reads {
		t.Fatalf("second Stats hit the store (%d -> %d queries)", reads, f.results.queryCalls)
	}

	f.reports.Save(ctx, resultAt("c", 90, 2))
	stats, _ = f.reports.Stats(ctx, "backend")
	if stats.Candidates != 3 || stats.BestScore != 90 {
		t.Fatalf("stats after save = %+v", stats)
	}
}

func scoresOf(rs []*model.Result) []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = r.TotalScore
	}
	return out
}
