package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"decihire/internal/model"
	"decihire/internal/scoring"
)

var errConnReset = errors.New("connection reset by peer")

func unavailable(op string) error {
	return &model.StoreUnavailableError{Op: op, Err: errConnReset}
}

// failures injects StoreUnavailable into the next n calls of an operation
type failures struct {
	mu   sync.Mutex
	next map[string]int
}

func (f *failures) fail(op string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next == nil {
		f.next = map[string]int{}
	}
	f.next[op] = n
}

func (f *failures) check(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next[op] > 0 {
		f.next[op]--
		return unavailable(op)
	}
	return nil
}

type stubQuestionStore struct {
	mu        sync.Mutex
	questions map[string]*model.Question
	listCalls int
}

func newStubQuestionStore(qs ...model.Question) *stubQuestionStore {
	s := &stubQuestionStore{questions: map[string]*model.Question{}}
	for i := range qs {
		q := qs[i]
		s.questions[q.ID] = &q
	}
	return s
}

func (s *stubQuestionStore) Create(_ context.Context, q *model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *q
	s.questions[q.ID] = &cp
	return nil
}

func (s *stubQuestionStore) GetByID(_ context.Context, id string) (*model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.questions[id]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, nil
}

func (s *stubQuestionStore) Update(_ context.Context, q *model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.questions[q.ID]
	if !ok || cur.IsPublished() {
		return model.ErrQuestionPublished
	}
	cp := *q
	s.questions[q.ID] = &cp
	return nil
}

func (s *stubQuestionStore) Publish(_ context.Context, id string, at time.Time) (*model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok || q.IsPublished() {
		return nil, model.ErrQuestionPublished
	}
	q.Status = model.QuestionPublished
	q.PublishedAt = &at
	cp := *q
	return &cp, nil
}

func (s *stubQuestionStore) List(_ context.Context, profile string, status model.QuestionStatus) ([]*model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Question
	for _, q := range s.questions {
		if (profile == "" || q.Profile == profile) && (status == "" || q.Status == status) {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubQuestionStore) ListPublished(_ context.Context, profile string) ([]model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	var out []model.Question
	for _, q := range s.questions {
		if q.Profile == profile && q.IsPublished() {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (s *stubQuestionStore) Profiles(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, q := range s.questions {
		if q.IsPublished() && !seen[q.Profile] {
			seen[q.Profile] = true
			out = append(out, q.Profile)
		}
	}
	sort.Strings(out)
	return out, nil
}

type stubBankCache struct {
	mu    sync.Mutex
	banks map[string]*model.Bank
}

func (c *stubBankCache) Get(_ context.Context, profile string) (*model.Bank, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banks[profile], nil
}

func (c *stubBankCache) Set(_ context.Context, bank *model.Bank) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.banks == nil {
		c.banks = map[string]*model.Bank{}
	}
	c.banks[bank.Profile] = bank
	return nil
}

func (c *stubBankCache) Invalidate(_ context.Context, profile string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.banks, profile)
	return nil
}

// stubSessionStore mirrors the conditional writes of the Mongo repository
type stubSessionStore struct {
	failures
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: map[string]*model.Session{}}
}

func cloneSession(s *model.Session) *model.Session {
	cp := *s
	cp.QuestionIDs = append([]string(nil), s.QuestionIDs...)
	cp.Answers = append([]model.Answer(nil), s.Answers...)
	return &cp
}

func (s *stubSessionStore) Create(_ context.Context, session *model.Session) error {
	if err := s.check("create"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if existing.CandidateID == session.CandidateID && !existing.IsSealed() {
			return &model.DuplicateSessionError{CandidateID: session.CandidateID}
		}
	}
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *stubSessionStore) GetByID(_ context.Context, id string) (*model.Session, error) {
	if err := s.check("get"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		return cloneSession(session), nil
	}
	return nil, nil
}

func (s *stubSessionStore) FindOpenByCandidate(_ context.Context, candidateID string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.CandidateID == candidateID && !session.IsSealed() {
			return cloneSession(session), nil
		}
	}
	return nil, nil
}

func (s *stubSessionStore) AppendAnswer(_ context.Context, sessionID string, answer model.Answer) error {
	if err := s.check("append"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	switch {
	case !ok:
		return model.ErrSessionNotFound
	case session.IsSealed():
		return &model.SessionClosedError{SessionID: sessionID}
	case session.AnswerFor(answer.QuestionID) != nil:
		return &model.DuplicateAnswerError{SessionID: sessionID, QuestionID: answer.QuestionID}
	}
	session.Answers = append(session.Answers, answer)
	return nil
}

func (s *stubSessionStore) Seal(_ context.Context, sessionID string, at time.Time) error {
	if err := s.check("seal"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.IsSealed() {
		return &model.SessionClosedError{SessionID: sessionID}
	}
	session.Status = model.SessionSealed
	session.SubmittedAt = &at
	return nil
}

func (s *stubSessionStore) snapshot() map[string]*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*model.Session, len(s.sessions))
	for id, session := range s.sessions {
		out[id] = cloneSession(session)
	}
	return out
}

func (s *stubSessionStore) restore(snap map[string]*model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = snap
}

type stubResultStore struct {
	failures
	mu      sync.Mutex
	results    map[string]*model.Result
	upserts    int
	queryCalls int
}

func newStubResultStore() *stubResultStore {
	return &stubResultStore{results: map[string]*model.Result{}}
}

func (s *stubResultStore) Upsert(_ context.Context, r *model.Result) error {
	if err := s.check("upsert"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	cp := *r
	s.results[r.SessionID] = &cp
	return nil
}

func (s *stubResultStore) Get(_ context.Context, id string) (*model.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.results[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *stubResultStore) Query(_ context.Context, f model.ResultFilter) ([]*model.Result, error) {
	if err := s.check("query"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryCalls++
	out := []*model.Result{}
	for _, r := range s.results {
		if f.Matches(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	scoring.Rank(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *stubResultStore) snapshot() map[string]*model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*model.Result, len(s.results))
	for id, r := range s.results {
		out[id] = r
	}
	return out
}

func (s *stubResultStore) restore(snap map[string]*model.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = snap
}

// stubTx rolls both stores back when fn fails
type stubTx struct {
	mu       sync.Mutex
	sessions *stubSessionStore
	results  *stubResultStore
}

func (t *stubTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	sessions, results := t.sessions.snapshot(), t.results.snapshot()
	if err := fn(ctx); err != nil {
		t.sessions.restore(sessions)
		t.results.restore(results)
		return err
	}
	return nil
}

// memLock is an in-process stand-in for the Redis session lock
type memLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *memLock) Lock(_ context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = map[string]*sync.Mutex{}
	}
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

type stubAnalytics struct {
	mu          sync.Mutex
	stats       map[string]*model.ProfileStats
	invalidated int
}

func (a *stubAnalytics) GetProfileStats(_ context.Context, profile string) (*model.ProfileStats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats[profile], nil
}

func (a *stubAnalytics) SetProfileStats(_ context.Context, stats *model.ProfileStats) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stats == nil {
		a.stats = make(map[string]*model.ProfileStats)
	}
	a.stats[stats.Profile] = stats
	return nil
}

func (a *stubAnalytics) Invalidate(_ context.Context, profile string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.stats, profile)
	a.invalidated++
	return nil
}

type stubLeaderboard struct {
	mu      sync.Mutex
	entries map[string]map[string]stubLBEntry
}

type stubLBEntry struct {
	score       float64
	submittedAt time.Time
}

func (l *stubLeaderboard) UpdateScore(_ context.Context, profile, sessionID string, score float64, submittedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entries == nil {
		l.entries = map[string]map[string]stubLBEntry{}
	}
	if l.entries[profile] == nil {
		l.entries[profile] = map[string]stubLBEntry{}
	}
	l.entries[profile][sessionID] = stubLBEntry{score: score, submittedAt: submittedAt}
	return nil
}

// GetTop orders like the Redis encoding: score desc, submittedAt asc, id asc
func (l *stubLeaderboard) GetTop(_ context.Context, profile string, limit int) ([]model.LeaderboardEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	byID := l.entries[profile]
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := byID[ids[i]], byID[ids[j]]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.submittedAt.Equal(b.submittedAt) {
			return a.submittedAt.Before(b.submittedAt)
		}
		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}
	entries := make([]model.LeaderboardEntry, len(ids))
	for i, id := range ids {
		entries[i] = model.LeaderboardEntry{SessionID: id, Score: byID[id].score, Rank: i + 1}
	}
	return entries, nil
}

func (l *stubLeaderboard) GetRank(_ context.Context, profile, sessionID string) (int64, error) {
	entries, _ := l.GetTop(context.Background(), profile, 1<<30)
	for _, e := range entries {
		if e.SessionID == sessionID {
			return int64(e.Rank), nil
		}
	}
	return -1, nil
}

type stubInvitations struct {
	mu    sync.Mutex
	codes map[string]*model.Invitation
}

func (s *stubInvitations) Create(_ context.Context, inv *model.Invitation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = map[string]*model.Invitation{}
	}
	if _, taken := s.codes[inv.Code]; taken {
		return false, nil
	}
	cp := *inv
	s.codes[inv.Code] = &cp
	return true, nil
}

func (s *stubInvitations) Get(_ context.Context, code string) (*model.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[code], nil
}

func (s *stubInvitations) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, code)
	return nil
}

type recordedEvent struct {
	profile string
	msgType string
	payload interface{}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) BroadcastToDashboard(profile, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{profile, msgType, payload})
}

// fixture wires every service over the stubs
type fixture struct {
	questions   *stubQuestionStore
	sessions    *stubSessionStore
	results     *stubResultStore
	leaderboard *stubLeaderboard
	analytics   *stubAnalytics
	invitations *stubInvitations
	broadcaster *recordingBroadcaster

	auth     *AuthService
	bank     *BankService
	reports  *ReportService
	recorder *RecorderService
	invites  *InvitationService
}

var fixedNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func testRetry() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}
}

// publishedBank: t1 technical 60 (correct "a"), e1 ethical 40 (x best, y acceptable, z poor)
func publishedBank() []model.Question {
	return []model.Question{
		{
			ID: "t1", Profile: "backend", Category: model.CategoryTechnical, Prompt: "2+2?",
			Choices:       []model.Choice{{Key: "a", Text: "4"}, {Key: "b", Text: "5"}},
			CorrectChoice: "a", Weight: 60, Required: true, Order: 1, Status: model.QuestionPublished,
		},
		{
			ID: "e1", Profile: "backend", Category: model.CategoryEthical, Prompt: "A colleague cuts corners...",
			Choices: []model.Choice{{Key: "x", Text: "Raise it"}, {Key: "y", Text: "Wait"}, {Key: "z", Text: "Ignore"}},
			Grades: map[string]model.Grade{
				"x": model.GradeBest, "y": model.GradeAcceptable, "z": model.GradePoor,
			},
			Weight: 40, Required: true, Order: 2, Status: model.QuestionPublished,
		},
	}
}

func newFixture(policy model.CompletionPolicy) *fixture {
	f := &fixture{
		questions:   newStubQuestionStore(publishedBank()...),
		sessions:    newStubSessionStore(),
		results:     newStubResultStore(),
		leaderboard: &stubLeaderboard{},
		analytics:   &stubAnalytics{},
		invitations: &stubInvitations{},
		broadcaster: &recordingBroadcaster{},
	}

	clock := func() time.Time { return fixedNow }
	seq := 0
	ids := func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}

	f.auth = NewAuthService("recruiter", "", "test-secret", time.Hour)
	f.auth.now = clock

	f.bank = NewBankService(f.questions, &stubBankCache{}, testRetry())
	f.bank.now = clock
	f.bank.newID = ids

	f.reports = NewReportService(f.results, f.sessions, f.bank, f.leaderboard, scoring.DefaultConfig(), testRetry())
	f.reports.SetBroadcaster(f.broadcaster)
	f.reports.SetAnalyticsCache(f.analytics)
	f.reports.now = clock

	tx := &stubTx{sessions: f.sessions, results: f.results}
	f.recorder = NewRecorderService(f.sessions, f.bank, f.reports, tx, &memLock{}, scoring.DefaultConfig(), policy, testRetry())
	f.recorder.now = clock
	f.recorder.newID = ids

	f.invites = NewInvitationService(f.invitations, f.bank, f.recorder, f.auth, time.Hour)
	f.invites.now = clock

	return f
}
