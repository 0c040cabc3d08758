//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/model"
	"ai-interview-engine/internal/domain/ports/adapter"
	"ai-interview-engine/internal/domain/ports/repository"
	"ai-interview-engine/internal/infra/i18n"
	"ai-interview-engine/internal/infra/lock"
	"ai-interview-engine/internal/infra/security"
	"ai-interview-engine/internal/infra/worker"
	"ai-interview-engine/internal/usecase"
)

// =============================
// Repositories
// =============================

func cloneSession(s *model.InterviewSession) *model.InterviewSession {
	c := *s
	c.Ledger = s.Ledger.Clone()
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	return &c
}

// ---- In-memory InterviewSessionRepository ----

type MemSessionRepo struct {
	mu     sync.Mutex
	byID   map[string]*model.InterviewSession
	byCred map[string]string
	Saves  int

	SaveFunc func(ctx context.Context, tx repository.Tx, s *model.InterviewSession) error
}

var _ repository.InterviewSessionRepository = (*MemSessionRepo)(nil)

func NewMemSessionRepo() *MemSessionRepo {
	return &MemSessionRepo{byID: map[string]*model.InterviewSession{}, byCred: map[string]string{}}
}

func (m *MemSessionRepo) Create(ctx context.Context, tx repository.Tx, s *model.InterviewSession) (*model.InterviewSession, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byCred[s.CredentialID]; ok {
		return cloneSession(m.byID[id]), false, nil
	}
	m.byID[s.ID] = cloneSession(s)
	m.byCred[s.CredentialID] = s.ID
	return s, true, nil
}

func (m *MemSessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.InterviewSession) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[s.ID]; !ok {
		return domain.ErrNotFound
	}
	m.byID[s.ID] = cloneSession(s)
	m.Saves++
	return nil
}

func (m *MemSessionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.InterviewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneSession(s), nil
}

func (m *MemSessionRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.InterviewSession, error) {
	return m.FindByID(ctx, tx, id)
}

func (m *MemSessionRepo) FindByCredential(ctx context.Context, tx repository.Tx, credentialID string) (*model.InterviewSession, error) {
	m.mu.Lock()
	id, ok := m.byCred[credentialID]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.FindByID(ctx, tx, id)
}

func (m *MemSessionRepo) CountPostponed(ctx context.Context, tx repository.Tx, candidateID, jobID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.byID {
		if s.CandidateID == candidateID && s.JobID == jobID && s.Status == model.InterviewPostponed {
			n++
		}
	}
	return n, nil
}

// put stores s as-is, bypassing Create.
func (m *MemSessionRepo) put(s *model.InterviewSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = cloneSession(s)
	m.byCred[s.CredentialID] = s.ID
}

// snapshot and restore let a mock transaction roll back on error.
func (m *MemSessionRepo) snapshot() map[string]*model.InterviewSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*model.InterviewSession, len(m.byID))
	for id, s := range m.byID {
		out[id] = cloneSession(s)
	}
	return out
}

func (m *MemSessionRepo) restore(snap map[string]*model.InterviewSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID = snap
}

func (m *MemSessionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// ---- In-memory InterviewResourcesRepository ----

type MemResourcesRepo struct {
	mu    sync.Mutex
	data  map[string]model.InterviewResources
	Saves int
}

var _ repository.InterviewResourcesRepository = (*MemResourcesRepo)(nil)

func NewMemResourcesRepo() *MemResourcesRepo {
	return &MemResourcesRepo{data: map[string]model.InterviewResources{}}
}

func (m *MemResourcesRepo) FindByCredential(ctx context.Context, tx repository.Tx, credentialID string) (*model.InterviewResources, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.data[credentialID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (m *MemResourcesRepo) Save(ctx context.Context, tx repository.Tx, r *model.InterviewResources) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[r.CredentialID] = *r
	m.Saves++
	return nil
}

// ---- In-memory CredentialRepository ----

type MemCredentialRepo struct {
	mu   sync.Mutex
	byID map[string]model.AccessCredential

	CreateFunc func(ctx context.Context, tx repository.Tx, c *model.AccessCredential) error
}

var _ repository.CredentialRepository = (*MemCredentialRepo)(nil)

func NewMemCredentialRepo() *MemCredentialRepo {
	return &MemCredentialRepo{byID: map[string]model.AccessCredential{}}
}

func (m *MemCredentialRepo) Create(ctx context.Context, tx repository.Tx, c *model.AccessCredential) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[c.ID]; ok {
		return domain.ErrAlreadyExists
	}
	m.byID[c.ID] = *c
	return nil
}

func (m *MemCredentialRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AccessCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *MemCredentialRepo) Invalidate(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Revoked, c.Valid = true, false
	m.byID[id] = c
	return nil
}

func (m *MemCredentialRepo) RevokeAllForInvitation(ctx context.Context, tx repository.Tx, invitationID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.byID {
		if c.InvitationID == invitationID && !c.Revoked {
			c.Revoked, c.Valid = true, false
			m.byID[id] = c
			n++
		}
	}
	return n, nil
}

func (m *MemCredentialRepo) snapshot() map[string]model.AccessCredential {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]model.AccessCredential, len(m.byID))
	for id, c := range m.byID {
		out[id] = c
	}
	return out
}

func (m *MemCredentialRepo) restore(snap map[string]model.AccessCredential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID = snap
}

func (m *MemCredentialRepo) CountActiveForInvitation(ctx context.Context, tx repository.Tx, invitationID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.byID {
		if c.InvitationID == invitationID && c.Valid && !c.Revoked {
			n++
		}
	}
	return n, nil
}

// ---- In-memory InvitationRepository ----

type MemInvitationRepo struct {
	mu   sync.Mutex
	ctxs map[string]model.InterviewContext
}

var _ repository.InvitationRepository = (*MemInvitationRepo)(nil)

func NewMemInvitationRepo() *MemInvitationRepo {
	return &MemInvitationRepo{ctxs: map[string]model.InterviewContext{}}
}

func (m *MemInvitationRepo) put(ictx model.InterviewContext) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctxs[ictx.Invitation.ID] = ictx
}

func (m *MemInvitationRepo) FindContext(ctx context.Context, tx repository.Tx, invitationID string) (*model.InterviewContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.ctxs[invitationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// ---- In-memory AudioChunkStore ----

type MemChunkStore struct {
	mu       sync.Mutex
	groups   map[string]map[int][][]byte
	combined map[string][]byte
}

var _ repository.AudioChunkStore = (*MemChunkStore)(nil)

func NewMemChunkStore() *MemChunkStore {
	return &MemChunkStore{groups: map[string]map[int][][]byte{}, combined: map[string][]byte{}}
}

func (m *MemChunkStore) ns(namespace string) map[int][][]byte {
	g, ok := m.groups[namespace]
	if !ok {
		g = map[int][][]byte{}
		m.groups[namespace] = g
	}
	return g
}

func (m *MemChunkStore) Append(ctx context.Context, namespace string, group int, data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.ns(namespace)
	g[group] = append(g[group], append([]byte(nil), data...))
	return len(g[group]), nil
}

func (m *MemChunkStore) Chunks(ctx context.Context, namespace string, group int) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.ns(namespace)[group]...), nil
}

func (m *MemChunkStore) LatestGroup(ctx context.Context, namespace string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := 0
	for g := range m.ns(namespace) {
		if g > latest {
			latest = g
		}
	}
	return latest, nil
}

func (m *MemChunkStore) EnsureGroup(ctx context.Context, namespace string, group int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.ns(namespace)
	if _, ok := g[group]; !ok {
		g[group] = nil
	}
	return nil
}

func (m *MemChunkStore) WriteCombined(ctx context.Context, namespace string, group int, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc := fmt.Sprintf("%s/g%04d", namespace, group)
	m.combined[loc] = append([]byte(nil), data...)
	return loc, nil
}

func (m *MemChunkStore) ReadCombined(ctx context.Context, location string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.combined[location]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

// =============================
// Adapters
// =============================

// ---- Mock AIServiceAdapter ----

type MockAI struct {
	mu sync.Mutex

	CountTokensFunc func(ctx context.Context, model string, msgs []adapter.Message) (int, error)
	ChatFunc        func(ctx context.Context, model string, msgs []adapter.Message) (string, error)

	Calls struct {
		Chat  int
		Count int
	}
}

var _ adapter.AIServiceAdapter = (*MockAI)(nil)

func (m *MockAI) CountTokens(ctx context.Context, model string, msgs []adapter.Message) (int, error) {
	m.mu.Lock()
	m.Calls.Count++
	m.mu.Unlock()
	if m.CountTokensFunc != nil {
		return m.CountTokensFunc(ctx, model, msgs)
	}
	n := 0
	for _, msg := range msgs {
		n += len(strings.Fields(msg.Content))
	}
	return n, nil
}

func (m *MockAI) Chat(ctx context.Context, model string, msgs []adapter.Message) (string, error) {
	m.mu.Lock()
	m.Calls.Chat++
	m.mu.Unlock()
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, model, msgs)
	}
	if wantsQuestionBank(msgs) {
		return `{"questions": ["Tell me about your experience with Go.", "How do you approach code reviews?", "What are your salary expectations?"]}`, nil
	}
	return "What motivates you in this role?", nil
}

func (m *MockAI) ChatWithUsage(ctx context.Context, model string, msgs []adapter.Message) (string, adapter.Usage, error) {
	out, err := m.Chat(ctx, model, msgs)
	return out, adapter.Usage{}, err
}

func (m *MockAI) chatCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls.Chat
}

func wantsQuestionBank(msgs []adapter.Message) bool {
	return len(msgs) > 0 && strings.Contains(msgs[len(msgs)-1].Content, `{"questions"`)
}

// ---- Mock SpeechService ----

type MockSpeech struct {
	TranscribeFunc func(ctx context.Context, audio []byte, filename, languageHint string) (string, error)
	SynthesizeFunc func(ctx context.Context, text, voice, format, language string) ([]byte, string, error)
}

var _ adapter.SpeechService = (*MockSpeech)(nil)

// Transcribe echoes the audio bytes as text unless overridden.
func (m *MockSpeech) Transcribe(ctx context.Context, audio []byte, filename, languageHint string) (string, error) {
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, filename, languageHint)
	}
	return string(audio), nil
}

func (m *MockSpeech) Synthesize(ctx context.Context, text, voice, format, language string) ([]byte, string, error) {
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, voice, format, language)
	}
	return []byte(text), "audio/mpeg", nil
}

// ---- Mock InboxNotifier ----

type sentNotification struct {
	AgencyID string
	Kind     string
	Payload  map[string]any
}

type MockInbox struct {
	mu   sync.Mutex
	Sent []sentNotification

	// NotifyFunc runs after the notification is recorded.
	NotifyFunc func(ctx context.Context, agencyID, kind string, payload map[string]any) error
}

var _ adapter.InboxNotifier = (*MockInbox)(nil)

func (m *MockInbox) Notify(ctx context.Context, agencyID, kind string, payload map[string]any) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, sentNotification{AgencyID: agencyID, Kind: kind, Payload: payload})
	m.mu.Unlock()
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, agencyID, kind, payload)
	}
	return nil
}

func (m *MockInbox) kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Sent))
	for _, n := range m.Sent {
		out = append(out, n.Kind)
	}
	return out
}

// ---- Mock Mailer ----

type sentMail struct {
	To, Subject, Body string
}

type MockMailer struct {
	mu   sync.Mutex
	Sent []sentMail

	// SendFunc runs after the mail is recorded.
	SendFunc func(ctx context.Context, to, subject, body string) error
}

var _ adapter.Mailer = (*MockMailer)(nil)

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, sentMail{To: to, Subject: subject, Body: body})
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, body)
	}
	return nil
}

func (m *MockMailer) sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.Sent...)
}

// =============================
// Infra helpers for tests
// =============================

// ---- Mock TransactionManager ----

type MockTxManager struct {
	mu         sync.Mutex
	LockedKeys []string

	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

func (m *MockTxManager) LockKey(ctx context.Context, tx repository.Tx, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LockedKeys = append(m.LockedKeys, key)
	return nil
}

// rollbackOnError makes WithTx discard session and credential writes when fn fails.
func (h *harness) rollbackOnError() {
	h.tm.WithTxFunc = func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
		sessions, creds := h.sessions.snapshot(), h.creds.snapshot()
		if err := fn(ctx, repository.NoTX); err != nil {
			h.sessions.restore(sessions)
			h.creds.restore(creds)
			return err
		}
		return nil
	}
}

// syncPool runs submitted tasks inline so side effects are observable.
type syncPool struct{}

func (syncPool) Submit(task worker.Task) error { return task(context.Background()) }

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestBundle(t *testing.T) *i18n.Bundle {
	t.Helper()
	b, err := i18n.NewBundle(i18n.LocalesFS, "en", "ar")
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	return b
}

// =============================
// Fixture
// =============================

const (
	testSecret     = "test-secret-test-secret-test-secret"
	testInvitation = "inv-1"
	testCredential = "cred-1"
	testCandidate  = "cand-1"
	testJob        = "job-1"
	testAgency     = "agency-1"
)

type harness struct {
	t   *testing.T
	ctx context.Context

	sessions    *MemSessionRepo
	resources   *MemResourcesRepo
	creds       *MemCredentialRepo
	invitations *MemInvitationRepo
	chunks      *MemChunkStore
	ai          *MockAI
	speech      *MockSpeech
	inbox       *MockInbox
	mailer      *MockMailer
	tm          *MockTxManager
	signer      *security.TokenSigner
	bundle      *i18n.Bundle

	genCfg      usecase.QuestionGenConfig
	turnCfg     usecase.TurnConfig
	postponeCfg usecase.PostponeConfig
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	signer, err := security.NewTokenSigner(testSecret)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	h := &harness{
		t:           t,
		ctx:         context.Background(),
		sessions:    NewMemSessionRepo(),
		resources:   NewMemResourcesRepo(),
		creds:       NewMemCredentialRepo(),
		invitations: NewMemInvitationRepo(),
		chunks:      NewMemChunkStore(),
		ai:          &MockAI{},
		speech:      &MockSpeech{},
		inbox:       &MockInbox{},
		mailer:      &MockMailer{},
		tm:          NewMockTxManager(),
		signer:      signer,
		bundle:      newTestBundle(t),
		genCfg: usecase.QuestionGenConfig{
			Model:           "test-model",
			NextTimeout:     time.Second,
			PreparedTimeout: time.Second,
			PreparedCount:   8,
		},
		turnCfg: usecase.TurnConfig{TranscriptionTimeout: time.Second, LockTTL: time.Minute},
		postponeCfg: usecase.PostponeConfig{
			LockWindow:        2 * time.Minute,
			MaxPerJob:         1,
			CredentialTTL:     24 * time.Hour,
			AccessLinkBaseURL: "https://interview.example.com/start",
		},
	}
	h.invitations.put(model.InterviewContext{
		Invitation: model.Invitation{
			ID: testInvitation, AgencyID: testAgency, JobID: testJob, CandidateID: testCandidate,
			CandidateName: "Sara", CandidateEmail: "sara@example.com", Language: model.LanguageEnglish,
		},
		Job: model.JobSnapshot{
			ID: testJob, Title: "Backend Engineer", Description: "Build services in Go",
			Skills: []string{"go", "postgres"}, IsActive: true, DeactivatesAt: time.Now().Add(10 * 24 * time.Hour),
		},
		Agency: model.AgencySnapshot{ID: testAgency, Name: "Acme"},
		Resume: model.ResumeAnalysis{CandidateID: testCandidate, CandidateName: "Sara", Summary: "Five years of Go"},
	})
	cred := model.NewAccessCredential(testCredential, testInvitation, 24*time.Hour)
	if err := h.creds.Create(h.ctx, repository.NoTX, cred); err != nil {
		t.Fatalf("seed credential: %v", err)
	}
	return h
}

// setLanguage rewrites the invitation language; empty lets the job text decide.
func (h *harness) setLanguage(l model.Language, title, description string) {
	c, _ := h.invitations.FindContext(h.ctx, repository.NoTX, testInvitation)
	c.Invitation.Language = l
	c.Job.Title, c.Job.Description = title, description
	h.invitations.put(*c)
}

func (h *harness) token(credentialID string) string {
	h.t.Helper()
	c, err := h.creds.FindByID(h.ctx, repository.NoTX, credentialID)
	if err != nil {
		h.t.Fatalf("find credential: %v", err)
	}
	tok, err := h.signer.Mint(c.ID, c.InvitationID, c.ExpiresAt)
	if err != nil {
		h.t.Fatalf("mint: %v", err)
	}
	return tok
}

func (h *harness) dispatcher() *usecase.Dispatcher {
	return usecase.NewDispatcher(syncPool{}, h.inbox, h.mailer, h.bundle, newTestLogger())
}

func (h *harness) generator() usecase.QuestionGenerator {
	return usecase.NewQuestionGenerator(h.ai, h.bundle, h.genCfg, newTestLogger())
}

func (h *harness) resourceUC() usecase.ResourceUseCase {
	return usecase.NewResourceUseCase(h.resources, h.generator(), newTestLogger())
}

func (h *harness) audioUC() usecase.AudioBufferUseCase {
	return usecase.NewAudioBufferUseCase(h.chunks, h.sessions, newTestLogger())
}

func (h *harness) sessionUC() usecase.SessionUseCase {
	return usecase.NewSessionUseCase(h.signer, h.creds, h.invitations, h.sessions, h.resourceUC(),
		h.audioUC(), h.tm, h.dispatcher(), h.bundle, newTestLogger())
}

func (h *harness) turnUC(locker adapter.Locker) usecase.TurnUseCase {
	if locker == nil {
		locker = lock.NewLocal()
	}
	return usecase.NewTurnUseCase(h.sessions, h.creds, h.resourceUC(), h.audioUC(), h.speech, h.generator(),
		locker, h.tm, h.dispatcher(), h.bundle, h.turnCfg, newTestLogger())
}

func (h *harness) postponeUC() usecase.PostponeUseCase {
	return usecase.NewPostponeUseCase(h.sessions, h.creds, h.invitations, h.signer, h.tm,
		h.dispatcher(), h.bundle, h.postponeCfg, newTestLogger())
}

// start opens the interview for the seeded credential.
func (h *harness) start() *usecase.StartResult {
	h.t.Helper()
	res, err := h.sessionUC().StartOrResume(h.ctx, h.token(testCredential))
	if err != nil {
		h.t.Fatalf("start: %v", err)
	}
	return res
}

// age moves the session's creation time into the past.
func (h *harness) age(sessionID string, d time.Duration) {
	h.t.Helper()
	s, err := h.sessions.FindByID(h.ctx, repository.NoTX, sessionID)
	if err != nil {
		h.t.Fatalf("find session: %v", err)
	}
	s.CreatedAt = s.CreatedAt.Add(-d)
	h.sessions.put(s)
}

func (h *harness) session(id string) *model.InterviewSession {
	h.t.Helper()
	s, err := h.sessions.FindByID(h.ctx, repository.NoTX, id)
	if err != nil {
		h.t.Fatalf("find session: %v", err)
	}
	return s
}

// answer writes text as one audio chunk into the session's latest group.
func (h *harness) answer(sessionID, text string) {
	h.t.Helper()
	if _, err := h.audioUC().WriteChunk(h.ctx, sessionID, nil, []byte(text)); err != nil {
		h.t.Fatalf("write chunk: %v", err)
	}
}
