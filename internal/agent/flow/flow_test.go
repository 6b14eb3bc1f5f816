package flow

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/palco-live/cadastro/internal/agent/model"
	errx "github.com/palco-live/cadastro/internal/core/error"
	"github.com/palco-live/cadastro/internal/trace"
)

// fakeExtractor scripts extraction results per call and counts invocations.
type fakeExtractor struct {
	mu    sync.Mutex
	fn    func(rawText string, known model.RegistrationRecord) (*model.ExtractionResult, error)
	calls int
}

func (f *fakeExtractor) ExtractFields(_ context.Context, rawText string, known model.RegistrationRecord) (*model.ExtractionResult, error) {
	f.mu.Lock()
	f.calls++
	fn := f.fn
	f.mu.Unlock()
	if fn == nil {
		return &model.ExtractionResult{ProviderUsed: "gemini"}, nil
	}
	return fn(rawText, known)
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func extractorReturning(delta model.RecordDelta) *fakeExtractor {
	return &fakeExtractor{fn: func(string, model.RegistrationRecord) (*model.ExtractionResult, error) {
		return &model.ExtractionResult{Delta: delta, ProviderUsed: "gemini"}, nil
	}}
}

func extractorEmpty() *fakeExtractor {
	return extractorReturning(model.RecordDelta{})
}

func extractorFailing() *fakeExtractor {
	return &fakeExtractor{fn: func(string, model.RegistrationRecord) (*model.ExtractionResult, error) {
		return nil, unavailableErr()
	}}
}

func unavailableErr() error {
	return errx.New(
		fmt.Errorf("%w: all providers failed", errx.ErrExtractionUnavailable),
		http.StatusServiceUnavailable,
		"extraction providers unavailable",
	)
}

// memoryStates is the in-memory StateRepository used across the engine and
// orchestrator tests. Saves store copies, as a real store would.
type memoryStates struct {
	mu      sync.Mutex
	states  map[string]*model.ConversationState
	loadErr error
	saveErr error
	saves   int
}

func newMemoryStates() *memoryStates {
	return &memoryStates{states: map[string]*model.ConversationState{}}
}

func (m *memoryStates) LoadState(_ context.Context, userIdentity string) (*model.ConversationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	s, ok := m.states[userIdentity]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memoryStates) SaveState(_ context.Context, state *model.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *state
	m.states[state.UserIdentity] = &cp
	m.saves++
	return nil
}

func (m *memoryStates) DeleteState(_ context.Context, userIdentity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userIdentity)
	return nil
}

func (m *memoryStates) stored(userIdentity string) *model.ConversationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userIdentity]
}

func (m *memoryStates) seed(state *model.ConversationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.states[state.UserIdentity] = &cp
}

// memoryTenants is the in-memory TenantRepository for tests.
type memoryTenants struct {
	mu         sync.Mutex
	tenant     *model.TenantContext
	loadErr    error
	archiveErr error
	archives   []model.RegistrationRecord
}

func (m *memoryTenants) LoadTenant(_ context.Context, tenantID string) (*model.TenantContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.tenant != nil {
		return m.tenant, nil
	}
	return &model.TenantContext{
		TenantID:    tenantID,
		DisplayName: "Cervejaria Bragantina",
		City:        "Bragança Paulista",
	}, nil
}

func (m *memoryTenants) ArchiveRegistration(_ context.Context, _ string, record model.RegistrationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.archiveErr != nil {
		return m.archiveErr
	}
	m.archives = append(m.archives, record)
	return nil
}

func (m *memoryTenants) archived() []model.RegistrationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.RegistrationRecord, len(m.archives))
	copy(out, m.archives)
	return out
}

// captureSink records every trace event for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []trace.Event
}

func (c *captureSink) Emit(e trace.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureSink) Close() {}

func (c *captureSink) all() []trace.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]trace.Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *captureSink) last() trace.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return trace.Event{}
	}
	return c.events[len(c.events)-1]
}

// testEnv wires an orchestrator against the in-memory fakes.
type testEnv struct {
	orch    *Orchestrator
	states  *memoryStates
	tenants *memoryTenants
	traces  *captureSink
	ex      *fakeExtractor
}

func newTestEnv(ex *fakeExtractor) *testEnv {
	states := newMemoryStates()
	tenants := &memoryTenants{}
	traces := &captureSink{}
	orch := NewOrchestrator(states, tenants, ex, traces, Config{
		ReplyWindow:    2 * time.Second,
		AttemptCeiling: 3,
		BotName:        "WIP",
	})
	return &testEnv{orch: orch, states: states, tenants: tenants, traces: traces, ex: ex}
}

func completedState(userIdentity, tenantID string) *model.ConversationState {
	state := model.NewConversationState(userIdentity, tenantID)
	state.Record.ArtistName = "Rio Sol"
	state.Record.PrimaryGenre = "rock"
	state.Record.City = "Bragança Paulista"
	state.Record.SocialLinks = []model.SocialLink{{Platform: "instagram", URL: "https://instagram.com/riosol"}}
	state.Record.Completed = true
	state.MachineState = model.StateDone
	state.Strategy = model.StrategyFast
	return state
}

func collectingState(userIdentity, tenantID string, attempts int) *model.ConversationState {
	state := model.NewConversationState(userIdentity, tenantID)
	state.Record.ArtistName = "Rio Sol"
	state.MachineState = model.StateCollect
	state.Strategy = model.StrategyGraph
	state.GraphAttemptCount = attempts
	state.PendingField = model.FieldGenre
	return state
}
