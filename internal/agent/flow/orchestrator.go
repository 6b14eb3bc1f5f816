package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/palco-live/cadastro/internal/agent/model"
	errx "github.com/palco-live/cadastro/internal/core/error"
	"github.com/palco-live/cadastro/internal/trace"
	logx "github.com/palco-live/cadastro/pkg/logger"
)

// FieldExtractor is the slice of the extraction stack the engines consume.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, rawText string, known model.RegistrationRecord) (*model.ExtractionResult, error)
}

// Config carries the orchestrator tunables resolved from the environment.
type Config struct {
	// ReplyWindow bounds the whole handling of one message, extraction
	// included. The channel expects an answer inside its own window and this
	// one stays under it.
	ReplyWindow time.Duration
	// AttemptCeiling is how many charged extraction attempts a collection
	// may consume before it is abandoned.
	AttemptCeiling int
	// BotName is the assistant's display name used in replies and in the
	// extraction guard.
	BotName string
}

// Orchestrator is the single entry point for inbound messages. It owns
// loading and saving conversation state, routing, dispatching the engines
// and tracing the turn.
type Orchestrator struct {
	states  model.StateRepository
	tenants model.TenantRepository
	tracer  trace.Sink

	router  Router
	fast    *FastPath
	newUser *NewUser
	machine *Machine
	update  *Update

	window time.Duration
	locks  keyedMutex
}

func NewOrchestrator(states model.StateRepository, tenants model.TenantRepository, extractor FieldExtractor, tracer trace.Sink, cfg Config) *Orchestrator {
	return &Orchestrator{
		states:  states,
		tenants: tenants,
		tracer:  tracer,
		fast:    NewFastPath(cfg.BotName),
		newUser: NewNewUser(extractor, cfg.BotName),
		machine: NewMachine(extractor, cfg.AttemptCeiling),
		update:  NewUpdate(extractor),
		window:  cfg.ReplyWindow,
	}
}

// HandleInbound processes one message and returns the reply to send back.
// The reply is always usable; a non-nil error reports what degraded on the
// turn (provider outage, store failure) for the caller's logging.
func (o *Orchestrator) HandleInbound(ctx context.Context, userIdentity, tenantID, rawText string) (string, error) {
	start := time.Now()

	// Messages from the same identity are handled strictly one at a time.
	unlock := o.locks.lock(userIdentity)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, o.window)
	defer cancel()

	state, err := o.states.LoadState(ctx, userIdentity)
	if err != nil {
		logx.Error().Err(err).Str("identity", userIdentity).Msg("state load failed")
		o.tracer.Emit(trace.Event{
			UserIdentity: userIdentity,
			TenantID:     tenantID,
			Outcome:      trace.OutcomeStoreError,
			Latency:      time.Since(start),
		})
		return genericTroubleReply(), fmt.Errorf("%w: %v", errx.ErrStateStore, err)
	}
	fresh := state == nil
	if fresh {
		state = model.NewConversationState(userIdentity, tenantID)
	}

	tenant := o.resolveTenant(ctx, state.TenantID)

	trimmed := strings.TrimSpace(rawText)
	if cmd := o.router.Command(trimmed); cmd != CommandNone {
		return o.handleCommand(ctx, start, state, cmd)
	}

	strategy := o.router.Classify(state, fresh, trimmed)
	if strategy == model.StrategyNew && state.MachineState == model.StateAbandoned {
		// The restart keeps whatever the abandoned attempt collected.
		state.RestartCollection()
	}

	before := state.Record
	priorMachine := state.MachineState

	var (
		reply     string
		provider  string
		engineErr error
	)
	switch strategy {
	case model.StrategyFast:
		state.Strategy = model.StrategyFast
		reply = o.fast.Handle(state, tenant, trimmed)
	case model.StrategyNew:
		reply, provider, engineErr = o.newUser.Handle(ctx, state, tenant, rawText)
	case model.StrategyUpdate:
		reply, provider, engineErr = o.update.Handle(ctx, state, rawText)
	default:
		reply, provider, engineErr = o.machine.Step(ctx, state, rawText)
	}
	if engineErr != nil && !errors.Is(engineErr, errx.ErrExtractionUnavailable) {
		logx.Error().
			Err(engineErr).
			Str("identity", userIdentity).
			Str("strategy", string(strategy)).
			Msg("engine failed")
	}

	newlyCompleted := state.Record.Completed && !before.Completed
	newlyAbandoned := state.MachineState == model.StateAbandoned && priorMachine != model.StateAbandoned

	// Archive before saving so a crash between the two leaves an archived
	// row and a retryable state, never a completed state with no row.
	if newlyCompleted || newlyAbandoned || (state.Record.Completed && recordChanged(before, state.Record)) {
		if err := o.tenants.ArchiveRegistration(ctx, userIdentity, state.Record); err != nil {
			logx.Error().Err(err).Str("identity", userIdentity).Msg("registration archive failed")
			o.emit(start, state, provider, trace.OutcomeStoreError)
			return saveRetryReply(state.Record.ArtistName), fmt.Errorf("%w: %v", errx.ErrStateStore, err)
		}
	}

	state.Touch()
	if err := o.states.SaveState(ctx, state); err != nil {
		logx.Error().Err(err).Str("identity", userIdentity).Msg("state save failed")
		o.emit(start, state, provider, trace.OutcomeStoreError)
		return saveRetryReply(state.Record.ArtistName), fmt.Errorf("%w: %v", errx.ErrStateStore, err)
	}

	outcome := trace.OutcomeReplied
	switch {
	case newlyCompleted:
		outcome = trace.OutcomeCompleted
	case newlyAbandoned:
		outcome = trace.OutcomeAbandoned
	case engineErr != nil:
		outcome = trace.OutcomeUnavailable
	}
	o.emit(start, state, provider, outcome)
	return reply, engineErr
}

// handleCommand answers the special commands without running any engine.
func (o *Orchestrator) handleCommand(ctx context.Context, start time.Time, state *model.ConversationState, cmd Command) (string, error) {
	switch cmd {
	case CommandReset:
		state.ResetRegistration()
		state.Touch()
		if err := o.states.SaveState(ctx, state); err != nil {
			logx.Error().Err(err).Str("identity", state.UserIdentity).Msg("state save failed")
			o.emit(start, state, "", trace.OutcomeStoreError)
			return saveRetryReply(""), fmt.Errorf("%w: %v", errx.ErrStateStore, err)
		}
		o.emit(start, state, "", trace.OutcomeReplied)
		return resetReply(), nil
	default:
		// Status is read-only; the answer stands even when the TTL refresh
		// fails.
		state.Touch()
		if err := o.states.SaveState(ctx, state); err != nil {
			logx.Warn().Err(err).Str("identity", state.UserIdentity).Msg("state save failed")
		}
		o.emit(start, state, "", trace.OutcomeReplied)
		return statusReply(state), nil
	}
}

// resolveTenant degrades to an id-only context when the lookup fails; a
// missing tenant row must not block the conversation.
func (o *Orchestrator) resolveTenant(ctx context.Context, tenantID string) *model.TenantContext {
	if tenantID == "" {
		return &model.TenantContext{}
	}
	tenant, err := o.tenants.LoadTenant(ctx, tenantID)
	if err != nil {
		logx.Warn().Err(err).Str("tenant_id", tenantID).Msg("tenant lookup degraded")
		return &model.TenantContext{TenantID: tenantID}
	}
	return tenant
}

func (o *Orchestrator) emit(start time.Time, state *model.ConversationState, provider, outcome string) {
	o.tracer.Emit(trace.Event{
		UserIdentity: state.UserIdentity,
		TenantID:     state.TenantID,
		Strategy:     string(state.Strategy),
		MachineState: string(state.MachineState),
		Provider:     provider,
		Outcome:      outcome,
		Attempt:      state.GraphAttemptCount,
		Latency:      time.Since(start),
	})
}

// recordChanged compares a pre-dispatch copy against the live record. Link
// slices stay small, so length plus element compare is enough.
func recordChanged(before, after model.RegistrationRecord) bool {
	if before.ArtistName != after.ArtistName ||
		before.PrimaryGenre != after.PrimaryGenre ||
		before.City != after.City ||
		before.Completed != after.Completed ||
		len(before.SocialLinks) != len(after.SocialLinks) {
		return true
	}
	for i := range before.SocialLinks {
		if before.SocialLinks[i] != after.SocialLinks[i] {
			return true
		}
	}
	return false
}

// keyedMutex hands out one mutex per identity. Entries are never evicted;
// the footprint is one mutex per active user, which is fine for the scale
// this runs at.
type keyedMutex struct {
	mus sync.Map
}

func (k *keyedMutex) lock(key string) func() {
	v, _ := k.mus.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
