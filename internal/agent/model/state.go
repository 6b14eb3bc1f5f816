package model

import "time"

// Strategy is the processing path chosen for one inbound message.
type Strategy string

const (
	StrategyNew    Strategy = "new"
	StrategyFast   Strategy = "fast"
	StrategyUpdate Strategy = "update"
	StrategyGraph  Strategy = "graph"
)

// MachineState enumerates the collection workflow states. A fresh
// conversation starts in collect, and an empty value is treated as collect.
type MachineState string

const (
	StateCollect   MachineState = "collect"
	StateConfirm   MachineState = "confirm"
	StateDone      MachineState = "done"
	StateAbandoned MachineState = "abandoned"
)

// ConversationState is everything the core remembers about one identity's
// open registration. It lives in the state store and is mutated only while
// the per-identity lock is held; engines never keep a private copy across
// turns.
type ConversationState struct {
	UserIdentity      string             `json:"user_identity"`
	TenantID          string             `json:"tenant_id"`
	Record            RegistrationRecord `json:"record"`
	Strategy          Strategy           `json:"strategy"`
	MachineState      MachineState       `json:"machine_state"`
	GraphAttemptCount int                `json:"graph_attempt_count"`
	PendingField      Field              `json:"pending_field,omitempty"`
	LastActivity      time.Time          `json:"last_activity"`
}

// NewConversationState builds the state for a first-contact identity.
func NewConversationState(userIdentity, tenantID string) *ConversationState {
	return &ConversationState{
		UserIdentity: userIdentity,
		TenantID:     tenantID,
		Record:       RegistrationRecord{TenantID: tenantID},
		Strategy:     StrategyNew,
		MachineState: StateCollect,
		LastActivity: time.Now().UTC(),
	}
}

// ResetRegistration wipes the record and counters while keeping the identity
// and tenant binding. Used by the reset command and by a fresh start after
// an abandoned attempt.
func (s *ConversationState) ResetRegistration() {
	s.Record = RegistrationRecord{TenantID: s.TenantID}
	s.MachineState = StateCollect
	s.GraphAttemptCount = 0
	s.PendingField = FieldNone
	s.Strategy = StrategyNew
}

// RestartCollection keeps the partial record but reopens collection,
// zeroing the attempt counter. This is the resume path after ABANDONED.
func (s *ConversationState) RestartCollection() {
	s.MachineState = StateCollect
	s.GraphAttemptCount = 0
	s.PendingField = FieldNone
}

// Touch refreshes the activity timestamp.
func (s *ConversationState) Touch() {
	s.LastActivity = time.Now().UTC()
}
