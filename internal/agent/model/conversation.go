package model

import "context"

// StateRepository owns ConversationState persistence, keyed by user identity.
type StateRepository interface {
	// LoadState retrieves the state for an identity, or (nil, nil) when the
	// identity has never been seen.
	LoadState(ctx context.Context, userIdentity string) (*ConversationState, error)

	// SaveState persists the state atomically for its identity.
	SaveState(ctx context.Context, state *ConversationState) error

	// DeleteState removes the state for an identity.
	DeleteState(ctx context.Context, userIdentity string) error
}

// TenantContext is the read-only tenant reference resolved per conversation.
type TenantContext struct {
	TenantID    string `json:"tenant_id"`
	DisplayName string `json:"display_name"`
	City        string `json:"city"`
}

// TenantRepository resolves tenant context and archives finished records in
// the external tenant store.
type TenantRepository interface {
	// LoadTenant resolves the tenant reference. The core never mutates it.
	LoadTenant(ctx context.Context, tenantID string) (*TenantContext, error)

	// ArchiveRegistration upserts the registration row for (tenant, identity).
	// Called when a registration completes and when a partial one is
	// abandoned, so nothing collected is lost.
	ArchiveRegistration(ctx context.Context, userIdentity string, record RegistrationRecord) error
}
