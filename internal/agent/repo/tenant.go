package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/palco-live/cadastro/internal/agent/model"
	errx "github.com/palco-live/cadastro/internal/core/error"
	logx "github.com/palco-live/cadastro/pkg/logger"
)

// PostgresTenantRepository resolves tenant context and owns the registrations
// archive table.
type PostgresTenantRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTenantRepository(pool *pgxpool.Pool) *PostgresTenantRepository {
	return &PostgresTenantRepository{pool: pool}
}

// LoadTenant resolves one tenant reference by ID.
func (r *PostgresTenantRepository) LoadTenant(ctx context.Context, tenantID string) (*model.TenantContext, error) {
	const q = `SELECT tenant_id, display_name, city FROM tenants WHERE tenant_id = $1`

	var tc model.TenantContext
	err := r.pool.QueryRow(ctx, q, tenantID).Scan(&tc.TenantID, &tc.DisplayName, &tc.City)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logx.Warn().Str("tenant_id", tenantID).Msg("tenant not found")
		} else {
			logx.Error().Err(err).Str("tenant_id", tenantID).Msg("failed to load tenant")
		}
		return nil, errx.WrapPostgres(err)
	}
	return &tc, nil
}

// ArchiveRegistration upserts one row per (tenant, identity). Partial records
// land here too when a collection attempt is abandoned, so nothing the user
// already gave is lost. Social links are stored as a JSONB array.
func (r *PostgresTenantRepository) ArchiveRegistration(ctx context.Context, userIdentity string, record model.RegistrationRecord) error {
	links, err := json.Marshal(record.SocialLinks)
	if err != nil {
		return fmt.Errorf("marshal social links: %w", err)
	}

	const q = `
		INSERT INTO registrations (tenant_id, user_identity, artist_name, primary_genre, city, social_links, completed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (tenant_id, user_identity)
		DO UPDATE SET
			artist_name   = EXCLUDED.artist_name,
			primary_genre = EXCLUDED.primary_genre,
			city          = EXCLUDED.city,
			social_links  = EXCLUDED.social_links,
			completed     = EXCLUDED.completed,
			updated_at    = now()`

	_, err = r.pool.Exec(ctx, q,
		record.TenantID,
		userIdentity,
		record.ArtistName,
		record.PrimaryGenre,
		record.City,
		links,
		record.Completed,
	)
	if err != nil {
		logx.Error().Err(err).
			Str("tenant_id", record.TenantID).
			Str("user_identity", userIdentity).
			Msg("failed to archive registration")
		return errx.WrapPostgres(err)
	}
	return nil
}

var _ model.TenantRepository = (*PostgresTenantRepository)(nil)
