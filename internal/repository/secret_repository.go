package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DefaultSenderKeySecret names the vault secret holding the shared sender key.
const DefaultSenderKeySecret = "JOHAPON_DEFAULT_SENDER_KEY"

// SecretRepositoryInterface resolves sending identities. Implementations
// never fail: lookup errors degrade to the defaults.
type SecretRepositoryInterface interface {
	GetTenantSendingKey(ctx context.Context, tenantID string) (string, error)
	GetDefaultSendingKey(ctx context.Context) string
	GetChannelName(ctx context.Context, tenantID string) string
}

type SecretRepository struct {
	DB *sql.DB
	// FallbackSenderKey is returned when the vault has no default key.
	FallbackSenderKey string
	// DefaultChannelName is returned for tenants without a kakao channel.
	DefaultChannelName string
}

func tenantSecretName(tenantID string) string {
	return fmt.Sprintf("union_%s_sender_key", tenantID)
}

func (r *SecretRepository) lookupSecret(ctx context.Context, name string) (string, error) {
	var secret sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT decrypted_secret FROM vault.decrypted_secrets WHERE name=$1`, name,
	).Scan(&secret)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return secret.String, nil
}

// GetTenantSendingKey returns "" when the tenant has no dedicated key.
func (r *SecretRepository) GetTenantSendingKey(ctx context.Context, tenantID string) (string, error) {
	return r.lookupSecret(ctx, tenantSecretName(tenantID))
}

func (r *SecretRepository) GetDefaultSendingKey(ctx context.Context) string {
	key, err := r.lookupSecret(ctx, DefaultSenderKeySecret)
	if err != nil || key == "" {
		return r.FallbackSenderKey
	}
	return key
}

func (r *SecretRepository) GetChannelName(ctx context.Context, tenantID string) string {
	var channel sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT kakao_channel_id FROM unions WHERE id=$1`, tenantID,
	).Scan(&channel)
	if err != nil || channel.String == "" {
		return r.DefaultChannelName
	}
	return channel.String
}

var _ SecretRepositoryInterface = (*SecretRepository)(nil)
