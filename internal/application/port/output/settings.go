package output

import (
	"context"

	"interactai/internal/domain/entity"
)

// SettingsStore is the persistent key-value state owned by the hosting
// environment. Read-modify-write, no versioning.
type SettingsStore interface {
	APIKey(ctx context.Context) (string, error)
	SaveAPIKey(ctx context.Context, key string) error

	Settings(ctx context.Context) (entity.Settings, error)
	SaveSettings(ctx context.Context, s entity.Settings) error

	Close() error
}
