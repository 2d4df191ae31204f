package driving

import "github.com/mobilemutex/zim-mcp/internal/core/domain"

// SettingsService resolves the effective application settings.
type SettingsService interface {
	// Get returns defaults overlaid with the config file and environment.
	Get() (*domain.Settings, error)

	// Set persists one configuration key.
	Set(key string, value any) error
}
