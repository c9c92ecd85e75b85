package apps

import (
	"context"
	"fmt"

	"github.com/haasonsaas/concierge/internal/broker"
	"github.com/haasonsaas/concierge/internal/observability"
	"github.com/haasonsaas/concierge/pkg/models"
)

// LoadTools fetches tool definitions for every registered app, or only the
// apps named in requiredApps when non-empty. Apps that fail to load are
// reported in the returned error list; the rest still load. Slugs the broker
// no longer knows are silently dropped.
func LoadTools(ctx context.Context, b broker.Broker, registry *Registry, userID string, requiredApps []string, logger *observability.Logger) ([]models.ToolDefinition, []error) {
	if logger == nil {
		logger = observability.NewDefaultLogger()
	}
	logger = logger.WithComponent("toolloader")

	var requested map[string]bool
	if len(requiredApps) > 0 {
		requested = make(map[string]bool, len(requiredApps))
		for _, app := range requiredApps {
			if app != "" {
				requested[NormalizeAppID(app)] = true
			}
		}
	}

	var tools []models.ToolDefinition
	var errs []error

	for _, capability := range registry.All() {
		if requested != nil && !requested[capability.ID()] {
			continue
		}

		loaded, err := b.FetchTools(ctx, userID, capability.ToolSlugs())
		if err != nil {
			logger.Warn(ctx, "tool load failed", "app", capability.ID(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", DisplayName(capability.ID()), err))
			continue
		}
		if len(loaded) < len(capability.ToolSlugs()) {
			logger.Debug(ctx, "some tools unavailable",
				"app", capability.ID(),
				"requested", len(capability.ToolSlugs()),
				"loaded", len(loaded),
			)
		}
		tools = append(tools, loaded...)
	}
	return tools, errs
}
