package services

import (
	"context"
	"fmt"

	"github.com/tradeboard/backend/src/logger"
	"github.com/tradeboard/backend/src/models"
	"github.com/tradeboard/backend/src/security/validation"
	"github.com/tradeboard/backend/src/storage"
)

const closeBlocField = "closeBloc_allTrade"

type configServiceImpl struct {
	backend storage.Backend
}

func NewConfigService(backend storage.Backend) ConfigService {
	return &configServiceImpl{backend: backend}
}

func (s *configServiceImpl) Get(ctx context.Context) (models.DashboardConfig, error) {
	cfg, err := s.backend.GetConfig(ctx)
	if err != nil {
		return models.DashboardConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Patch accepts either {closeBloc_allTrade: bool} or
// {section, enabled?, distance_pips?}. The two shapes cannot be mixed.
func (s *configServiceImpl) Patch(ctx context.Context, payload Payload) (any, error) {
	rawFlag, hasFlag := payload[closeBlocField]
	rawSection, hasSection := payload["section"]

	if hasFlag && hasSection {
		return nil, validation.Failf("'%s' and 'section' cannot be combined", closeBlocField)
	}

	if hasFlag {
		flag, err := validation.AsBool(rawFlag, closeBlocField)
		if err != nil {
			return nil, err
		}
		if _, err := s.backend.PatchConfig(ctx, func(c *models.DashboardConfig) {
			c.CloseBlocAllTrades = flag
		}); err != nil {
			return nil, fmt.Errorf("patch config: %w", err)
		}
		logger.FromContext(ctx).Info("Config updated", "field", closeBlocField, "value", flag)
		return map[string]bool{closeBlocField: flag}, nil
	}

	if !hasSection {
		return nil, validation.Failf("either '%s' or 'section' is required", closeBlocField)
	}
	section, _ := rawSection.(string)
	probe := models.DefaultDashboardConfig()
	if probe.Section(section) == nil {
		return nil, validation.Failf("invalid section '%v': choose '%s' or '%s'",
			rawSection, models.SectionAutoStopLoss, models.SectionTrailingStop)
	}

	var enabled *bool
	if raw, ok := payload["enabled"]; ok {
		v, err := validation.AsBool(raw, "enabled")
		if err != nil {
			return nil, err
		}
		enabled = &v
	}
	var distance *int
	if raw, ok := payload["distance_pips"]; ok {
		v, err := validation.AsStrictInt(raw, "distance_pips")
		if err != nil || v < 0 {
			return nil, validation.Failf("distance_pips must be a non-negative integer")
		}
		d := int(v)
		distance = &d
	}

	updated, err := s.backend.PatchConfig(ctx, func(c *models.DashboardConfig) {
		target := c.Section(section)
		if enabled != nil {
			target.Enabled = *enabled
		}
		if distance != nil {
			target.DistancePips = *distance
		}
	})
	if err != nil {
		return nil, fmt.Errorf("patch config: %w", err)
	}

	result := *updated.Section(section)
	logger.FromContext(ctx).Info("Config updated", "section", section,
		"enabled", result.Enabled, "distancePips", result.DistancePips)
	return result, nil
}
