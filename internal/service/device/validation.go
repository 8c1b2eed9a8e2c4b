package device

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/syncsphere/server/internal/domain"
)

var DeviceIDRule = []validation.Rule{
	validation.Required,
	validation.Length(1, 64),
}

var AppIDRule = []validation.Rule{
	validation.Required,
	validation.Length(1, 64),
}

var FeatureSettingsRule = []validation.Rule{
	validation.By(func(value any) error {
		settings, ok := value.(domain.FeatureSettings)
		if !ok || settings.SpatialAudio == nil {
			return errors.New("at least one feature setting is required")
		}
		return nil
	}),
}
