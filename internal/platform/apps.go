package platform

import (
	"context"
	"slices"

	"github.com/syncsphere/server/internal/domain"
)

// AppSource lists applications whose audio could be captured. Without system APIs it only
// knows the apps it was built with, which is none by default.
type AppSource struct {
	apps []domain.App
}

func NewAppSource(apps ...domain.App) *AppSource {
	return &AppSource{apps: apps}
}

func (s *AppSource) Apps(ctx context.Context) ([]domain.App, error) {
	return slices.Clone(s.apps), nil
}
