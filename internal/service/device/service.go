package device

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/flow"
)

var (
	ErrNoDevicesSelected    = errors.New("no devices selected")
	ErrSuggestionInProgress = errors.New("volume suggestion already in progress")
	ErrScanInProgress       = errors.New("device scan already in progress")
)

type iDeviceRepo interface {
	GetDevices(context.Context) ([]domain.Device, error)
	SetDevices(context.Context, []domain.Device) error
}

type iVolumeSuggester interface {
	Suggest(context.Context, []flow.VolumeDevice) (map[string]int, error)
}

type iScanner interface {
	Scan(context.Context) ([]domain.Device, error)
}

type iAppSource interface {
	Apps(context.Context) ([]domain.App, error)
}

// Service owns the device list of the audio screen. Every change is written to the
// device repo; write failures are logged and the in-memory list stays authoritative.
type Service struct {
	deviceRepo iDeviceRepo
	suggester  iVolumeSuggester
	scanner    iScanner
	appSource  iAppSource

	mu      sync.Mutex
	devices []domain.Device
	apps    []domain.App

	suggesting atomic.Bool
	scanning   atomic.Bool
}

func NewService(deviceRepo iDeviceRepo, suggester iVolumeSuggester, scanner iScanner, appSource iAppSource) *Service {
	return &Service{
		deviceRepo: deviceRepo,
		suggester:  suggester,
		scanner:    scanner,
		appSource:  appSource,
		devices:    domain.SeedDevices(),
	}
}

// Load reads the cached device list, falling back to the seed list when the cache is
// missing or unreadable, and writes the result back.
func (s *Service) Load(ctx context.Context) {
	devices, err := s.deviceRepo.GetDevices(ctx)
	if err != nil {
		slog.WarnContext(ctx, "using seed devices", "reason", err)
		devices = domain.SeedDevices()
	}
	for i := range devices {
		devices[i].Volume = domain.ClampVolume(devices[i].Volume)
	}

	apps, err := s.appSource.Apps(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to list system audio apps", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.devices = devices
	s.apps = apps
	s.persist(ctx)

	slog.InfoContext(ctx, "devices loaded", "count", len(devices))
}

// persist must be called with mu held.
func (s *Service) persist(ctx context.Context) {
	if err := s.deviceRepo.SetDevices(ctx, s.devices); err != nil {
		slog.WarnContext(ctx, "failed to persist devices", "error", err)
	}
}

// find must be called with mu held.
func (s *Service) find(id string) (*domain.Device, error) {
	for i := range s.devices {
		if s.devices[i].ID == id {
			return &s.devices[i], nil
		}
	}

	return nil, domain.ErrDeviceNotFound
}

func (s *Service) List(ctx context.Context) []domain.Device {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.CloneDevices(s.devices)
}

// nextID returns the smallest numeric id above every numeric id in the list.
// Must be called with mu held.
func (s *Service) nextID() string {
	next := 1
	taken := make(map[string]struct{}, len(s.devices))
	for _, d := range s.devices {
		taken[d.ID] = struct{}{}
		if n, err := strconv.Atoi(d.ID); err == nil && n >= next {
			next = n + 1
		}
	}
	for {
		id := strconv.Itoa(next)
		if _, ok := taken[id]; !ok {
			return id
		}
		next++
	}
}
