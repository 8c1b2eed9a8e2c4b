package controller

import (
	"context"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/syncsphere/server/internal/domain"
	"github.com/syncsphere/server/internal/flow"
	"github.com/syncsphere/server/internal/platform"
	"github.com/syncsphere/server/internal/service/device"
	"github.com/syncsphere/server/internal/service/party"
	"github.com/syncsphere/server/pkg/validator"
)

type iDeviceService interface {
	List(context.Context) []domain.Device
	Toggle(ctx context.Context, deviceID string) (domain.Device, error)
	SetVolume(context.Context, *device.SetVolumeParams) (domain.Device, error)
	UpdateFeatureSettings(context.Context, *device.UpdateFeatureSettingsParams) (domain.Device, error)
	SuggestVolumes(context.Context) (device.SuggestVolumesResponse, error)
	Scan(context.Context) (device.ScanResponse, error)
	Apps(context.Context) []domain.App
	ToggleCapture(ctx context.Context, appID string) (domain.App, error)
}

type iPartyService interface {
	State(context.Context) party.State
	PlayerEvent(context.Context, domain.PlayerEvent) (party.State, error)
	LoadHistory(ctx context.Context, entryID string) (party.State, error)
	UpdateCaptions(context.Context, *party.UpdateCaptionsParams) (party.State, error)
	FindSubtitles(context.Context) (flow.FindSubtitlesResult, error)
}

type iSubtitleGenerator interface {
	Generate(context.Context, flow.SubtitleInput) (string, error)
}

type iSubtitleFinder interface {
	Find(ctx context.Context, videoTitle string) (flow.FindSubtitlesResult, error)
}

type iConnRepo interface {
	Add(conn *websocket.Conn, clientID string) error
	RemoveByConn(*websocket.Conn) error
	Send(conn *websocket.Conn, v any) error
	Len() int
}

type iInstaller interface {
	Available() bool
	Prompt(context.Context) (platform.InstallOutcome, error)
}

type Params struct {
	DeviceService     iDeviceService
	PartyService      iPartyService
	SubtitleGenerator iSubtitleGenerator
	SubtitleFinder    iSubtitleFinder
	ConnRepo          iConnRepo
	Installer         iInstaller
	AllowedOrigins    []string
}

type controller struct {
	deviceService     iDeviceService
	partyService      iPartyService
	subtitleGenerator iSubtitleGenerator
	subtitleFinder    iSubtitleFinder
	connRepo          iConnRepo
	installer         iInstaller
	allowedOrigins    []string
	upgrader          websocket.Upgrader
	validate          *validator.Validator
}

func NewController(params *Params) *controller {
	return &controller{
		deviceService:     params.DeviceService,
		partyService:      params.PartyService,
		subtitleGenerator: params.SubtitleGenerator,
		subtitleFinder:    params.SubtitleFinder,
		connRepo:          params.ConnRepo,
		installer:         params.Installer,
		allowedOrigins:    params.AllowedOrigins,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return len(params.AllowedOrigins) == 0 ||
					slices.Contains(params.AllowedOrigins, r.Header.Get("Origin"))
			},
		},
		validate: validator.NewValidator(),
	}
}
