package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(c.corsMw())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", c.listDevices)
			r.Post("/suggest-volumes", c.suggestVolumes)
			r.Post("/scan", c.scanDevices)
			r.Route("/{device-id}", func(r chi.Router) {
				r.Post("/toggle", c.toggleDevice)
				r.Put("/volume", c.setVolume)
				r.Put("/features", c.updateFeatureSettings)
			})
		})
		r.Route("/system-audio/apps", func(r chi.Router) {
			r.Get("/", c.listApps)
			r.Post("/{app-id}/toggle", c.toggleCapture)
		})
		r.Route("/subtitles", func(r chi.Router) {
			r.Post("/generate", c.generateSubtitle)
			r.Post("/find", c.findSubtitles)
		})
		r.Route("/party", func(r chi.Router) {
			r.Get("/", c.getParty)
			r.Post("/player", c.playerEvent)
			r.Post("/history/{entry-id}/load", c.loadHistory)
			r.Put("/captions", c.updateCaptions)
			r.Post("/subtitles/find", c.findPartySubtitles)
		})
		r.Get("/install", c.getInstall)
		r.Post("/install", c.install)
	})

	r.Get("/ws/party", c.joinParty)

	return r
}

func (c controller) corsMw() func(http.Handler) http.Handler {
	if len(c.allowedOrigins) == 0 {
		return cors.AllowAll().Handler
	}

	return cors.New(cors.Options{
		AllowedOrigins: c.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler
}
