package controller

import (
	"net/http"

	"github.com/syncsphere/server/internal/platform"
)

func (c controller) getInstall(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{
		"available":    c.installer.Available(),
		"instructions": platform.Instructions(),
	}, nil)
}

func (c controller) install(w http.ResponseWriter, r *http.Request) {
	outcome, err := c.installer.Prompt(r.Context())
	if err != nil {
		writeError(w, r, err, Notification{Title: "Installation Failed", Description: "Could not install the app."})
		return
	}

	notification := &Notification{
		Title:       "Installation Cancelled",
		Description: "You can install the app any time from the main page.",
	}
	if outcome == platform.InstallAccepted {
		notification = &Notification{
			Title:       "Installation Complete!",
			Description: "SyncSphere has been successfully installed.",
		}
	}

	writeData(w, map[string]any{"outcome": outcome}, notification)
}
