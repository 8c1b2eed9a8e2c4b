package platform

import (
	"context"
	"errors"
)

var ErrInstallUnavailable = errors.New("installation not available")

type InstallOutcome string

const (
	InstallAccepted  InstallOutcome = "accepted"
	InstallDismissed InstallOutcome = "dismissed"
)

// InstallPrompt stands in for the browser's deferred install prompt. The server never
// receives one, so it is never available.
type InstallPrompt struct{}

func (InstallPrompt) Available() bool {
	return false
}

func (InstallPrompt) Prompt(ctx context.Context) (InstallOutcome, error) {
	return "", ErrInstallUnavailable
}

type InstallInstructions struct {
	OS    string   `json:"os"`
	Steps []string `json:"steps"`
}

func Instructions() []InstallInstructions {
	return []InstallInstructions{
		{
			OS: "Windows & Linux (Chrome/Edge)",
			Steps: []string{
				"Open SyncSphere in your Chrome or Edge browser.",
				"Look for the 'Install' icon in the address bar, usually on the right side.",
				"Click the icon and then click 'Install' in the prompt that appears.",
				"The app will be added to your desktop and Start Menu.",
			},
		},
		{
			OS: "macOS (Chrome/Edge)",
			Steps: []string{
				"Open SyncSphere in your Chrome or Edge browser.",
				"Click the 'Install' icon in the address bar.",
				"Confirm the installation to add SyncSphere to your Applications folder.",
				"You can launch it from the Launchpad or Dock like any other app.",
			},
		},
		{
			OS: "Android (Chrome)",
			Steps: []string{
				"Open SyncSphere in the Chrome browser on your Android device.",
				"Tap the three-dot menu icon in the top-right corner.",
				"Select 'Install app' or 'Add to Home screen' from the menu.",
				"Follow the on-screen prompts to add the app icon to your home screen.",
			},
		},
	}
}
