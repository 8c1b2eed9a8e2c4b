package domain

import "errors"

var ErrAppNotFound = errors.New("app not found")

// App is a running application whose audio can be routed to the selected devices.
type App struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Captured bool   `json:"captured"`
}
