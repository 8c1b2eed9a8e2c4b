package domain

type ViewerStatus string

const (
	ViewerStatusPlaying   ViewerStatus = "Playing"
	ViewerStatusPaused    ViewerStatus = "Paused"
	ViewerStatusBuffering ViewerStatus = "Buffering"
)

type ViewerDevice string

const (
	ViewerDeviceMobile ViewerDevice = "Mobile"
	ViewerDeviceLaptop ViewerDevice = "Laptop"
	ViewerDeviceTV     ViewerDevice = "TV"
)

type Viewer struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Location string       `json:"location"`
	Device   ViewerDevice `json:"device"`
	Status   ViewerStatus `json:"status"`
}

type Viewers []Viewer

// SetStatus puts every viewer into the same status; viewers mirror the shared player.
func (v Viewers) SetStatus(status ViewerStatus) {
	for i := range v {
		v[i].Status = status
	}
}

func SeedViewers() Viewers {
	return Viewers{
		{ID: "1", Name: "Alex's Phone", Location: "Berlin", Device: ViewerDeviceMobile, Status: ViewerStatusPaused},
		{ID: "2", Name: "Jordan's Laptop", Location: "Toronto", Device: ViewerDeviceLaptop, Status: ViewerStatusPaused},
		{ID: "3", Name: "Living Room TV", Location: "Home", Device: ViewerDeviceTV, Status: ViewerStatusPaused},
	}
}
