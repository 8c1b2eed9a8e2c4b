package domain

import "errors"

var ErrHistoryEntryNotFound = errors.New("history entry not found")

type HistoryEntry struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Src    string `json:"src"`
	Poster string `json:"poster"`
}

func (e HistoryEntry) Video() Video {
	return Video{Title: e.Title, Src: e.Src, Poster: e.Poster}
}

const sampleBucket = "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/"

func SeedHistory() []HistoryEntry {
	return []HistoryEntry{
		{ID: "1", Title: "Big Buck Bunny", Src: sampleBucket + "BigBuckBunny.mp4", Poster: sampleBucket + "images/BigBuckBunny.jpg"},
		{ID: "2", Title: "Elephants Dream", Src: sampleBucket + "ElephantsDream.mp4", Poster: sampleBucket + "images/ElephantsDream.jpg"},
		{ID: "3", Title: "Sintel", Src: sampleBucket + "Sintel.mp4", Poster: sampleBucket + "images/Sintel.jpg"},
		{ID: "4", Title: "Tears of Steel", Src: sampleBucket + "TearsOfSteel.mp4", Poster: sampleBucket + "images/TearsOfSteel.jpg"},
	}
}
