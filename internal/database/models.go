package database

import "time"

type Release struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Path       string `json:"path,omitempty"`
	TotalDiscs int    `json:"totalDiscs"`
	TrackCount int    `json:"trackCount"`
}

type Track struct {
	ID          int64     `json:"id"`
	ReleaseID   int64     `json:"releaseId,omitempty"`
	Path        string    `json:"path"`
	DiscNumber  int       `json:"discNumber"`
	TrackNumber int       `json:"trackNumber"`
	HasCover    bool      `json:"hasCover"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
