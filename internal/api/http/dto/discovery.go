package dto

import "time"

type Frame struct {
	Station    string    `json:"station"`
	Resolution string    `json:"resolution"`
	Timestamp  time.Time `json:"timestamp"`
	URL        string    `json:"url"`
}

type Wav struct {
	Station    string    `json:"station"`
	Timestamp  time.Time `json:"timestamp"`
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	RemotePath string    `json:"remote_path"`
}

type DiscoveryQuery struct {
	Station string `form:"station"`
	Date    string `form:"date" binding:"required"`
}
