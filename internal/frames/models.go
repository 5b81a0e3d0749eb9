package frames

import "time"

// Kind selects which family of station files a search targets.
type Kind string

const (
	KindImages Kind = "images"
	KindAudio  Kind = "audio"
)

// Resolution is the spectrogram category of an image.
type Resolution string

const (
	LoRes Resolution = "LoRes"
	HiRes Resolution = "HiRes"
)

// Station subfolders holding each category of files.
const (
	SubfolderLoRes = "LoRes"
	SubfolderHiRes = "HiRes"
	SubfolderWav   = "Wav"
)

type Frame struct {
	Station    string
	Resolution Resolution
	Timestamp  time.Time
	URL        string
}

type Wav struct {
	Station    string
	Timestamp  time.Time
	Filename   string
	URL        string
	RemotePath string
}
