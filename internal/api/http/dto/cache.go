package dto

type CacheEntry struct {
	Station          string  `json:"station"`
	Date             string  `json:"date"`
	Records          int     `json:"records"`
	AgeSeconds       float64 `json:"age_seconds"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	Fresh            bool    `json:"fresh"`
}

type CacheKindStatus struct {
	TTLSeconds float64      `json:"ttl_seconds"`
	Count      int          `json:"count"`
	Entries    []CacheEntry `json:"entries"`
}

type CacheStatusResponse struct {
	Strategy string                     `json:"strategy"`
	Caches   map[string]CacheKindStatus `json:"caches"`
	Sessions []string                   `json:"sessions"`
}

type CacheClearResponse struct {
	Frames   int `json:"frames"`
	Wavs     int `json:"wavs"`
	Sessions int `json:"sessions"`
}
