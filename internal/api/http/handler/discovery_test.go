package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/api/http/dto"
	"github.com/cassandra-vlf/cassandra/internal/cache"
	"github.com/cassandra-vlf/cassandra/internal/discovery"
	"github.com/cassandra-vlf/cassandra/internal/frames"
	"github.com/cassandra-vlf/cassandra/internal/remote"
	"github.com/cassandra-vlf/cassandra/internal/search"
	"github.com/cassandra-vlf/cassandra/internal/station"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDiscoveryService is a mock implementation of DiscoveryService
type MockDiscoveryService struct {
	mock.Mock
}

func (m *MockDiscoveryService) Stations() []string {
	return m.Called().Get(0).([]string)
}

func (m *MockDiscoveryService) Frames(ctx context.Context, st, date string) ([]frames.Frame, error) {
	args := m.Called(ctx, st, date)
	out, _ := args.Get(0).([]frames.Frame)
	return out, args.Error(1)
}

func (m *MockDiscoveryService) Wavs(ctx context.Context, st, date string) ([]frames.Wav, error) {
	args := m.Called(ctx, st, date)
	out, _ := args.Get(0).([]frames.Wav)
	return out, args.Error(1)
}

func (m *MockDiscoveryService) Status() discovery.Status {
	return m.Called().Get(0).(discovery.Status)
}

func (m *MockDiscoveryService) Clear() discovery.ClearResult {
	return m.Called().Get(0).(discovery.ClearResult)
}

func setupDiscoveryRouter(h *DiscoveryHandler) *gin.Engine {
	r := gin.New()
	r.GET("/health", NewHealthHandler().Check)
	r.GET("/stations", h.ListStations)
	r.GET("/frames", h.ListFrames)
	r.GET("/wavs", h.ListWavs)
	r.GET("/cache/status", h.CacheStatus)
	r.GET("/cache/clear", h.ClearCache)
	return r
}

func get(r *gin.Engine, url string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", url, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := setupDiscoveryRouter(NewDiscoveryHandler(new(MockDiscoveryService)))

	w := get(r, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListStations(t *testing.T) {
	svc := new(MockDiscoveryService)
	svc.On("Stations").Return([]string{"Duronia", "Cassino"})
	r := setupDiscoveryRouter(NewDiscoveryHandler(svc))

	w := get(r, "/stations")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Duronia","Cassino"]`, w.Body.String())
}

func TestListFrames(t *testing.T) {
	svc := new(MockDiscoveryService)
	svc.On("Frames", mock.Anything, "Duronia", "250411").Return([]frames.Frame{
		{
			Station:    "Duronia",
			Resolution: frames.HiRes,
			Timestamp:  time.Date(2025, 4, 11, 7, 15, 30, 0, time.UTC),
			URL:        "http://files/Duronia/HiRes/G1_HiResT_250411UTC071530.jpg",
		},
		{
			Station:    "Duronia",
			Resolution: frames.LoRes,
			Timestamp:  time.Date(2025, 4, 11, 7, 0, 0, 0, time.UTC),
			URL:        "http://files/Duronia/LoRes/G1_LoResT_250411UTC0700.jpg",
		},
	}, nil)
	r := setupDiscoveryRouter(NewDiscoveryHandler(svc))

	w := get(r, "/frames?station=Duronia&date=250411")
	require.Equal(t, http.StatusOK, w.Code)

	var resp []dto.Frame
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "HiRes", resp[0].Resolution)
	assert.Equal(t, "LoRes", resp[1].Resolution)
	assert.True(t, resp[1].Timestamp.Equal(time.Date(2025, 4, 11, 7, 0, 0, 0, time.UTC)))
	assert.Contains(t, w.Body.String(), `"timestamp":"2025-04-11T07:00:00Z"`)
}

func TestListFramesEmptyIsArray(t *testing.T) {
	svc := new(MockDiscoveryService)
	svc.On("Frames", mock.Anything, "", "250411").Return([]frames.Frame{}, nil)
	r := setupDiscoveryRouter(NewDiscoveryHandler(svc))

	w := get(r, "/frames?date=250411")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListFramesErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown station", fmt.Errorf("%w: Nowhere", station.ErrUnknownStation), http.StatusBadRequest},
		{"invalid date", fmt.Errorf("%w: \"2504\"", search.ErrInvalidDate), http.StatusBadRequest},
		{"incomplete station", fmt.Errorf("%w: Duronia: host", station.ErrIncompleteStation), http.StatusInternalServerError},
		{"authentication", fmt.Errorf("acquire session for Duronia: %w", remote.ErrAuthentication), http.StatusInternalServerError},
		{"connection", fmt.Errorf("acquire session for Duronia: %w", remote.ErrConnection), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDiscoveryService)
			svc.On("Frames", mock.Anything, "Duronia", "250411").Return(nil, tt.err)
			r := setupDiscoveryRouter(NewDiscoveryHandler(svc))

			w := get(r, "/frames?station=Duronia&date=250411")

			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestListFramesMissingDate(t *testing.T) {
	svc := new(MockDiscoveryService)
	r := setupDiscoveryRouter(NewDiscoveryHandler(svc))

	w := get(r, "/frames?station=Duronia")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Frames", mock.Anything, mock.Anything, mock.Anything)
}

func TestListWavs(t *testing.T) {
	svc := new(MockDiscoveryService)
	svc.On("Wavs", mock.Anything, "Duronia", "250729").Return([]frames.Wav{
		{
			Station:    "Duronia",
			Timestamp:  time.Date(2025, 7, 29, 22, 34, 40, 0, time.UTC),
			Filename:   "G8_Audio_29UTC223440.wav",
			URL:        "http://files/Duronia/Wav/G8_Audio_29UTC223440.wav",
			RemotePath: "C:/VLF/Duronia/Wav/G8_Audio_29UTC223440.wav",
		},
	}, nil)
	r := setupDiscoveryRouter(NewDiscoveryHandler(svc))

	w := get(r, "/wavs?station=Duronia&date=250729")
	require.Equal(t, http.StatusOK, w.Code)

	assert.JSONEq(t, `[{
		"station": "Duronia",
		"timestamp": "2025-07-29T22:34:40Z",
		"filename": "G8_Audio_29UTC223440.wav",
		"url": "http://files/Duronia/Wav/G8_Audio_29UTC223440.wav",
		"remote_path": "C:/VLF/Duronia/Wav/G8_Audio_29UTC223440.wav"
	}]`, w.Body.String())
}

func TestListWavsConnectionFailure(t *testing.T) {
	svc := new(MockDiscoveryService)
	svc.On("Wavs", mock.Anything, "Duronia", "250729").
		Return(nil, fmt.Errorf("%w: dial tcp: i/o timeout", remote.ErrTimeout))
	r := setupDiscoveryRouter(NewDiscoveryHandler(svc))

	w := get(r, "/wavs?station=Duronia&date=250729")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCacheStatus(t *testing.T) {
	svc := new(MockDiscoveryService)
	svc.On("Status").Return(discovery.Status{
		Strategy: "targeted",
		Caches: []discovery.CacheStatus{
			{
				Kind: "images",
				TTL:  5 * time.Minute,
				Entries: []cache.EntryStatus{{
					Key:       cache.Key{Station: "Duronia", Date: "250411", Kind: "images"},
					Records:   12,
					Age:       90 * time.Second,
					Remaining: 210 * time.Second,
					Fresh:     true,
				}},
			},
			{Kind: "audio", TTL: 15 * time.Minute},
		},
		Sessions: []string{"vlf@duronia.example.org:22"},
	})
	r := setupDiscoveryRouter(NewDiscoveryHandler(svc))

	w := get(r, "/cache/status")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.CacheStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "targeted", resp.Strategy)
	assert.Equal(t, []string{"vlf@duronia.example.org:22"}, resp.Sessions)

	images := resp.Caches["images"]
	assert.Equal(t, 300.0, images.TTLSeconds)
	assert.Equal(t, 1, images.Count)
	require.Len(t, images.Entries, 1)
	assert.Equal(t, 90.0, images.Entries[0].AgeSeconds)
	assert.Equal(t, 210.0, images.Entries[0].RemainingSeconds)
	assert.Equal(t, 12, images.Entries[0].Records)

	assert.Equal(t, 0, resp.Caches["audio"].Count)
	assert.NotNil(t, resp.Caches["audio"].Entries)
}

func TestClearCache(t *testing.T) {
	svc := new(MockDiscoveryService)
	svc.On("Clear").Return(discovery.ClearResult{Frames: 3, Wavs: 1, Sessions: 2}).Once()
	r := setupDiscoveryRouter(NewDiscoveryHandler(svc))

	w := get(r, "/cache/clear")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"frames":3,"wavs":1,"sessions":2}`, w.Body.String())
	svc.AssertExpectations(t)
}
