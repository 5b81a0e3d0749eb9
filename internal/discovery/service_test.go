package discovery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/cache"
	"github.com/cassandra-vlf/cassandra/internal/frames"
	"github.com/cassandra-vlf/cassandra/internal/remote"
	"github.com/cassandra-vlf/cassandra/internal/search"
	"github.com/cassandra-vlf/cassandra/internal/station"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStrategy is a mock implementation of search.Strategy
type MockStrategy struct {
	mock.Mock
}

func (m *MockStrategy) Name() string {
	return "mock"
}

func (m *MockStrategy) Search(ctx context.Context, st station.Station, date string, kind frames.Kind) ([]string, error) {
	args := m.Called(ctx, st, date, kind)
	lines, _ := args.Get(0).([]string)
	return lines, args.Error(1)
}

// MockSessions is a mock implementation of Sessions
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Keys() []string {
	return m.Called().Get(0).([]string)
}

func (m *MockSessions) Clear() int {
	return m.Called().Int(0)
}

const fileServer = "http://localhost:8080/files"

func testRegistry() *station.Registry {
	return station.NewRegistry(
		station.Station{
			Name:       "Duronia",
			Host:       "duronia.example.org",
			Username:   "vlf",
			RemoteBase: `C:\VLF\Duronia`,
			Password:   "secret",
		},
		station.Station{
			Name:       "Incomplete",
			Host:       "incomplete.example.org",
			RemoteBase: `C:\VLF\Incomplete`,
		},
	)
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestService(t *testing.T, strategy search.Strategy, sessions Sessions) (*Service, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2025, 7, 29, 23, 0, 0, 0, time.UTC)}
	svc, err := NewService(
		testRegistry(),
		strategy,
		frames.NewNormalizer(fileServer),
		sessions,
		CacheConfig{FramesTTL: 5 * time.Minute, WavsTTL: 15 * time.Minute},
		WithCacheOptions(cache.WithClock(clk.Now)),
	)
	require.NoError(t, err)
	return svc, clk
}

func TestService_FramesSortedNewestFirst(t *testing.T) {
	strategy := new(MockStrategy)
	strategy.On("Search", mock.Anything, mock.Anything, "250411", frames.KindImages).Return([]string{
		`C:\VLF\Duronia\LoRes\G1_LoResT_250411UTC0700.jpg`,
		`C:\VLF\Duronia\HiRes\G1_HiResT_250411UTC071530.jpg`,
		`C:\VLF\Duronia\LoRes\thumbs.db`,
	}, nil).Once()

	svc, _ := newTestService(t, strategy, new(MockSessions))

	got, err := svc.Frames(context.Background(), "Duronia", "250411")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, frames.HiRes, got[0].Resolution)
	assert.Equal(t, frames.LoRes, got[1].Resolution)
	assert.Equal(t, time.Date(2025, 4, 11, 7, 0, 0, 0, time.UTC), got[1].Timestamp)
	for _, f := range got {
		assert.Equal(t, "Duronia", f.Station)
		assert.Contains(t, f.URL, fileServer+"/Duronia/")
	}
	assert.Equal(t, fileServer+"/Duronia/LoRes/G1_LoResT_250411UTC0700.jpg", got[1].URL)
}

func TestService_FramesCachedUntilStale(t *testing.T) {
	strategy := new(MockStrategy)
	strategy.On("Search", mock.Anything, mock.Anything, "250411", frames.KindImages).
		Return([]string{`C:\VLF\Duronia\LoRes\G1_LoResT_250411UTC0700.jpg`}, nil).Twice()

	svc, clk := newTestService(t, strategy, new(MockSessions))

	first, err := svc.Frames(context.Background(), "Duronia", "250411")
	require.NoError(t, err)
	second, err := svc.Frames(context.Background(), "Duronia", "250411")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	strategy.AssertNumberOfCalls(t, "Search", 1)

	clk.now = clk.now.Add(5 * time.Minute)
	_, err = svc.Frames(context.Background(), "Duronia", "250411")
	require.NoError(t, err)
	strategy.AssertNumberOfCalls(t, "Search", 2)
}

func TestService_Wavs(t *testing.T) {
	strategy := new(MockStrategy)
	strategy.On("Search", mock.Anything, mock.Anything, "250729", frames.KindAudio).
		Return([]string{`C:\VLF\Duronia\Wav\G8_Audio_29UTC223440.wav`}, nil).Once()

	svc, _ := newTestService(t, strategy, new(MockSessions))

	got, err := svc.Wavs(context.Background(), "Duronia", "250729")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, time.Date(2025, 7, 29, 22, 34, 40, 0, time.UTC), got[0].Timestamp)
	assert.Equal(t, "G8_Audio_29UTC223440.wav", got[0].Filename)
	assert.Equal(t, "C:/VLF/Duronia/Wav/G8_Audio_29UTC223440.wav", got[0].RemotePath)
	assert.Equal(t, fileServer+"/Duronia/Wav/G8_Audio_29UTC223440.wav", got[0].URL)
}

func TestService_EmptyStationUsesDefault(t *testing.T) {
	strategy := new(MockStrategy)
	strategy.On("Search", mock.Anything, mock.MatchedBy(func(st station.Station) bool {
		return st.Name == "Duronia"
	}), "250411", frames.KindImages).Return(nil, nil).Once()

	svc, _ := newTestService(t, strategy, new(MockSessions))
	assert.Equal(t, "Duronia", svc.DefaultStation())

	got, err := svc.Frames(context.Background(), "", "250411")
	require.NoError(t, err)
	assert.Empty(t, got)
	strategy.AssertExpectations(t)
}

func TestService_RequestErrors(t *testing.T) {
	strategy := new(MockStrategy)
	svc, _ := newTestService(t, strategy, new(MockSessions))

	_, err := svc.Frames(context.Background(), "Nowhere", "250411")
	assert.ErrorIs(t, err, station.ErrUnknownStation)

	_, err = svc.Wavs(context.Background(), "Duronia", "2504")
	assert.ErrorIs(t, err, search.ErrInvalidDate)

	_, err = svc.Frames(context.Background(), "Incomplete", "250411")
	assert.ErrorIs(t, err, station.ErrIncompleteStation)

	strategy.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SearchFailureIsNotCached(t *testing.T) {
	strategy := new(MockStrategy)
	strategy.On("Search", mock.Anything, mock.Anything, "250411", frames.KindImages).
		Return(nil, fmt.Errorf("acquire session for Duronia: %w", remote.ErrAuthentication)).Once()
	strategy.On("Search", mock.Anything, mock.Anything, "250411", frames.KindImages).
		Return([]string{`C:\VLF\Duronia\LoRes\G1_LoResT_250411UTC0700.jpg`}, nil).Once()

	svc, _ := newTestService(t, strategy, new(MockSessions))

	_, err := svc.Frames(context.Background(), "Duronia", "250411")
	assert.ErrorIs(t, err, remote.ErrAuthentication)

	got, err := svc.Frames(context.Background(), "Duronia", "250411")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestService_StatusAndClear(t *testing.T) {
	strategy := new(MockStrategy)
	strategy.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	sessions := new(MockSessions)
	sessions.On("Keys").Return([]string{"vlf@duronia.example.org:22"})
	sessions.On("Clear").Return(1).Once()

	svc, clk := newTestService(t, strategy, sessions)

	_, err := svc.Frames(context.Background(), "Duronia", "250411")
	require.NoError(t, err)
	_, err = svc.Wavs(context.Background(), "Duronia", "250729")
	require.NoError(t, err)

	clk.now = clk.now.Add(time.Minute)
	status := svc.Status()
	assert.Equal(t, "mock", status.Strategy)
	assert.Equal(t, []string{"vlf@duronia.example.org:22"}, status.Sessions)
	require.Len(t, status.Caches, 2)
	assert.Equal(t, "images", status.Caches[0].Kind)
	assert.Equal(t, 5*time.Minute, status.Caches[0].TTL)
	require.Len(t, status.Caches[0].Entries, 1)
	assert.Equal(t, time.Minute, status.Caches[0].Entries[0].Age)
	assert.Equal(t, 4*time.Minute, status.Caches[0].Entries[0].Remaining)
	assert.Equal(t, "audio", status.Caches[1].Kind)
	require.Len(t, status.Caches[1].Entries, 1)

	assert.Equal(t, ClearResult{Frames: 1, Wavs: 1, Sessions: 1}, svc.Clear())
	sessions.AssertExpectations(t)
}

func TestNewService_UnknownDefaultStation(t *testing.T) {
	_, err := NewService(testRegistry(), new(MockStrategy), frames.NewNormalizer(fileServer), new(MockSessions),
		CacheConfig{}, WithDefaultStation("Nowhere"))
	assert.ErrorIs(t, err, station.ErrUnknownStation)
}
