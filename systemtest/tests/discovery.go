package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/api/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStations(t *testing.T, router *gin.Engine) {
	rr := doGet(router, "/stations", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["Duronia","Cassino"]`, rr.Body.String())
}

func TestFrames(t *testing.T, router *gin.Engine, fileServer string) {
	t.Run("sorted newest first", func(t *testing.T) {
		rr := doGet(router, "/frames?station=Duronia&date=250411", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var frames []dto.Frame
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &frames))
		require.Len(t, frames, 3)

		for i, f := range frames {
			assert.True(t, strings.HasPrefix(f.URL, fileServer+"/Duronia/"), f.URL)
			if i > 0 {
				assert.False(t, f.Timestamp.After(frames[i-1].Timestamp))
			}
		}

		last := frames[len(frames)-1]
		assert.Equal(t, "LoRes", last.Resolution)
		assert.True(t, last.Timestamp.Equal(time.Date(2025, 4, 11, 7, 0, 0, 0, time.UTC)))
		assert.Equal(t, fileServer+"/Duronia/LoRes/G1_LoResT_250411UTC0700.jpg", last.URL)
	})

	t.Run("second call served from cache", func(t *testing.T) {
		first := doGet(router, "/frames?station=Duronia&date=250411", nil)
		second := doGet(router, "/frames?station=Duronia&date=250411", nil)
		assert.Equal(t, first.Body.String(), second.Body.String())
	})

	t.Run("empty date", func(t *testing.T) {
		rr := doGet(router, "/frames?station=Duronia&date=250101", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("unknown station", func(t *testing.T) {
		rr := doGet(router, "/frames?station=Nowhere&date=250411", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid date", func(t *testing.T) {
		rr := doGet(router, "/frames?station=Duronia&date=25-04-11", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("incomplete station", func(t *testing.T) {
		rr := doGet(router, "/frames?station=Cassino&date=250411", nil)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestWavs(t *testing.T, router *gin.Engine, fileServer string) {
	rr := doGet(router, "/wavs?station=Duronia&date=250729", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var wavs []dto.Wav
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &wavs))
	require.Len(t, wavs, 1)

	assert.Equal(t, "G8_Audio_29UTC223440.wav", wavs[0].Filename)
	assert.True(t, wavs[0].Timestamp.Equal(time.Date(2025, 7, 29, 22, 34, 40, 0, time.UTC)))
	assert.Equal(t, fileServer+"/Duronia/Wav/G8_Audio_29UTC223440.wav", wavs[0].URL)
}

func TestCache(t *testing.T, router *gin.Engine, apiKey string) {
	rr := doGet(router, "/cache/status", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var status dto.CacheStatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, "catalog", status.Strategy)
	assert.Equal(t, 2, status.Caches["images"].Count)
	assert.Equal(t, 1, status.Caches["audio"].Count)

	rr = doGet(router, "/cache/clear", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doGet(router, "/cache/clear", map[string]string{"X-API-Key": apiKey})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"frames":2,"wavs":1,"sessions":0}`, rr.Body.String())
}
