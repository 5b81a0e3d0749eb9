package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cassandra-vlf/cassandra/internal/api/http/dto"
	"github.com/cassandra-vlf/cassandra/internal/discovery"
	"github.com/cassandra-vlf/cassandra/internal/frames"
	"github.com/cassandra-vlf/cassandra/internal/remote"
	"github.com/cassandra-vlf/cassandra/internal/search"
	"github.com/cassandra-vlf/cassandra/internal/station"
	"github.com/gin-gonic/gin"
)

// DiscoveryService is implemented by *discovery.Service.
type DiscoveryService interface {
	Stations() []string
	Frames(ctx context.Context, station, date string) ([]frames.Frame, error)
	Wavs(ctx context.Context, station, date string) ([]frames.Wav, error)
	Status() discovery.Status
	Clear() discovery.ClearResult
}

type DiscoveryHandler struct {
	service DiscoveryService
}

func NewDiscoveryHandler(service DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{service: service}
}

func (h *DiscoveryHandler) ListStations(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, h.service.Stations())
}

func (h *DiscoveryHandler) ListFrames(ctx *gin.Context) {
	var query dto.DiscoveryQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "date is required (YYMMDD)"})
		return
	}

	found, err := h.service.Frames(ctx.Request.Context(), query.Station, query.Date)
	if err != nil {
		respondError(ctx, err)
		return
	}

	resp := make([]dto.Frame, 0, len(found))
	for _, f := range found {
		resp = append(resp, dto.Frame{
			Station:    f.Station,
			Resolution: string(f.Resolution),
			Timestamp:  f.Timestamp,
			URL:        f.URL,
		})
	}
	ctx.JSON(http.StatusOK, resp)
}

func (h *DiscoveryHandler) ListWavs(ctx *gin.Context) {
	var query dto.DiscoveryQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "date is required (YYMMDD)"})
		return
	}

	found, err := h.service.Wavs(ctx.Request.Context(), query.Station, query.Date)
	if err != nil {
		respondError(ctx, err)
		return
	}

	resp := make([]dto.Wav, 0, len(found))
	for _, w := range found {
		resp = append(resp, dto.Wav{
			Station:    w.Station,
			Timestamp:  w.Timestamp,
			Filename:   w.Filename,
			URL:        w.URL,
			RemotePath: w.RemotePath,
		})
	}
	ctx.JSON(http.StatusOK, resp)
}

func (h *DiscoveryHandler) CacheStatus(ctx *gin.Context) {
	status := h.service.Status()

	resp := dto.CacheStatusResponse{
		Strategy: status.Strategy,
		Caches:   make(map[string]dto.CacheKindStatus, len(status.Caches)),
		Sessions: status.Sessions,
	}
	if resp.Sessions == nil {
		resp.Sessions = []string{}
	}
	for _, c := range status.Caches {
		entries := make([]dto.CacheEntry, 0, len(c.Entries))
		for _, e := range c.Entries {
			entries = append(entries, dto.CacheEntry{
				Station:          e.Key.Station,
				Date:             e.Key.Date,
				Records:          e.Records,
				AgeSeconds:       e.Age.Seconds(),
				RemainingSeconds: e.Remaining.Seconds(),
				Fresh:            e.Fresh,
			})
		}
		resp.Caches[c.Kind] = dto.CacheKindStatus{
			TTLSeconds: c.TTL.Seconds(),
			Count:      len(entries),
			Entries:    entries,
		}
	}
	ctx.JSON(http.StatusOK, resp)
}

func (h *DiscoveryHandler) ClearCache(ctx *gin.Context) {
	cleared := h.service.Clear()
	ctx.JSON(http.StatusOK, dto.CacheClearResponse{
		Frames:   cleared.Frames,
		Wavs:     cleared.Wavs,
		Sessions: cleared.Sessions,
	})
}

// respondError maps discovery failures onto status codes. Request problems
// are the caller's fault; everything that goes wrong reaching a station is
// reported as a server error.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, station.ErrUnknownStation), errors.Is(err, search.ErrInvalidDate):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, station.ErrIncompleteStation):
		slog.Error("Station configuration incomplete", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case errors.Is(err, remote.ErrAuthentication):
		slog.Error("Station rejected credentials", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed: " + err.Error()})
	case errors.Is(err, remote.ErrConnection), errors.Is(err, remote.ErrTimeout):
		slog.Error("Station unreachable", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "connection failed: " + err.Error()})
	default:
		slog.Error("Discovery failed", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
