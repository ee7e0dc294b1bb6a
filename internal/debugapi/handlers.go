package debugapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kurenai-dev/lsmidx/internal/lsm"
)

// getDebugDump serves the structured form of lsm.LSMIndex.Dump: memtable
// size/contents, then each level's size/contents, in ascending level order.
func (s *Server) getDebugDump(c *gin.Context) {
	start := time.Now()

	snap, err := s.index.Snapshot()
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "SNAPSHOT_FAILED", err.Error())
		return
	}

	s.successResponse(c, http.StatusOK, snap, elapsedMs(start))
}

// statsResponse summarizes level occupancy relative to its cascade
// threshold, useful for eyeballing whether a cascade is imminent.
type statsResponse struct {
	MemtableSize int         `json:"memtable_size"`
	LevelCount   int         `json:"level_count"`
	Levels       []levelStat `json:"levels"`
}

type levelStat struct {
	Level     int    `json:"level"`
	Size      uint64 `json:"size"`
	Threshold uint64 `json:"threshold"`
}

func (s *Server) getStats(c *gin.Context) {
	start := time.Now()

	snap, err := s.index.Snapshot()
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "SNAPSHOT_FAILED", err.Error())
		return
	}

	resp := statsResponse{
		MemtableSize: len(snap.Memtable),
		LevelCount:   len(snap.Levels),
	}
	for _, lvl := range snap.Levels {
		resp.Levels = append(resp.Levels, levelStat{
			Level:     lvl.Level,
			Size:      lvl.Size,
			Threshold: lsm.Threshold(lvl.Level),
		})
	}

	s.successResponse(c, http.StatusOK, resp, elapsedMs(start))
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / 1e6
}
