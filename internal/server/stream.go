package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/director/internal/core/director"
	"github.com/zeusync/director/internal/core/observability/log"
	"github.com/zeusync/director/internal/core/wave"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// streamFrame is one push on /v1/stream.
type streamFrame struct {
	Seq      uint64                  `json:"seq"`
	Time     time.Time               `json:"time"`
	Counters director.Counters       `json:"counters"`
	Waves    *wave.State             `json:"waves,omitempty"`
	Threats  []director.ThreatRecord `json:"threats"`
}

// handleStream pushes a frame immediately and then once per stream
// interval until the client goes away or the director stops.
func (h *handlers) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// clients only send control frames; a read error means they left
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Debug("stream opened", log.String("remote", r.RemoteAddr))
	defer h.logger.Debug("stream closed", log.String("remote", r.RemoteAddr))

	for seq := uint64(1); ; seq++ {
		frame, err := h.frame(ctx, seq)
		if err != nil {
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "director stopped")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(frame); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *handlers) frame(ctx context.Context, seq uint64) (streamFrame, error) {
	f := streamFrame{Seq: seq, Time: time.Now()}
	err := h.runner.Do(ctx, func(d *director.Director) {
		f.Counters = d.Counters()
		if c := d.Waves(); c != nil {
			ws := c.State()
			f.Waves = &ws
		}
		f.Threats = topN(d.SortedByThreat(h.ref), h.top)
	})
	return f, err
}
