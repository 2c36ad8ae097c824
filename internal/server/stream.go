package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/tts"
)

// streamMessage is a text frame sent on /tts/stream.
type streamMessage struct {
	Type       string `json:"type"`
	Index      int    `json:"index,omitempty"`
	Tokens     int    `json:"tokens,omitempty"`
	Samples    int    `json:"samples,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Status     int    `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream serves one synthesis per connection: the client sends a JSON
// request, the server answers with a "chunk" frame per completed chunk, a
// "done" frame, and the WAV as one binary frame. Failures produce a single
// "error" frame.
func (h *handler) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("request_id", requestID(r.Context())),
			slog.String("error", err.Error()),
		)
		return
	}
	defer conn.Close()

	if h.opts.maxTextBytes > 0 {
		conn.SetReadLimit(int64(h.opts.maxTextBytes) + 4096)
	}
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var req ttsRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.sendError(conn, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	if status, msg := h.validate(req); status != 0 {
		h.sendError(conn, status, msg)
		return
	}

	release, err := h.acquire(ctx)
	if err != nil {
		h.sendError(conn, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
		return
	}

	// OnChunk runs on this goroutine, so frames are never written concurrently.
	// A failed write abandons the synthesis so the worker slot frees early.
	var writeErr error
	onChunk := func(ev tts.ChunkEvent) {
		if writeErr != nil {
			return
		}
		writeErr = h.writeJSONFrame(conn, streamMessage{Type: "chunk", Index: ev.Index, Tokens: ev.Tokens, Samples: ev.Samples})
		if writeErr != nil {
			cancel()
		}
	}

	buf, durationMS, err := h.synthesize(ctx, req, onChunk)
	release()
	if writeErr != nil {
		h.logWriteFailure(ctx, writeErr)
		return
	}
	if err != nil {
		status := statusFor(err)
		h.logFailure(ctx, req, durationMS, status, err)
		h.sendError(conn, status, err.Error())
		return
	}

	wav, err := audio.EncodeWAV(buf.Samples, buf.SampleRate)
	if err != nil {
		h.sendError(conn, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.writeJSONFrame(conn, streamMessage{Type: "done", Samples: len(buf.Samples), DurationMS: durationMS}); err != nil {
		h.logWriteFailure(ctx, err)
		return
	}
	_ = conn.SetWriteDeadline(h.writeDeadline())
	if err := conn.WriteMessage(websocket.BinaryMessage, wav); err != nil {
		h.logWriteFailure(ctx, err)
		return
	}

	h.log.InfoContext(ctx, "stream synthesis complete",
		slog.String("request_id", requestID(ctx)),
		slog.String("voice", req.Voice),
		slog.Int("text_len", len(req.Text)),
		slog.Int64("duration_ms", durationMS),
		slog.Int("wav_bytes", len(wav)),
	)

	h.closeStream(conn)
}

func (h *handler) writeJSONFrame(conn *websocket.Conn, msg streamMessage) error {
	_ = conn.SetWriteDeadline(h.writeDeadline())
	return conn.WriteJSON(msg)
}

func (h *handler) closeStream(conn *websocket.Conn) {
	deadline := h.writeDeadline()
	if deadline.IsZero() {
		deadline = time.Now().Add(time.Second)
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}

func (h *handler) sendError(conn *websocket.Conn, status int, msg string) {
	_ = h.writeJSONFrame(conn, streamMessage{Type: "error", Status: status, Error: msg})
	h.closeStream(conn)
}

func (h *handler) logWriteFailure(ctx context.Context, err error) {
	h.log.WarnContext(ctx, "stream write failed",
		slog.String("request_id", requestID(ctx)),
		slog.String("error", err.Error()),
	)
}
