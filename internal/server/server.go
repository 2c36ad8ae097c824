package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/config"
	"github.com/example/go-kokoro-tts/internal/errs"
	"github.com/example/go-kokoro-tts/internal/tts"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Synthesizer renders text and lists voices. *tts.Service satisfies it.
type Synthesizer interface {
	Synthesize(ctx context.Context, req tts.Request) (*audio.Buffer, error)
	Voices() []string
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	writeTimeout   time.Duration
	rateLimit      float64
	rateBurst      int
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   8192,
		workers:        1,
		requestTimeout: 120 * time.Second,
		writeTimeout:   30 * time.Second,
		rateBurst:      4,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes for POST /tts.
// Zero disables the limit.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent synthesis calls.
// Zero disables the limit.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request synthesis deadline. Zero disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithWriteTimeout bounds each response write, so a client that stops reading
// cannot pin a connection. Zero disables it.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) { o.writeTimeout = d }
}

// WithRateLimit accepts at most perSecond synthesis requests per second with
// the given burst. A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		o.rateLimit = perSecond
		o.rateBurst = burst
	}
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	synth   Synthesizer
	opts    options
	sem     *semaphore.Weighted // nil when unlimited
	limiter *rate.Limiter       // nil when unlimited
	log     *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, /voices, POST /tts
// and the /tts/stream WebSocket.
func NewHandler(synth Synthesizer, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		synth: synth,
		opts:  opts,
		log:   opts.logger,
	}
	if opts.workers > 0 {
		h.sem = semaphore.NewWeighted(int64(opts.workers))
	}
	if opts.rateLimit > 0 {
		burst := max(opts.rateBurst, 1)
		h.limiter = rate.NewLimiter(rate.Limit(opts.rateLimit), burst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/voices", h.handleVoices)
	mux.HandleFunc("/tts", h.limited(h.handleTTS))
	mux.HandleFunc("/tts/stream", h.limited(h.handleStream))
	return withRequestID(mux)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

func (h *handler) handleVoices(w http.ResponseWriter, _ *http.Request) {
	voices := h.synth.Voices()
	if voices == nil {
		voices = []string{}
	}
	writeJSON(w, http.StatusOK, voices)
}

type ttsRequest struct {
	Text     string  `json:"text"`
	Voice    string  `json:"voice"`
	Speed    float64 `json:"speed"`
	Language string  `json:"language"`
}

// validate returns an HTTP status and message when req is unacceptable.
func (h *handler) validate(req ttsRequest) (int, string) {
	if strings.TrimSpace(req.Text) == "" {
		return http.StatusBadRequest, "text field is required"
	}
	if h.opts.maxTextBytes > 0 && len(req.Text) > h.opts.maxTextBytes {
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes)
	}
	if req.Speed < 0 || req.Speed > 4 {
		return http.StatusBadRequest, "speed must be within [0, 4]"
	}
	return 0, ""
}

func (h *handler) handleTTS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}

	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if status, msg := h.validate(req); status != 0 {
		writeError(w, status, msg)
		return
	}

	release, err := h.acquire(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
		return
	}
	buf, durationMS, err := h.synthesize(r.Context(), req, nil)
	release()
	if err != nil {
		status := statusFor(err)
		h.logFailure(r.Context(), req, durationMS, status, err)
		writeError(w, status, err.Error())
		return
	}

	wav, err := audio.EncodeWAV(buf.Samples, buf.SampleRate)
	if err != nil {
		h.logFailure(r.Context(), req, durationMS, http.StatusInternalServerError, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.InfoContext(r.Context(), "synthesis complete",
		slog.String("request_id", requestID(r.Context())),
		slog.String("voice", req.Voice),
		slog.Int("text_len", len(req.Text)),
		slog.Int64("duration_ms", durationMS),
		slog.Int("samples", len(buf.Samples)),
		slog.Int("wav_bytes", len(wav)),
	)

	// Recorders in tests do not support deadlines; that error is harmless.
	_ = http.NewResponseController(w).SetWriteDeadline(h.writeDeadline())
	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(wav); err != nil {
		h.log.WarnContext(r.Context(), "response write failed",
			slog.String("request_id", requestID(r.Context())),
			slog.String("error", err.Error()),
		)
	}
}

// writeDeadline is the deadline for the next response write; zero means none.
func (h *handler) writeDeadline() time.Time {
	if h.opts.writeTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(h.opts.writeTimeout)
}

// acquire takes a worker slot, honouring cancellation while waiting.
func (h *handler) acquire(ctx context.Context) (func(), error) {
	if h.sem == nil {
		return func() {}, nil
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { h.sem.Release(1) }, nil
}

// synthesize runs one request under the per-request deadline.
func (h *handler) synthesize(ctx context.Context, req ttsRequest, onChunk func(tts.ChunkEvent)) (*audio.Buffer, int64, error) {
	if h.opts.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.requestTimeout)
		defer cancel()
	}

	start := time.Now()
	buf, err := h.synth.Synthesize(ctx, tts.Request{
		Text:     req.Text,
		Voice:    req.Voice,
		Speed:    req.Speed,
		Language: req.Language,
		OnChunk:  onChunk,
	})
	return buf, time.Since(start).Milliseconds(), err
}

func (h *handler) logFailure(ctx context.Context, req ttsRequest, durationMS int64, status int, err error) {
	msg, level := "synthesis failed", slog.LevelError
	if status == http.StatusGatewayTimeout {
		msg, level = "synthesis timed out", slog.LevelWarn
	} else if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	h.log.Log(ctx, level, msg,
		slog.String("request_id", requestID(ctx)),
		slog.String("voice", req.Voice),
		slog.Int("text_len", len(req.Text)),
		slog.Int64("duration_ms", durationMS),
		slog.Int("status", status),
		slog.String("kind", errs.KindOf(err).String()),
		slog.String("error", err.Error()),
	)
}

// statusFor maps a synthesis error onto an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusGatewayTimeout
	}
	switch errs.KindOf(err) {
	case errs.KindUnknownVoice, errs.KindEmptyTokenization:
		return http.StatusBadRequest
	case errs.KindToolNotFound:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// limited rejects requests beyond the configured rate with 429.
func (h *handler) limited(next http.HandlerFunc) http.HandlerFunc {
	if h.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

type requestIDKey struct{}

// withRequestID tags each request with the caller's X-Request-ID or a fresh
// UUID and echoes it in the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	synth           Synthesizer
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

func New(cfg config.Config, synth Synthesizer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	shutdown := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if shutdown <= 0 {
		shutdown = 30 * time.Second
	}
	return &Server{
		cfg:             cfg,
		synth:           synth,
		logger:          logger,
		shutdownTimeout: shutdown,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// Handler builds the request handler from the server config.
func (s *Server) Handler() http.Handler {
	return NewHandler(s.synth,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithWriteTimeout(time.Duration(s.cfg.Server.WriteTimeout)*time.Second),
		WithRateLimit(s.cfg.Server.RateLimit, s.cfg.Server.RateBurst),
		WithLogger(s.logger),
	)
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	if s.synth == nil {
		return errors.New("server: no synthesizer configured")
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.Info("http server listening", "addr", s.cfg.Server.ListenAddr, "workers", s.cfg.Server.Workers)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// ProbeHTTP checks that a server at addr answers /health with 200.
func ProbeHTTP(ctx context.Context, addr string) error {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
