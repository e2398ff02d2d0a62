// Package percept is the inference orchestration core of go-lumen.
//
// It owns the pipeline mode, routes each camera frame to the right model
// combination, stabilizes noisy predictions before they reach the user, and
// adapts its own workload to the device battery. A single Orchestrator is
// constructed at startup with its adapter collaborators injected; nothing
// here reaches into global state.
//
// The central invariant is at-most-one-in-flight: a frame arriving while a
// previous one is still being processed gets a synchronous Skipped result
// instead of queueing. Camera frames are disposable, a dropped frame is
// replaced 33ms later, so bounding the backlog matters more than
// processing every frame.
package percept

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlabs/go-lumen/pkg/alerting"
	"github.com/lumenlabs/go-lumen/pkg/battery"
	"github.com/lumenlabs/go-lumen/pkg/detection"
	"github.com/lumenlabs/go-lumen/pkg/sign"
	"github.com/lumenlabs/go-lumen/pkg/speech"
)

// Orchestrator is the single entry point for the perception pipeline.
type Orchestrator struct {
	// mu guards config and the per-mode transient state (smoother,
	// sequence buffer, phrase run, duplicate gate). It is held for the
	// duration of a frame pass, which is what makes mode switches atomic
	// relative to frame processing.
	mu sync.Mutex

	cfg Config

	initialized atomic.Bool
	disposed    atomic.Bool

	// mode is atomic so busy-skip results can stamp it without the lock.
	mode atomic.Int32

	// Adapters (external capabilities, injected)
	cnn      sign.FramePredictor
	lstm     sign.SequencePredictor
	detector detection.Detector
	sink     speech.Sink
	power    battery.Monitor

	// Pipeline components
	smoother *sign.Smoother
	seq      *sign.SequenceBuffer
	phrases  *sign.PhraseMapper
	alerts   *alerting.Engine
	gate     *duplicateGate

	// Accumulated recognized signs for the current translation session.
	aslSeq []string

	// Throttling state
	throttleSeq uint64

	history *resultRing
	stats   *stats

	logger *slog.Logger
	now    func() time.Time
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) { o.cfg = cfg }
}

// WithFramePredictor injects the static-sign (CNN) adapter.
func WithFramePredictor(p sign.FramePredictor) Option {
	return func(o *Orchestrator) { o.cnn = p }
}

// WithSequencePredictor injects the dynamic-sign (LSTM) adapter.
func WithSequencePredictor(p sign.SequencePredictor) Option {
	return func(o *Orchestrator) { o.lstm = p }
}

// WithDetector injects the object-detection adapter.
func WithDetector(d detection.Detector) Option {
	return func(o *Orchestrator) { o.detector = d }
}

// WithSpeechSink injects the sink alerts are spoken through.
func WithSpeechSink(s speech.Sink) Option {
	return func(o *Orchestrator) { o.sink = s }
}

// WithBattery injects the battery monitor for adaptive throttling.
func WithBattery(m battery.Monitor) Option {
	return func(o *Orchestrator) { o.power = m }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger.With("component", "percept") }
}

// WithClock overrides the orchestrator clock for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New constructs an orchestrator. Call Initialize before processing frames.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    DefaultConfig(),
		logger: slog.Default().With("component", "percept"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Initialize validates configuration and builds per-session state. It is
// idempotent; a second call is a no-op.
func (o *Orchestrator) Initialize(ctx context.Context, mode Mode) error {
	if o.disposed.Load() {
		return ErrDisposed
	}
	if o.initialized.Load() {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.cfg.Validate(); err != nil {
		return err
	}

	o.mode.Store(int32(mode))
	o.smoother = sign.NewSmoother(o.cfg.SmootherWindow, o.cfg.StaticConfidenceThreshold)
	o.seq = sign.NewSequenceBuffer(o.cfg.SequenceLength, o.cfg.TemporalWindow)
	o.phrases = sign.NewPhraseMapper()
	if o.cfg.DuplicateGate {
		o.gate = newDuplicateGate(o.cfg.DuplicateDistance)
	}
	if o.sink != nil {
		o.alerts = alerting.NewEngine(o.sink,
			alerting.WithCooldown(o.cfg.AlertCooldown),
			alerting.WithMaxPerFrame(o.cfg.AlertsPerFrame),
		)
	}
	o.history = newResultRing(o.cfg.ResultHistory)
	o.stats = newStats(o.cfg.PerformanceWindow)

	o.initialized.Store(true)
	o.logger.Info("pipeline initialized", "mode", mode.String())
	return nil
}

// ProcessFrame runs one camera frame through the pipeline for the current
// mode. It never blocks on a previous frame and never propagates adapter
// failures: every outcome is a Result.
func (o *Orchestrator) ProcessFrame(ctx context.Context, jpeg []byte) Result {
	if !o.initialized.Load() {
		return Result{
			ID:        uuid.NewString(),
			Kind:      KindError,
			Err:       ErrNotInitialized,
			Timestamp: o.now(),
		}
	}

	// At-most-one-in-flight: a frame arriving mid-pass (or mid mode
	// switch) is skipped synchronously, never queued.
	if !o.mu.TryLock() {
		o.stats.recordSkip(SkipBusy)
		return o.skipped(SkipBusy)
	}
	defer o.mu.Unlock()

	mode := Mode(o.mode.Load())
	switch mode {
	case ModeTranslation, ModeDetection:
	default:
		o.stats.recordSkip(SkipModeInactive)
		return o.skipped(SkipModeInactive)
	}

	if o.throttled(ctx) {
		o.stats.recordSkip(SkipThrottled)
		return o.skipped(SkipThrottled)
	}

	if o.gate != nil && o.gate.duplicate(jpeg) {
		o.stats.recordSkip(SkipDuplicate)
		return o.skipped(SkipDuplicate)
	}

	start := o.now()
	var res Result
	switch mode {
	case ModeTranslation:
		res = o.processTranslation(ctx, jpeg)
	case ModeDetection:
		res = o.processDetection(ctx, jpeg)
	}

	res.ID = uuid.NewString()
	res.Mode = mode
	res.Timestamp = o.now()
	res.ProcessingTime = res.Timestamp.Sub(start)

	if res.Kind == KindError {
		o.stats.recordError()
	}
	o.stats.record(PerformanceSample{
		Timestamp:      res.Timestamp,
		ProcessingTime: res.ProcessingTime,
		Mode:           mode,
	})
	o.history.append(res)
	return res
}

// processTranslation routes a frame through the CNN, then feeds the
// prediction to both the smoother (static signs) and the sequence buffer
// (dynamic signs). Both paths run on every frame; a dynamic sign takes
// precedence over a static one produced by the same frame.
func (o *Orchestrator) processTranslation(ctx context.Context, jpeg []byte) Result {
	pred, err := o.predictFrame(ctx, jpeg)
	if err != nil {
		o.logger.Warn("cnn predict failed", "error", err)
		return Result{Kind: KindError, Err: err}
	}
	if pred == nil {
		// Below the model's own confidence floor: nothing to smooth.
		return Result{Kind: KindSign}
	}

	static := o.smoother.Observe(*pred)

	var dynamic *sign.StableSign
	if o.seq.Add(jpeg, *pred) {
		snapshot := o.seq.Snapshot()
		o.seq.Reset()

		dynamic, err = o.predictSequence(ctx, snapshot)
		if err != nil {
			o.logger.Warn("sequence predict failed", "error", err)
			if static == nil {
				return Result{Kind: KindError, Err: err}
			}
			// The static path already produced a sign this frame;
			// surface it and let the next window retry.
			dynamic = nil
		}
		if dynamic != nil && dynamic.Confidence < o.cfg.DynamicConfidenceThreshold {
			dynamic = nil
		}
	}

	chosen := dynamic
	if chosen == nil {
		chosen = static
	}
	if chosen != nil {
		mapped := o.phrases.Observe(*chosen)
		chosen = &mapped
		o.aslSeq = append(o.aslSeq, mapped.Label)
		o.logger.Debug("stable sign",
			"label", mapped.Label,
			"kind", string(mapped.Kind),
			"confidence", mapped.Confidence,
		)
	}
	return Result{Kind: KindSign, Sign: chosen}
}

// processDetection routes a frame through the detector and the alert engine.
func (o *Orchestrator) processDetection(ctx context.Context, jpeg []byte) Result {
	objects, err := o.detect(jpeg)
	if err != nil {
		o.logger.Warn("detect failed", "error", err)
		return Result{Kind: KindError, Err: err}
	}

	var summary alerting.Summary
	if o.cfg.AudioAlerts && o.alerts != nil {
		summary = o.alerts.Process(ctx, objects)
	}
	return Result{Kind: KindDetection, Detections: objects, Alerts: summary}
}

// predictFrame calls the CNN adapter, converting panics to errors so one
// misbehaving model never takes the stream down.
func (o *Orchestrator) predictFrame(ctx context.Context, jpeg []byte) (pred *sign.Prediction, err error) {
	if o.cnn == nil {
		return nil, wrapAdapter("cnn", fmt.Errorf("adapter not configured"))
	}
	defer func() {
		if r := recover(); r != nil {
			pred, err = nil, wrapAdapter("cnn", fmt.Errorf("panic: %v", r))
		}
	}()
	pred, err = o.cnn.Predict(ctx, jpeg)
	if err != nil {
		return nil, wrapAdapter("cnn", err)
	}
	return pred, nil
}

// predictSequence calls the LSTM adapter with the same panic isolation.
func (o *Orchestrator) predictSequence(ctx context.Context, window []sign.WindowEntry) (s *sign.StableSign, err error) {
	if o.lstm == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, wrapAdapter("lstm", fmt.Errorf("panic: %v", r))
		}
	}()
	s, err = o.lstm.Predict(ctx, window)
	if err != nil {
		return nil, wrapAdapter("lstm", err)
	}
	return s, nil
}

// detect calls the detector adapter with the same panic isolation.
func (o *Orchestrator) detect(jpeg []byte) (objects []detection.Object, err error) {
	if o.detector == nil {
		return nil, wrapAdapter("detector", fmt.Errorf("adapter not configured"))
	}
	defer func() {
		if r := recover(); r != nil {
			objects, err = nil, wrapAdapter("detector", fmt.Errorf("panic: %v", r))
		}
	}()
	objects, err = o.detector.Detect(jpeg)
	if err != nil {
		return nil, wrapAdapter("detector", err)
	}
	return objects, nil
}

// throttled decides whether adaptive throttling drops this frame. The drop
// ratio grows as the battery falls: at or below the low threshold every
// second frame is dropped, below half of it two of three, below a quarter
// three of four. Battery read failures disable throttling for the frame.
func (o *Orchestrator) throttled(ctx context.Context) bool {
	if !o.cfg.AdaptiveInference || o.power == nil {
		return false
	}
	level, err := o.power.Level(ctx)
	if err != nil {
		o.logger.Debug("battery read failed", "error", err)
		return false
	}
	if level > o.cfg.LowBatteryThreshold {
		return false
	}

	k := uint64(2)
	if level <= o.cfg.LowBatteryThreshold/2 {
		k = 3
	}
	if level <= o.cfg.LowBatteryThreshold/4 {
		k = 4
	}

	o.throttleSeq++
	return o.throttleSeq%k != 0
}

// skipped builds a Skipped result. Skips are not appended to the history
// ring; they carry no model output.
func (o *Orchestrator) skipped(reason SkipReason) Result {
	return Result{
		ID:         uuid.NewString(),
		Kind:       KindSkipped,
		Mode:       Mode(o.mode.Load()),
		SkipReason: reason,
		Timestamp:  o.now(),
	}
}

// SwitchMode atomically changes the pipeline mode and clears all per-mode
// transient state. Adapters are not reinitialized; performance counters
// persist.
func (o *Orchestrator) SwitchMode(mode Mode) error {
	if !o.initialized.Load() {
		return ErrNotInitialized
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	prev := Mode(o.mode.Load())
	if mode == prev {
		return nil
	}
	o.mode.Store(int32(mode))
	o.resetTransientLocked()
	o.logger.Info("mode switched", "from", prev.String(), "to", mode.String())
	return nil
}

// resetTransientLocked clears smoother, sequence buffer, phrase run, sign
// accumulation, and the duplicate gate. Caller holds mu.
func (o *Orchestrator) resetTransientLocked() {
	o.smoother.Reset()
	o.seq.Reset()
	o.phrases.Reset()
	o.aslSeq = o.aslSeq[:0]
	if o.gate != nil {
		o.gate.reset()
	}
}

// SetConfidenceThresholds updates the static and dynamic confidence
// thresholds. Values outside [0,1] are rejected with ErrInvalidConfig.
func (o *Orchestrator) SetConfidenceThresholds(static, dynamic float64) error {
	if static < 0 || static > 1 {
		return fmt.Errorf("%w: static confidence threshold %f outside [0,1]", ErrInvalidConfig, static)
	}
	if dynamic < 0 || dynamic > 1 {
		return fmt.Errorf("%w: dynamic confidence threshold %f outside [0,1]", ErrInvalidConfig, dynamic)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg.StaticConfidenceThreshold = static
	o.cfg.DynamicConfidenceThreshold = dynamic
	if o.smoother != nil {
		o.smoother.SetThreshold(static)
	}
	return nil
}

// SetAdaptiveInference enables or disables battery-based throttling.
func (o *Orchestrator) SetAdaptiveInference(enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg.AdaptiveInference = enabled
}

// SetAudioAlerts enables or disables spoken detection alerts.
func (o *Orchestrator) SetAudioAlerts(enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg.AudioAlerts = enabled
}

// Mode returns the current pipeline mode.
func (o *Orchestrator) Mode() Mode {
	return Mode(o.mode.Load())
}

// RecentResults returns the last n non-skipped results, most recent first.
// n <= 0 returns the whole history.
func (o *Orchestrator) RecentResults(n int) []Result {
	if !o.initialized.Load() {
		return nil
	}
	return o.history.recent(n)
}

// ASLSequence returns the recognized signs of the current translation
// session as a space-joined string.
func (o *Orchestrator) ASLSequence() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return strings.Join(o.aslSeq, " ")
}

// Metrics returns countable and latency statistics for dashboards and
// telemetry.
func (o *Orchestrator) Metrics() map[string]any {
	if !o.initialized.Load() {
		return map[string]any{"initialized": false}
	}

	total, perMode, skipped, errorFrames := o.stats.snapshot()

	modes := make(map[string]int64, len(perMode))
	for m, c := range perMode {
		modes[m.String()] = c
	}
	skips := make(map[string]int64, len(skipped))
	for r, c := range skipped {
		skips[string(r)] = c
	}

	metrics := map[string]any{
		"initialized":           true,
		"total_frames":          total,
		"error_frames":          errorFrames,
		"average_processing_ms": o.stats.averageProcessing().Milliseconds(),
		"estimated_fps":         o.stats.estimatedFPS(),
		"frames_by_mode":        modes,
		"skipped_frames":        skips,
	}
	if o.alerts != nil {
		metrics["alerts_played"] = o.alerts.TotalAlertsPlayed()
		metrics["duplicates_filtered"] = o.alerts.DuplicatesFiltered()
	}
	return metrics
}

// ResetModeState clears all per-mode transient state, including the alert
// cooldown table. Counters and history persist.
func (o *Orchestrator) ResetModeState() {
	if !o.initialized.Load() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resetTransientLocked()
	if o.alerts != nil {
		o.alerts.Reset()
	}
}

// Dispose tears the pipeline down. Adapter Close errors are logged, not
// returned; the first error wins as the return value.
func (o *Orchestrator) Dispose() error {
	if !o.disposed.CompareAndSwap(false, true) {
		return nil
	}
	o.initialized.Store(false)

	o.mu.Lock()
	defer o.mu.Unlock()

	var firstErr error
	closeAll := []struct {
		name  string
		close func() error
	}{
		{"cnn", closerOrNil(o.cnn)},
		{"lstm", closerOrNil(o.lstm)},
		{"detector", closerOrNil(o.detector)},
		{"speech", closerOrNil(o.sink)},
	}
	for _, c := range closeAll {
		if c.close == nil {
			continue
		}
		if err := c.close(); err != nil {
			o.logger.Warn("close failed", "adapter", c.name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	o.logger.Info("pipeline disposed")
	return firstErr
}

// closerOrNil adapts any adapter with a Close method, tolerating nil
// interfaces.
func closerOrNil(v any) func() error {
	if v == nil {
		return nil
	}
	c, ok := v.(interface{ Close() error })
	if !ok {
		return nil
	}
	return c.Close
}
