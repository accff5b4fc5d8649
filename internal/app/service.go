// Package app wires the capture pipeline, mode workers, and
// configuration into the running service.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"github.com/saim/willow/audio"
	"github.com/saim/willow/config"
	"github.com/saim/willow/executor"
	"github.com/saim/willow/internal/types"
	"github.com/saim/willow/metrics"
	"github.com/saim/willow/mode"
	"github.com/saim/willow/segmenter"
	"github.com/saim/willow/stt"
	"github.com/saim/willow/transcriptlog"
)

// restartDelay separates Stop from Start during a Restart so the
// audio device settles.
const restartDelay = 500 * time.Millisecond

// Service is the assistant core. It owns the audio source, the
// segmenter, the speech engine, and the active mode worker, and
// reacts to control-surface requests.
type Service struct {
	log *slog.Logger
	fs  afero.Fs

	engineFactory func(stt.Config) (stt.Engine, error)
	sourceFactory func() (audio.Source, error)

	seg  *segmenter.Segmenter
	exec *executor.Executor

	configMu sync.RWMutex
	cfg      *config.Config

	modeMu  sync.Mutex
	current mode.Mode
	normal  *mode.NormalWorker
	command *mode.CommandWorker
	typing  *mode.TypingWorker
	worker  mode.Worker

	runMu       sync.Mutex
	running     atomic.Bool
	source      audio.Source
	captureDone chan struct{}

	engineMu sync.Mutex
	engine   stt.Engine

	emitterMu sync.RWMutex
	emitter   Emitter

	transcripts *transcriptlog.Store

	ctx    context.Context
	cancel context.CancelFunc
}

// Option customizes Service construction.
type Option func(*Service)

// WithFs overrides the filesystem used for configuration.
func WithFs(fsys afero.Fs) Option {
	return func(s *Service) { s.fs = fsys }
}

// WithEngineFactory overrides how speech engines are built.
func WithEngineFactory(fn func(stt.Config) (stt.Engine, error)) Option {
	return func(s *Service) { s.engineFactory = fn }
}

// WithSourceFactory overrides how the audio source is opened.
func WithSourceFactory(fn func() (audio.Source, error)) Option {
	return func(s *Service) { s.sourceFactory = fn }
}

// WithTranscriptLog attaches a transcript store.
func WithTranscriptLog(store *transcriptlog.Store) Option {
	return func(s *Service) { s.transcripts = store }
}

// New loads configuration and assembles the service in normal mode,
// stopped. The speech engine is loaded lazily on the first Start.
func New(log *slog.Logger, opts ...Option) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		log:           log.With("component", "service"),
		fs:            afero.NewOsFs(),
		engineFactory: stt.New,
		sourceFactory: func() (audio.Source, error) { return audio.NewMicrophone() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	cfg, err := config.Load(s.fs)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	s.cfg = cfg

	s.exec = executor.New(s.fs, log)
	s.seg = segmenter.New(mode.Normal.Tuning(), log)
	s.seg.SetCallback(s.handleTranscription)

	s.normal = mode.NewNormalWorker(cfg.Hotword, log)
	s.command = mode.NewCommandWorker(s.exec, cfg.Commands, cfg.Threshold(), log)
	s.typing = mode.NewTypingWorker(s.exec, cfg.TypingMode.ExitPhrases, log)

	for _, w := range []interface{ SetModeChangeFunc(func(mode.Mode)) }{s.normal, s.command, s.typing} {
		w.SetModeChangeFunc(s.SetMode)
	}
	s.command.SetErrorFunc(s.reportError)
	s.typing.SetErrorFunc(s.reportError)
	s.command.SetExecutedFunc(func(action, phrase string, score float64) {
		s.emit(EventCommandExecuted, CommandExecution{Action: action, Phrase: phrase, Score: score})
	})

	s.current = mode.Normal
	s.worker = s.normal

	return s, nil
}

// SetEmitter installs the event sink. The control surface calls this
// after both sides exist.
func (s *Service) SetEmitter(e Emitter) {
	s.emitterMu.Lock()
	s.emitter = e
	s.emitterMu.Unlock()
}

func (s *Service) emit(name string, data any) {
	s.emitterMu.RLock()
	e := s.emitter
	s.emitterMu.RUnlock()
	if e != nil {
		e.Emit(name, data)
	}
}

func (s *Service) reportError(err error) {
	s.emit(EventError, ErrorEvent{Message: "execution failed", Detail: err.Error()})
}

// Start opens the audio source and begins processing. It is a no-op
// when already running.
func (s *Service) Start() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.running.Load() {
		return nil
	}

	if err := s.ensureEngine(); err != nil {
		// Capture still runs; segments are dropped until an engine
		// loads via a config change.
		s.log.Warn("speech engine unavailable", "error", err)
		s.emit(EventError, ErrorEvent{Message: "speech engine unavailable", Detail: err.Error()})
	}

	source, err := s.sourceFactory()
	if err != nil {
		return fmt.Errorf("open audio source: %w", err)
	}
	s.source = source
	s.captureDone = make(chan struct{})
	s.running.Store(true)

	s.modeMu.Lock()
	s.worker.Start()
	s.modeMu.Unlock()

	go s.captureLoop(source, s.captureDone)
	s.log.Info("capture started")
	return nil
}

// Stop halts processing and releases the audio source. It is a no-op
// when already stopped.
func (s *Service) Stop() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if !s.running.Load() {
		return nil
	}
	s.running.Store(false)

	// Closing the source unblocks the capture loop's Read.
	if err := s.source.Close(); err != nil {
		s.log.Warn("close audio source", "error", err)
	}
	<-s.captureDone
	s.source = nil

	s.modeMu.Lock()
	s.worker.Stop()
	s.modeMu.Unlock()

	s.seg.Reset()
	s.log.Info("capture stopped")
	return nil
}

// Restart stops and starts capture with a short settle delay.
func (s *Service) Restart() error {
	if err := s.Stop(); err != nil {
		return err
	}
	time.Sleep(restartDelay)
	return s.Start()
}

func (s *Service) captureLoop(source audio.Source, done chan struct{}) {
	defer close(done)
	for {
		chunk, err := source.Read()
		if err != nil {
			if !s.running.Load() {
				return
			}
			metrics.CaptureErrors.Inc()
			s.log.Error("audio capture failed", "error", err)
			s.emit(EventError, ErrorEvent{Message: "audio capture failed", Detail: err.Error()})
			return
		}
		s.seg.ProcessChunk(s.ctx, chunk)
	}
}

// handleTranscription dispatches one normalized transcription to the
// active worker. It runs on the capture goroutine; the worker may
// switch modes re-entrantly.
func (s *Service) handleTranscription(text string) {
	s.modeMu.Lock()
	worker := s.worker
	current := s.current
	s.modeMu.Unlock()

	if s.transcripts != nil {
		if _, err := s.transcripts.Append(text, current.String()); err != nil {
			s.log.Warn("record transcript", "error", err)
		}
	}

	worker.ProcessTranscription(text)
	s.emit(EventBufferChanged, BufferChange{Text: worker.Buffer()})
}

// SetMode switches the active worker and retunes the detector. The
// old worker stops before the new one starts; a mode never hears a
// transcription meant for its predecessor.
func (s *Service) SetMode(next mode.Mode) {
	s.modeMu.Lock()
	if next == s.current {
		s.modeMu.Unlock()
		return
	}
	old := s.current

	s.worker.Stop()
	s.current = next
	switch next {
	case mode.Command:
		s.worker = s.command
	case mode.Typing:
		s.worker = s.typing
	default:
		s.worker = s.normal
	}
	s.seg.SetTuning(next.Tuning())
	if s.running.Load() {
		s.worker.Start()
	}
	s.modeMu.Unlock()

	s.log.Info("mode changed", "old", old.String(), "new", next.String())
	s.emit(EventModeChanged, ModeChange{Old: old.String(), New: next.String()})
	s.emit(EventNotification, Notification{
		Title:   "Willow",
		Message: modeNotice(next),
		Urgency: "low",
	})
}

func modeNotice(m mode.Mode) string {
	switch m {
	case mode.Command:
		return "Listening for commands"
	case mode.Typing:
		return "Typing mode active"
	default:
		return "Waiting for hotword"
	}
}

// Mode returns the active mode.
func (s *Service) Mode() mode.Mode {
	s.modeMu.Lock()
	defer s.modeMu.Unlock()
	return s.current
}

// Status reports a snapshot for the control surface.
func (s *Service) Status() types.Status {
	s.modeMu.Lock()
	current := s.current
	worker := s.worker
	s.modeMu.Unlock()

	return types.Status{
		Running:      s.running.Load(),
		Mode:         current.String(),
		Buffer:       worker.Buffer(),
		CommandCount: s.command.CommandCount(),
		EngineLoaded: s.seg.EngineLoaded(),
	}
}

// GetConfig returns the configuration as a JSON document.
func (s *Service) GetConfig() (string, error) {
	s.configMu.RLock()
	defer s.configMu.RUnlock()

	data, err := json.MarshalIndent(s.cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

// UpdateConfig replaces the configuration from a JSON document,
// persists it, and applies it live. A malformed document leaves the
// running configuration untouched.
func (s *Service) UpdateConfig(doc string) error {
	cfg, err := config.Parse([]byte(doc))
	if err != nil {
		s.emit(EventError, ErrorEvent{Message: "invalid configuration", Detail: err.Error()})
		return err
	}

	s.configMu.Lock()
	old := s.cfg
	s.cfg = cfg
	if err := cfg.Save(s.fs); err != nil {
		s.cfg = old
		s.configMu.Unlock()
		return err
	}
	s.configMu.Unlock()

	s.applyConfig(cfg)
	if backendChanged(old, cfg) {
		if err := s.reloadEngine(cfg); err != nil {
			s.log.Error("engine reload failed", "error", err)
			s.emit(EventError, ErrorEvent{Message: "engine reload failed", Detail: err.Error()})
		}
	}

	s.emit(EventConfigChanged, ConfigChange{Document: doc})
	return nil
}

// SetConfigValue updates a single configuration key, persists the
// document, and applies it live.
func (s *Service) SetConfigValue(key string, value any) error {
	s.configMu.Lock()
	backend, err := s.cfg.SetValue(key, value)
	if err != nil {
		s.configMu.Unlock()
		return err
	}
	if err := s.cfg.Save(s.fs); err != nil {
		s.configMu.Unlock()
		return err
	}
	cfg := s.cfg
	s.configMu.Unlock()

	s.applyConfig(cfg)
	if backend {
		if err := s.reloadEngine(cfg); err != nil {
			s.log.Error("engine reload failed", "error", err)
			s.emit(EventError, ErrorEvent{Message: "engine reload failed", Detail: err.Error()})
		}
	}

	doc, _ := s.GetConfig()
	s.emit(EventConfigChanged, ConfigChange{Document: doc})
	return nil
}

func (s *Service) applyConfig(cfg *config.Config) {
	s.normal.SetHotword(cfg.Hotword)
	s.command.SetCommands(cfg.Commands, cfg.Threshold())
	s.typing.SetExitPhrases(cfg.TypingMode.ExitPhrases)
}

func backendChanged(old, next *config.Config) bool {
	return old.Backend != next.Backend ||
		old.WhisperModel != next.WhisperModel ||
		old.GPUAcceleration != next.GPUAcceleration ||
		old.OpenAIAPIKey != next.OpenAIAPIKey
}

func (s *Service) sttConfig(cfg *config.Config) stt.Config {
	return stt.Config{
		Backend: cfg.Backend,
		Model:   cfg.WhisperModel,
		GPU:     cfg.GPUAcceleration,
		APIKey:  cfg.OpenAIAPIKey,
	}
}

// ensureEngine loads the speech engine if none is loaded yet.
func (s *Service) ensureEngine() error {
	s.engineMu.Lock()
	defer s.engineMu.Unlock()

	if s.engine != nil {
		return nil
	}

	s.configMu.RLock()
	cfg := s.cfg
	s.configMu.RUnlock()

	engine, err := s.engineFactory(s.sttConfig(cfg))
	if err != nil {
		return err
	}
	s.engine = engine
	s.seg.SetEngine(engine)
	return nil
}

// reloadEngine replaces the speech engine after a backend-affecting
// configuration change. The segmenter drops segments during the swap
// rather than transcribing with a stale engine.
func (s *Service) reloadEngine(cfg *config.Config) error {
	s.engineMu.Lock()
	defer s.engineMu.Unlock()

	s.seg.SetEngine(nil)
	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			s.log.Warn("close old engine", "error", err)
		}
		s.engine = nil
	}

	engine, err := s.engineFactory(s.sttConfig(cfg))
	if err != nil {
		return err
	}
	s.engine = engine
	s.seg.SetEngine(engine)
	s.log.Info("speech engine reloaded", "backend", cfg.Backend, "model", cfg.WhisperModel)
	return nil
}

// RecentTranscripts returns up to n recent transcriptions, newest
// first. It returns nil when no transcript store is attached.
func (s *Service) RecentTranscripts(n int) ([]transcriptlog.Entry, error) {
	if s.transcripts == nil {
		return nil, nil
	}
	return s.transcripts.Recent(n)
}

// Close stops capture and releases the engine and transcript store.
func (s *Service) Close() error {
	err := s.Stop()
	s.cancel()

	s.engineMu.Lock()
	if s.engine != nil {
		if cerr := s.engine.Close(); err == nil {
			err = cerr
		}
		s.engine = nil
	}
	s.engineMu.Unlock()

	if s.transcripts != nil {
		if cerr := s.transcripts.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
