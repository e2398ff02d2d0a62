// Lumen perception daemon: consumes camera frames from the capture daemon,
// runs the sign-recognition / object-detection pipeline, speaks alerts, and
// serves the realtime dashboard.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumenlabs/go-lumen/internal/config"
	"github.com/lumenlabs/go-lumen/internal/log"
	"github.com/lumenlabs/go-lumen/pkg/battery"
	"github.com/lumenlabs/go-lumen/pkg/detection"
	"github.com/lumenlabs/go-lumen/pkg/framesource"
	"github.com/lumenlabs/go-lumen/pkg/percept"
	"github.com/lumenlabs/go-lumen/pkg/retry"
	"github.com/lumenlabs/go-lumen/pkg/sign"
	"github.com/lumenlabs/go-lumen/pkg/speech"
	"github.com/lumenlabs/go-lumen/pkg/telemetry"
	"github.com/lumenlabs/go-lumen/pkg/web"
)

const metricsInterval = 10 * time.Second

func main() {
	cfg := config.Load()

	modeFlag := flag.String("mode", "dashboard", "startup mode: dashboard, translation, detection")
	port := flag.String("port", cfg.DashboardPort, "dashboard port")
	voice := flag.String("voice", "en", "espeak-ng voice for alerts")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	log.Init(level)
	logger := log.Component("lumen")

	mode, err := percept.ParseMode(*modeFlag)
	if err != nil {
		logger.Error("bad -mode flag", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Speech output
	sink := speech.NewDispatcher(speech.Espeak(*voice))

	// Battery monitor
	var power battery.Monitor
	if cfg.PowerDaemonURL != "" {
		power = battery.NewHTTP(cfg.PowerDaemonURL)
	} else {
		power = battery.NewSysfs(cfg.PowerSupplyPath)
	}

	// Object detector. Model loading touches the filesystem and can race
	// with the provisioning service on first boot, so retry briefly.
	detectorCfg := detection.DefaultConfig()
	detectorCfg.ModelPath = cfg.YOLOModelPath
	detector, err := retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context) (detection.Detector, error) {
		d, err := detection.NewYOLO(detectorCfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	})
	if err != nil {
		logger.Warn("object detector unavailable, detection mode disabled", "error", err)
		detector = detection.NewMock()
	}

	// Sign predictors are served by the on-device inference runtime. Until
	// that runtime is wired up, translation runs against stubs.
	logger.Warn("sign predictors not configured, translation runs with stubs",
		"cnn_model", cfg.CNNModelPath, "lstm_model", cfg.LSTMModelPath)
	var cnn sign.FramePredictor = &sign.MockFramePredictor{}
	var lstm sign.SequencePredictor = &sign.MockSequencePredictor{}

	orch := percept.New(
		percept.WithConfig(cfg.Pipeline),
		percept.WithFramePredictor(cnn),
		percept.WithSequencePredictor(lstm),
		percept.WithDetector(detector),
		percept.WithSpeechSink(sink),
		percept.WithBattery(power),
	)
	if err := orch.Initialize(ctx, mode); err != nil {
		logger.Error("pipeline initialization failed", "error", err)
		os.Exit(1)
	}
	defer orch.Dispose()

	// Dashboard
	srv := web.NewServer(*port, orch)
	srv.StartAsync()
	defer srv.Shutdown()

	// Telemetry (optional)
	var pub *telemetry.Publisher
	if cfg.TelemetryEnabled() {
		pub, err = telemetry.NewPublisher(telemetry.Config{
			BrokerURL: cfg.MQTTBroker,
			ClientID:  cfg.MQTTClientID,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			DeviceID:  cfg.DeviceID,
			QoS:       1,
		})
		if err != nil {
			logger.Warn("telemetry disabled", "error", err)
			pub = nil
		} else {
			defer pub.Close()
		}
	}

	// Frame stream
	frames := framesource.NewClient(cfg.FrameSourceURL)
	go func() {
		if err := frames.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("frame stream failed", "error", err)
			cancel()
		}
	}()
	defer frames.Close()

	logger.Info("lumen running",
		"mode", mode.String(),
		"dashboard_port", *port,
		"frame_source", cfg.FrameSourceURL,
	)

	metricsTicker := time.NewTicker(metricsInterval)
	defer metricsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return

		case frame := <-frames.Frames():
			res := orch.ProcessFrame(ctx, frame)
			srv.PublishResult(res)
			if res.Kind != percept.KindSkipped {
				srv.PublishFrame(frame)
			}
			if pub != nil {
				if err := pub.PublishResult(res); err != nil {
					logger.Debug("result publish failed", "error", err)
				}
			}

		case <-metricsTicker.C:
			if pub != nil {
				if err := pub.PublishMetrics(orch.Metrics()); err != nil {
					logger.Debug("metrics publish failed", "error", err)
				}
			}
		}
	}
}
