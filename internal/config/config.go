// Package config loads Lumen's runtime configuration from the environment.
// A .env file in the working directory is merged in when present, which is
// how the device image ships per-unit settings.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/lumenlabs/go-lumen/pkg/percept"
)

// Config is the full runtime configuration of the lumen daemon.
type Config struct {
	// Environment: "development" or "production"
	Env      string
	LogLevel string

	// Dashboard server
	DashboardPort string

	// Capture daemon frame stream
	FrameSourceURL string

	// Battery monitor. When PowerDaemonURL is set it takes precedence
	// over the sysfs path.
	PowerSupplyPath string
	PowerDaemonURL  string

	// Model files
	CNNModelPath  string
	LSTMModelPath string
	YOLOModelPath string

	// Telemetry (optional, disabled when the broker is empty)
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
	DeviceID     string

	// Pipeline tuning
	Pipeline percept.Config
}

// Load reads configuration from the environment, merging a .env file if
// one exists.
func Load() *Config {
	_ = godotenv.Load()

	pipeline := percept.DefaultConfig()
	pipeline.StaticConfidenceThreshold = getEnvFloat("STATIC_CONFIDENCE", pipeline.StaticConfidenceThreshold)
	pipeline.DynamicConfidenceThreshold = getEnvFloat("DYNAMIC_CONFIDENCE", pipeline.DynamicConfidenceThreshold)
	pipeline.AdaptiveInference = getEnvBool("ADAPTIVE_INFERENCE", pipeline.AdaptiveInference)
	pipeline.LowBatteryThreshold = getEnvInt("LOW_BATTERY_THRESHOLD", pipeline.LowBatteryThreshold)
	pipeline.DuplicateGate = getEnvBool("DUPLICATE_GATE", pipeline.DuplicateGate)
	pipeline.AudioAlerts = getEnvBool("AUDIO_ALERTS", pipeline.AudioAlerts)
	pipeline.AlertCooldown = getEnvDuration("ALERT_COOLDOWN", pipeline.AlertCooldown)

	return &Config{
		Env:      getEnv("LUMEN_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DashboardPort: getEnv("DASHBOARD_PORT", "8090"),

		FrameSourceURL: getEnv("FRAME_SOURCE_URL", "ws://127.0.0.1:8765/frames"),

		PowerSupplyPath: getEnv("POWER_SUPPLY_PATH", "/sys/class/power_supply/BAT0/capacity"),
		PowerDaemonURL:  getEnv("POWER_DAEMON_URL", ""),

		CNNModelPath:  getEnv("CNN_MODEL_PATH", "./models/asl_cnn_fp16.tflite"),
		LSTMModelPath: getEnv("LSTM_MODEL_PATH", "./models/asl_lstm_fp16.tflite"),
		YOLOModelPath: getEnv("YOLO_MODEL_PATH", "./models/yolov8n.onnx"),

		MQTTBroker:   getEnv("MQTT_BROKER", ""),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "lumen-device"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),
		DeviceID:     getEnv("DEVICE_ID", "lumen-dev"),

		Pipeline: pipeline,
	}
}

// TelemetryEnabled reports whether an MQTT broker is configured.
func (c *Config) TelemetryEnabled() bool {
	return c.MQTTBroker != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
