// Package detection provides object detection for the surroundings-awareness
// pipeline.
//
// The Detector interface is the capability boundary: the orchestrator only
// needs "given a JPEG frame, return labeled objects with confidence and an
// optional distance estimate". A YOLOv8 ONNX implementation on gocv ships
// in-package; tests use the mock.
package detection

import (
	"image"
)

// Box is a bounding box in normalized coordinates (0-1 of frame size).
type Box struct {
	X, Y float64 // Top-left corner
	W, H float64 // Width and height
}

// Center returns the center point of the box.
func (b Box) Center() (x, y float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Area returns the normalized area of the box.
func (b Box) Area() float64 {
	return b.W * b.H
}

// Object is a detected object in a single frame. Objects are ephemeral:
// nothing retains them past one alerting pass except dedup bookkeeping.
type Object struct {
	// Label is the detected class name (COCO vocabulary).
	Label string

	// Confidence is the detector's confidence in [0, 1].
	Confidence float64

	// Box is the object's bounding box.
	Box Box

	// Distance is the estimated distance in meters, 0 when unknown.
	Distance float64
}

// Detector is the object-detection capability.
type Detector interface {
	// Detect finds objects in a JPEG frame.
	Detect(jpeg []byte) ([]Object, error)

	// Close releases model resources.
	Close() error
}

// Config holds detector configuration.
type Config struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float32 // Minimum confidence (default 0.5)
	NMSThresh        float32 // Non-max suppression IoU threshold
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultConfig returns production defaults for YOLOv8n.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/yolov8n.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// inputSize returns the model input dimensions as an image point.
func (c Config) inputSize() image.Point {
	return image.Pt(c.InputWidth, c.InputHeight)
}
