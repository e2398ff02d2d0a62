package alerting

import (
	"strings"

	"github.com/lumenlabs/go-lumen/pkg/speech"
)

// classPriorities ranks COCO classes by how urgently the user needs to hear
// about them. Moving things that can hurt you are critical; trip hazards
// high; static furniture medium; everything else low.
var classPriorities = map[string]speech.Priority{
	// Critical: people and vehicles
	"person":     speech.PriorityCritical,
	"bicycle":    speech.PriorityCritical,
	"car":        speech.PriorityCritical,
	"motorcycle": speech.PriorityCritical,
	"bus":        speech.PriorityCritical,
	"train":      speech.PriorityCritical,
	"truck":      speech.PriorityCritical,

	// High: animals and path hazards
	"dog":          speech.PriorityHigh,
	"cat":          speech.PriorityHigh,
	"horse":        speech.PriorityHigh,
	"fire hydrant": speech.PriorityHigh,
	"stop sign":    speech.PriorityHigh,
	"knife":        speech.PriorityHigh,
	"scissors":     speech.PriorityHigh,

	// Medium: furniture and obstacles
	"chair":        speech.PriorityMedium,
	"couch":        speech.PriorityMedium,
	"bench":        speech.PriorityMedium,
	"bed":          speech.PriorityMedium,
	"dining table": speech.PriorityMedium,
	"potted plant": speech.PriorityMedium,
	"suitcase":     speech.PriorityMedium,
	"backpack":     speech.PriorityMedium,
	"toilet":       speech.PriorityMedium,
	"sink":         speech.PriorityMedium,
	"refrigerator": speech.PriorityMedium,
	"oven":         speech.PriorityMedium,
	"door":         speech.PriorityMedium,
}

// PriorityFor returns the alert priority for an object label.
// Unknown labels are low priority.
func PriorityFor(label string) speech.Priority {
	if p, ok := classPriorities[normalizeLabel(label)]; ok {
		return p
	}
	return speech.PriorityLow
}

// normalizeLabel canonicalizes a detector label for priority lookup and
// dedup identity.
func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
