package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// Espeak returns a SynthesizeFunc backed by the espeak-ng binary. Playback
// blocks the dispatcher goroutine, which is what serializes utterances on
// the device speaker.
func Espeak(voice string) SynthesizeFunc {
	if voice == "" {
		voice = "en"
	}
	return func(ctx context.Context, u Utterance) error {
		// Critical alerts are spoken louder and slightly faster.
		amplitude, rate := 100, 160
		if u.Priority >= PriorityCritical {
			amplitude, rate = 200, 180
		}

		cmd := exec.CommandContext(ctx, "espeak-ng",
			"-v", voice,
			"-a", strconv.Itoa(amplitude),
			"-s", strconv.Itoa(rate),
			u.Text,
		)
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("espeak: %w", err)
		}
		return nil
	}
}
