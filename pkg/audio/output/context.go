// ABOUTME: Process-wide oto context
// ABOUTME: oto allows one context per process, so clip and take playback share it
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/pitchloop/pitchloop-go/pkg/audio"
)

// Device format of the shared context
const (
	DeviceSampleRate = audio.SampleRate
	DeviceChannels   = 2
)

var (
	otoCtxOnce sync.Once
	otoCtx     *oto.Context
	otoCtxErr  error
)

// OtoContext returns the shared oto context, creating it on first use
func OtoContext() (*oto.Context, error) {
	otoCtxOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   DeviceSampleRate,
			ChannelCount: DeviceChannels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			otoCtxErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		otoCtx = ctx
		log.Printf("Audio device initialized: %dHz, %d channels", DeviceSampleRate, DeviceChannels)
	})
	return otoCtx, otoCtxErr
}

// ToDevice converts interleaved samples to the shared context's layout
func ToDevice(samples []int32, channels int) []int32 {
	switch channels {
	case DeviceChannels:
		return samples
	case 1:
		return audio.Upmix(samples, DeviceChannels)
	default:
		return audio.Upmix(audio.Downmix(samples, channels), DeviceChannels)
	}
}
