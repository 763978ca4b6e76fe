package capture

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/RyanBlaney/solfege/logging"
)

// MicInput acquires frames from the default system microphone through
// PortAudio. PortAudio has no separate permission step, so initializing the
// host API doubles as the permission probe: failure there means no device
// access will be granted.
type MicInput struct {
	initialized bool
}

// NewMicInput creates an uninitialized microphone input.
func NewMicInput() *MicInput {
	return &MicInput{}
}

// RequestPermission initializes the PortAudio host API.
func (m *MicInput) RequestPermission() error {
	if m.initialized {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	m.initialized = true
	return nil
}

// OpenStream opens the default mono input stream at the given rate and
// frame size and starts it.
func (m *MicInput) OpenStream(sampleRate, frameSize int) (Stream, error) {
	if err := m.RequestPermission(); err != nil {
		return nil, err
	}

	buf := make([]float32, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), frameSize, buf)
	if err != nil {
		return nil, fmt.Errorf("open default stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		if cerr := stream.Close(); cerr != nil {
			logging.Warn("capture: close after failed start", logging.Fields{"err": cerr.Error()})
		}
		return nil, fmt.Errorf("start stream: %w", err)
	}

	logging.Debug("capture: microphone stream open", logging.Fields{
		"sample_rate": sampleRate,
		"frame_size":  frameSize,
	})
	return &micStream{stream: stream, buf: buf}, nil
}

// Terminate releases the PortAudio host API. Call once all streams are
// closed.
func (m *MicInput) Terminate() error {
	if !m.initialized {
		return nil
	}
	m.initialized = false
	return portaudio.Terminate()
}

type micStream struct {
	stream *portaudio.Stream
	buf    []float32
}

func (s *micStream) ReadFrame(dst []float64) error {
	if err := s.stream.Read(); err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	n := len(dst)
	if n > len(s.buf) {
		n = len(s.buf)
	}
	for i := 0; i < n; i++ {
		dst[i] = float64(s.buf[i])
	}
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}

func (s *micStream) Close() error {
	if err := s.stream.Stop(); err != nil {
		logging.Warn("capture: stream stop failed", logging.Fields{"err": err.Error()})
	}
	return s.stream.Close()
}
