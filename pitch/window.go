package pitch

// Window is a bounded FIFO of raw frequency estimates. Pushing beyond
// capacity evicts the oldest sample, so the window always holds the most
// recent estimates in arrival order.
type Window struct {
	samples []float64
	size    int
}

// NewWindow creates a window holding at most size samples.
func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{
		samples: make([]float64, 0, size),
		size:    size,
	}
}

// Push appends a sample, evicting the oldest one when full.
func (w *Window) Push(v float64) {
	if len(w.samples) == w.size {
		copy(w.samples, w.samples[1:])
		w.samples[len(w.samples)-1] = v
		return
	}
	w.samples = append(w.samples, v)
}

// Len returns the number of samples currently held.
func (w *Window) Len() int {
	return len(w.samples)
}

// Full reports whether the window holds its maximum number of samples.
func (w *Window) Full() bool {
	return len(w.samples) == w.size
}

// Clear empties the window. Stale history must not survive silence.
func (w *Window) Clear() {
	w.samples = w.samples[:0]
}

// Values returns the current samples, oldest first. The slice aliases the
// window's storage and is only valid until the next Push or Clear.
func (w *Window) Values() []float64 {
	return w.samples
}
