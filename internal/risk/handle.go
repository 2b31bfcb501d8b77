package risk

import "sync/atomic"

// Status is the lifecycle state of a Handle.
type Status string

const (
	StatusUninitialized Status = "UNINITIALIZED"
	StatusReady         Status = "READY"
)

// Handle owns the active TierModel. Readers load the pointer once per
// prediction, so a Swap never exposes a partially replaced model.
type Handle struct {
	current atomic.Pointer[TierModel]
}

// NewHandle returns an empty handle.
func NewHandle() *Handle { return &Handle{} }

// Swap installs m as the active model.
func (h *Handle) Swap(m *TierModel) {
	h.current.Store(m)
}

// Current returns the active model or nil.
func (h *Handle) Current() *TierModel {
	return h.current.Load()
}

// Status reports whether a model is loaded.
func (h *Handle) Status() Status {
	if h.current.Load() == nil {
		return StatusUninitialized
	}
	return StatusReady
}

// Name implements RiskModel.
func (h *Handle) Name() string { return "tier_forest" }

// Predict implements RiskModel, returning ErrModelUnavailable when empty.
func (h *Handle) Predict(q Query) (float64, error) {
	m := h.current.Load()
	if m == nil {
		return 0, ErrModelUnavailable
	}
	return m.Predict(q)
}
