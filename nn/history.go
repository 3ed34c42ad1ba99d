package nn

import (
	"sort"
)

// History records per-epoch logs of a Fit call. Keys are "loss", the
// metric keys, and the same names prefixed with "val_" when validation data
// is present.
type History struct {
	Epoch   []int                `json:"epoch"`
	History map[string][]float64 `json:"history"`
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{Epoch: []int{}, History: make(map[string][]float64)}
}

func (h *History) append(epoch int, logs map[string]float64) {
	h.Epoch = append(h.Epoch, epoch)
	for k, v := range logs {
		h.History[k] = append(h.History[k], v)
	}
}

// Len returns the number of recorded epochs.
func (h *History) Len() int {
	return len(h.Epoch)
}

// Last returns the final recorded value of key.
func (h *History) Last(key string) (float64, bool) {
	vals := h.History[key]
	if len(vals) == 0 {
		return 0, false
	}
	return vals[len(vals)-1], true
}

// Keys returns the recorded keys in sorted order.
func (h *History) Keys() []string {
	keys := make([]string, 0, len(h.History))
	for k := range h.History {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy. A nil History clones to nil.
func (h *History) Clone() *History {
	if h == nil {
		return nil
	}
	out := &History{
		Epoch:   append([]int{}, h.Epoch...),
		History: make(map[string][]float64, len(h.History)),
	}
	for k, v := range h.History {
		out.History[k] = append([]float64{}, v...)
	}
	return out
}
