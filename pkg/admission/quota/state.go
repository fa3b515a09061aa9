package quota

import "encoding/json"

// State is the per-key counter state. It is a composite of the fields the
// five algorithms use; each algorithm touches only its own fields. Stores
// hold it opaque and serialized; timestamps are Unix milliseconds.
type State struct {
	// Fixed window
	Count       int64 `json:"c,omitempty"`
	WindowStart int64 `json:"ws,omitempty"`

	// Sliding window log
	Timestamps []int64 `json:"ts,omitempty"`

	// Sliding window counter
	PrevCount       int64 `json:"pc,omitempty"`
	CurrCount       int64 `json:"cc,omitempty"`
	CurrWindowStart int64 `json:"cws,omitempty"`

	// Token bucket
	Tokens     float64 `json:"tk,omitempty"`
	LastRefill int64   `json:"lr,omitempty"`

	// Leaky bucket
	QueueDepth float64 `json:"qd,omitempty"`
	LastLeak   int64   `json:"ll,omitempty"`
}

// Encode serializes the state for storage.
func (s State) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeState deserializes state produced by Encode.
func DecodeState(data []byte) (State, error) {
	var s State
	err := json.Unmarshal(data, &s)
	return s, err
}
