package trace

import "sync/atomic"

// Stats counts what the dispatcher saw.
// All methods are safe for concurrent use.
type Stats struct {
	frames        atomic.Uint64
	matched       atomic.Uint64
	dissectErrors atomic.Uint64
	decodeErrors  atomic.Uint64
	published     atomic.Uint64
	filtered      atomic.Uint64
	queries       atomic.Uint64
	responses     atomic.Uint64
	nxdomain      atomic.Uint64
}

// NewStats creates a zeroed collector.
func NewStats() *Stats {
	return &Stats{}
}

// RecordFrame records a frame handed to the dispatcher.
func (s *Stats) RecordFrame() { s.frames.Add(1) }

// RecordMatch records a frame that carried a DNS payload.
func (s *Stats) RecordMatch() { s.matched.Add(1) }

// RecordDissectError records a frame the dissector rejected as malformed.
func (s *Stats) RecordDissectError() { s.dissectErrors.Add(1) }

// RecordDecodeError records a payload that did not decode completely.
func (s *Stats) RecordDecodeError() { s.decodeErrors.Add(1) }

// RecordFiltered records an event suppressed by the watch list.
func (s *Stats) RecordFiltered() { s.filtered.Add(1) }

// RecordPublished records an event handed to the sink, classified by its
// header.
func (s *Stats) RecordPublished(isResponse bool, nxdomain bool) {
	s.published.Add(1)
	if isResponse {
		s.responses.Add(1)
	} else {
		s.queries.Add(1)
	}
	if nxdomain {
		s.nxdomain.Add(1)
	}
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Frames        uint64 `json:"frames"`
	Matched       uint64 `json:"matched"`
	DissectErrors uint64 `json:"dissect_errors"`
	DecodeErrors  uint64 `json:"decode_errors"`
	Published     uint64 `json:"published"`
	Filtered      uint64 `json:"filtered"`
	Queries       uint64 `json:"queries"`
	Responses     uint64 `json:"responses"`
	NXDomain      uint64 `json:"nxdomain"`
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Frames:        s.frames.Load(),
		Matched:       s.matched.Load(),
		DissectErrors: s.dissectErrors.Load(),
		DecodeErrors:  s.decodeErrors.Load(),
		Published:     s.published.Load(),
		Filtered:      s.filtered.Load(),
		Queries:       s.queries.Load(),
		Responses:     s.responses.Load(),
		NXDomain:      s.nxdomain.Load(),
	}
}
