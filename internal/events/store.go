package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pulsesignals/contract-relay/internal/constants"
	"github.com/pulsesignals/contract-relay/internal/storage"
)

// rawEvent is the wire shape the producer writes onto the event log.
// Timestamp arrives as either a JSON number or a string; both are tolerated.
type rawEvent struct {
	Address     string          `json:"address"`
	ChannelName string          `json:"channelName"`
	Timestamp   json.RawMessage `json:"timestamp"`
}

// timestamp returns the stored epoch-ms value when it parses as an integer.
// Anything else (absent, null, garbage string) reports false; the caller
// substitutes the current time.
func (r *rawEvent) timestamp() (int64, bool) {
	s := strings.Trim(strings.TrimSpace(string(r.Timestamp)), `"`)
	if s == "" || s == "null" {
		return 0, false
	}
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ts <= 0 {
		return 0, false
	}
	return ts, true
}

// ListResult is the tagged variant the query path returns. Exactly one of
// Events and Legacy is populated: Events when the ordered log had records,
// Legacy when the reader fell back to merging the old per-channel hashes.
type ListResult struct {
	Events []Event
	Legacy map[string]string
}

// FromLegacy reports whether the result came from the unordered fallback.
func (r *ListResult) FromLegacy() bool {
	return r.Legacy != nil
}

// Store reads and appends the contract-event history.
type Store struct {
	log    storage.EventLog
	logger *logrus.Logger
	now    func() time.Time
}

func NewStore(log storage.EventLog, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{log: log, logger: logger, now: time.Now}
}

// Append stores a serialized event exactly as the producer wrote it.
func (s *Store) Append(ctx context.Context, payload string) error {
	if err := s.log.Push(ctx, payload); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// List returns the current contract events, newest first, with legacy labels
// normalized and duplicate addresses collapsed to their most recent record.
// When the ordered log is empty it falls back to the legacy hashes, which
// carry no ordering and no timestamps.
func (s *Store) List(ctx context.Context) (*ListResult, error) {
	entries, err := s.log.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if len(entries) > 0 {
		return &ListResult{Events: s.decode(entries)}, nil
	}
	legacy, err := s.mergeLegacy(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events (legacy): %w", err)
	}
	return &ListResult{Legacy: legacy}, nil
}

// decode walks the raw entries newest-first. Malformed records are skipped,
// unknown channel labels dropped, and the first occurrence of an address
// wins, i.e. the most recent one.
func (s *Store) decode(entries []string) []Event {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Event, 0, len(entries))

	for _, item := range entries {
		var raw rawEvent
		if err := json.Unmarshal([]byte(item), &raw); err != nil {
			s.logger.WithError(err).Debug("skipping malformed event record")
			continue
		}
		if raw.Address == "" {
			continue
		}
		ch, ok := NormalizeChannel(raw.ChannelName)
		if !ok {
			continue
		}
		if _, dup := seen[raw.Address]; dup {
			continue
		}
		seen[raw.Address] = struct{}{}

		ts, ok := raw.timestamp()
		if !ok {
			ts = s.now().UnixMilli()
		}

		out = append(out, Event{Address: raw.Address, Channel: ch, Timestamp: ts})
	}
	return out
}

// mergeLegacy merges the fully-legacy hash plus the four per-channel hashes
// into one address->channel map. Later merges win, so labeled hashes beat
// whatever the unlabeled one recorded.
func (s *Store) mergeLegacy(ctx context.Context) (map[string]string, error) {
	combined := make(map[string]string)

	legacy, err := s.log.Hash(ctx, constants.RedisKeyOriginsLegacy)
	if err != nil {
		return nil, err
	}
	for addr, label := range legacy {
		ch, ok := NormalizeChannel(label)
		if !ok {
			continue
		}
		combined[addr] = ch
	}
	for _, label := range []string{
		constants.ChannelBasic,
		constants.ChannelPremium,
		constants.ChannelLegacyCalls,
		constants.ChannelLegacyNitro,
	} {
		hash, err := s.log.Hash(ctx, constants.RedisKeyOriginsPrefix+label)
		if err != nil {
			return nil, err
		}
		ch, _ := NormalizeChannel(label)
		for addr := range hash {
			combined[addr] = ch
		}
	}
	return combined, nil
}
