package storage

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/Joseda-hg/lazyboard/internal/model"
)

// DefaultKey is the key the board snapshot is stored under.
const DefaultKey = "lazyboard-board-state"

// ErrNotFound is returned by a Backend when key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a byte-oriented key-value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Snapshots persists board snapshots as JSON documents in a Backend. Every
// failure is logged and swallowed: Load reports absence and Save drops the
// write.
type Snapshots struct {
	backend Backend
	logger  *log.Entry
}

func NewSnapshots(backend Backend, logger *log.Entry) *Snapshots {
	if backend == nil {
		panic("storage.NewSnapshots: backend is nil")
	}
	if logger == nil {
		logger = log.WithField("component", "storage")
	}
	return &Snapshots{backend: backend, logger: logger}
}

func (s *Snapshots) Load(ctx context.Context, key string) (model.Snapshot, bool) {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.WithFields(log.Fields{"key": key, "error": err}).Warn("read snapshot failed")
		}
		return model.Snapshot{}, false
	}
	if len(raw) == 0 {
		return model.Snapshot{}, false
	}

	snapshot, err := Decode(raw)
	if err != nil {
		s.logger.WithFields(log.Fields{"key": key, "error": err}).Warn("discarding unreadable snapshot")
		return model.Snapshot{}, false
	}
	return snapshot, true
}

func (s *Snapshots) Save(ctx context.Context, key string, snapshot model.Snapshot) {
	raw, err := Encode(snapshot)
	if err != nil {
		s.logger.WithFields(log.Fields{"key": key, "error": err}).Warn("encode snapshot failed")
		return
	}
	if err := s.backend.Set(ctx, key, raw); err != nil {
		s.logger.WithFields(log.Fields{"key": key, "error": err}).Warn("write snapshot failed")
	}
}

// Encode serializes snapshot into its storage document.
func Encode(snapshot model.Snapshot) ([]byte, error) {
	return sonic.ConfigStd.Marshal(snapshot)
}

// Decode parses a storage document and checks its reference invariants.
func Decode(raw []byte) (model.Snapshot, error) {
	var snapshot model.Snapshot
	if err := sonic.ConfigStd.Unmarshal(raw, &snapshot); err != nil {
		return model.Snapshot{}, err
	}
	if err := snapshot.Validate(); err != nil {
		return model.Snapshot{}, err
	}
	return snapshot, nil
}
