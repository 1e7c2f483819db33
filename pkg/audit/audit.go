package audit

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ferrall/leasehold/pkg/types"
)

// what happened to a lease
type Kind string

const (
	KindGrant         Kind = "grant"
	KindReclaim       Kind = "reclaim"
	KindDeniedForeign Kind = "denied_foreign"
	KindDeniedExpired Kind = "denied_expired"
	KindReclaimDenied Kind = "reclaim_denied"
)

// one lease lifecycle event
// Seq is assigned by the log on append and is strictly increasing
type Event struct {
	Seq      uint64         `json:"seq"`
	Kind     Kind           `json:"kind"`
	Resource string         `json:"resource"`
	Holder   types.HolderID `json:"holder"`
	LeaseID  types.LeaseID  `json:"lease_id"`
	Epoch    types.Epoch    `json:"epoch"`
	At       time.Time      `json:"at"`
}

var bucketEvents = []byte("events")

// Log is an append-only record of lease lifecycle events backed by bolt.
// The jurisdiction core itself keeps no persistent state; the log exists so
// who held what, and when, survives a restart and can be reviewed after an
// expired lease is reclaimed.
type Log struct {
	db *bolt.DB
}

// Open creates or opens the audit database at dir/audit.db.
func Open(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit dir: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dir, "audit.db"), 0600, &bolt.Options{
		Timeout: time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvents)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create events bucket: %w", err)
	}

	return &Log{db: db}, nil
}

// Append writes one event; the stored event's Seq is the bucket sequence.
func (l *Log) Append(ev Event) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		ev.Seq = seq

		body, err := json.Marshal(ev)
		if err != nil {
			return err
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, body)
	})
}

// Recent returns up to n events, newest first.
func (l *Log) Recent(n int) ([]Event, error) {
	var out []Event

	err := l.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
			var ev Event
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}
			out = append(out, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (l *Log) Close() error {
	return l.db.Close()
}
