package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"

	"github.com/xoelrdgz/ironwatch/internal/domain"
)

var blocksBucket = []byte("blocks")

// BoltStore keeps block records in a single bbolt bucket. Keys are the
// big-endian record id so cursor order is insertion order.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

func OpenBolt(path string, opts ...Option) (*BoltStore, error) {
	o := buildOptions(opts)

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout:    time.Second,
		NoGrowSync: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	log.Debug().Str("path", path).Msg("Bolt block store opened")
	return &BoltStore{db: db, now: o.now}, nil
}

func (s *BoltStore) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.HistoryEntry, 0, len(records))
	for _, r := range records {
		out = append(out, r.History())
	}
	return out, nil
}

func (s *BoltStore) Latest(ctx context.Context, address string) (domain.BlockRecord, error) {
	var (
		found domain.BlockRecord
		ok    bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(blocksBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var rec domain.BlockRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			if rec.Address == address {
				found, ok = rec, true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return domain.BlockRecord{}, err
	}
	if !ok {
		return domain.BlockRecord{}, ErrNotFound
	}
	return found, nil
}

func (s *BoltStore) Insert(ctx context.Context, address, reason string) (domain.BlockRecord, error) {
	rec := domain.BlockRecord{
		Address:   address,
		Reason:    reason,
		CreatedAt: s.now().UTC().Truncate(time.Second),
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(blocksBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		rec.ID = int64(seq)

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put(idKey(rec.ID), data)
	})
	if err != nil {
		return domain.BlockRecord{}, fmt.Errorf("failed to insert record: %w", err)
	}
	return rec, nil
}

func (s *BoltStore) Delete(ctx context.Context, id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(blocksBucket)
		key := idKey(id)
		if b.Get(key) == nil {
			return ErrNotFound
		}
		return b.Delete(key)
	})
}

func (s *BoltStore) ListMonth(ctx context.Context, month time.Time) ([]domain.BlockRecord, error) {
	start, end := monthBounds(month)
	return s.collect(func(r domain.BlockRecord) bool {
		return !r.CreatedAt.Before(start) && r.CreatedAt.Before(end)
	})
}

func (s *BoltStore) List(ctx context.Context) ([]domain.BlockRecord, error) {
	return s.collect(func(domain.BlockRecord) bool { return true })
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) collect(keep func(domain.BlockRecord) bool) ([]domain.BlockRecord, error) {
	var out []domain.BlockRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucket).ForEach(func(k, v []byte) error {
			var rec domain.BlockRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			if keep(rec) {
				out = append(out, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return out, nil
}

func idKey(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}
