package app

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/ironwatch/internal/adapters/storage"
	"github.com/xoelrdgz/ironwatch/internal/domain"
	"github.com/xoelrdgz/ironwatch/internal/ports"
)

var (
	ErrWhitelisted    = errors.New("address is whitelisted")
	ErrInvalidAddress = errors.New("invalid IP address")
)

// Blocker persists verdicts and republishes the server deny configuration.
// It is the only writer of the block store.
type Blocker struct {
	store     ports.BlockStore
	publisher ports.ConfigPublisher
	whitelist domain.Whitelist
	observer  ports.BlockObserver
	now       func() time.Time
}

func NewBlocker(store ports.BlockStore, publisher ports.ConfigPublisher, whitelist domain.Whitelist) *Blocker {
	return &Blocker{
		store:     store,
		publisher: publisher,
		whitelist: whitelist,
		now:       time.Now,
	}
}

// SetObserver registers an observer for inserted records.
func (b *Blocker) SetObserver(o ports.BlockObserver) {
	b.observer = o
}

// Block records address unless it is already stored.
//
// Returns:
//   - true if a new record was inserted
//   - ErrInvalidAddress, ErrWhitelisted, or a store error
func (b *Blocker) Block(ctx context.Context, address, reason string) (bool, error) {
	if _, err := netip.ParseAddr(address); err != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if b.whitelist.Contains(address) {
		log.Warn().Str("ip", address).Msg("Refusing to block whitelisted address")
		return false, ErrWhitelisted
	}

	_, err := b.store.Latest(ctx, address)
	switch {
	case err == nil:
		log.Info().Str("ip", address).Msg("Address already blocked, skipping")
		return false, nil
	case !errors.Is(err, storage.ErrNotFound):
		return false, err
	}

	rec, err := b.store.Insert(ctx, address, reason)
	if err != nil {
		return false, err
	}
	if b.observer != nil {
		b.observer.ObserveBlock()
	}

	log.Info().Int64("id", rec.ID).Str("ip", address).Str("reason", reason).Msg("Address blocked")
	return true, nil
}

// BlockAll blocks every suspect and returns how many were newly inserted.
// Whitelisted and invalid addresses are skipped; store errors abort.
func (b *Blocker) BlockAll(ctx context.Context, suspects []domain.Suspect) (int, error) {
	inserted := 0
	for _, s := range suspects {
		ok, err := b.Block(ctx, s.Address, s.Reason)
		if errors.Is(err, ErrWhitelisted) || errors.Is(err, ErrInvalidAddress) {
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("failed to block %s: %w", s.Address, err)
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

// Unblock deletes the latest record for address and republishes the month
// that record belonged to.
func (b *Blocker) Unblock(ctx context.Context, address string) (domain.BlockRecord, error) {
	rec, err := b.store.Latest(ctx, address)
	if err != nil {
		return domain.BlockRecord{}, err
	}
	if err := b.store.Delete(ctx, rec.ID); err != nil {
		return domain.BlockRecord{}, err
	}
	log.Info().Int64("id", rec.ID).Str("ip", address).Msg("Address unblocked")

	if _, err := b.publish(ctx, rec.CreatedAt); err != nil {
		return rec, err
	}
	return rec, nil
}

// SyncLatest republishes the current month and returns the written path.
func (b *Blocker) SyncLatest(ctx context.Context) (string, error) {
	return b.publish(ctx, b.now())
}

// Reload asks the web server to pick up the published configuration.
func (b *Blocker) Reload(ctx context.Context) error {
	return b.publisher.Reload(ctx)
}

// List returns every stored record.
func (b *Blocker) List(ctx context.Context) ([]domain.BlockRecord, error) {
	return b.store.List(ctx)
}

// publish renders month's records. Months are calendar months in UTC, the
// same partition the store uses.
func (b *Blocker) publish(ctx context.Context, month time.Time) (string, error) {
	month = month.UTC()
	records, err := b.store.ListMonth(ctx, month)
	if err != nil {
		return "", err
	}
	return b.publisher.Publish(ctx, month, records)
}
