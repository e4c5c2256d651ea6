//go:generate go run go.uber.org/mock/mockgen -source=pairing.go -destination=../mocks/mock_pairing_repository.go -package=mocks
package repositories

import (
	"buddy-chat/contract"
	"buddy-chat/domain"
	"buddy-chat/domain/event"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

const pairingPrefix = "pairing:"

var _ contract.IPairingJournal = (*PairingRepository)(nil)

type IPairingRepository interface {
	contract.IPairingJournal
	ListPairings(limit int, cursor *string) ([]PairingRecord, *string, error)
}

// PairingRepository is the pairing journal: who was paired with whom, and for how long.
// Chat content is never written.
type PairingRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit int
}

func NewPairingRepository(db *badger.DB, log *slog.Logger, limit int) *PairingRepository {
	return &PairingRepository{db: db, log: log, limit: limit}
}

// PairingRecord is one journal entry. EndedAt is zero while the pairing lasts.
type PairingRecord struct {
	ID       uuid.UUID
	Members  [2]domain.ConnectionID
	Names    [2]string
	FormedAt time.Time
	EndedAt  time.Time
	LeftBy   domain.ConnectionID
}

func (p PairingRecord) Ended() bool {
	return !p.EndedAt.IsZero()
}

func (p PairingRecord) Duration() time.Duration {
	if !p.Ended() {
		return 0
	}
	return p.EndedAt.Sub(p.FormedAt)
}

type diskPairing struct {
	ID       string    `cbor:"1,keyasint"`
	Members  [2]string `cbor:"2,keyasint"`
	Names    [2]string `cbor:"3,keyasint"`
	FormedAt int64     `cbor:"4,keyasint"`
	EndedAt  int64     `cbor:"5,keyasint,omitempty"`
	LeftBy   string    `cbor:"6,keyasint,omitempty"`
}

// pairingKey is formatted as "pairing:{formed_at_padded}:{uuid}" so a reverse
// prefix scan lists the most recent pairings first.
func pairingKey(formedAt time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", pairingPrefix, formedAt.UnixNano(), id))
}

func (r PairingRepository) RecordFormed(e event.PairFormed) error {
	return r.put(PairingRecord{
		ID:       e.PairingID,
		Members:  e.Members,
		Names:    e.Names,
		FormedAt: e.FormedAt,
	})
}

// RecordEnded completes the entry written by RecordFormed.
// If that entry was lost, a partial one is written.
func (r PairingRepository) RecordEnded(e event.PairEnded) error {
	key := pairingKey(e.FormedAt, e.PairingID)
	return r.db.Update(func(txn *badger.Txn) error {
		record := PairingRecord{ID: e.PairingID, FormedAt: e.FormedAt}
		item, err := txn.Get(key)
		switch {
		case stderrors.Is(err, badger.ErrKeyNotFound):
			r.log.Warn("Pairing ended without being recorded", "pairing_id", e.PairingID)
		case err != nil:
			return err
		default:
			if err = item.Value(func(value []byte) error {
				record, err = decodePairing(value)
				return err
			}); err != nil {
				return err
			}
		}
		record.EndedAt = e.EndedAt
		record.LeftBy = e.LeftBy
		bytes, err := cbor.Marshal(fromPairingRecord(record))
		if err != nil {
			return err
		}
		return txn.Set(key, bytes)
	})
}

func (r PairingRepository) put(record PairingRecord) error {
	bytes, err := cbor.Marshal(fromPairingRecord(record))
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(pairingKey(record.FormedAt, record.ID), bytes)
	})
}

// ListPairings returns the most recent pairings first.
// The returned cursor is passed back to read the next page. A limit below 1 uses the repository limit.
func (r PairingRepository) ListPairings(limit int, cursor *string) ([]PairingRecord, *string, error) {
	if limit < 1 {
		limit = r.limit
	}
	var records []PairingRecord
	var lastKey string
	prefix := []byte(pairingPrefix)
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			seekKey = append([]byte(pairingPrefix), []byte("9999999999999999999")...)
		default:
			seekKey = append([]byte(pairingPrefix), []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[len(prefix):]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(records) == limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d pairings reached", limit))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			err := item.Value(func(value []byte) error {
				record, err := decodePairing(value)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if lastKey == "" {
		return records, nil, nil
	}
	return records, &lastKey, nil
}

func decodePairing(value []byte) (PairingRecord, error) {
	var disk diskPairing
	if err := cbor.Unmarshal(value, &disk); err != nil {
		return PairingRecord{}, err
	}
	return toPairingRecord(disk)
}

func fromPairingRecord(record PairingRecord) diskPairing {
	disk := diskPairing{
		ID:       record.ID.String(),
		Members:  [2]string{record.Members[0].String(), record.Members[1].String()},
		Names:    record.Names,
		FormedAt: record.FormedAt.UnixNano(),
		LeftBy:   record.LeftBy.String(),
	}
	if record.Ended() {
		disk.EndedAt = record.EndedAt.UnixNano()
	}
	return disk
}

func toPairingRecord(disk diskPairing) (PairingRecord, error) {
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return PairingRecord{}, err
	}
	record := PairingRecord{
		ID:       parsedID,
		Members:  [2]domain.ConnectionID{domain.ConnectionID(disk.Members[0]), domain.ConnectionID(disk.Members[1])},
		Names:    disk.Names,
		FormedAt: time.Unix(0, disk.FormedAt).UTC(),
		LeftBy:   domain.ConnectionID(disk.LeftBy),
	}
	if disk.EndedAt != 0 {
		record.EndedAt = time.Unix(0, disk.EndedAt).UTC()
	}
	return record, nil
}
