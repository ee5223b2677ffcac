package history

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"codescan/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrRecordNotFound is returned by Get when no row has the id
	ErrRecordNotFound = errors.New("history: record not found")
	// ErrPartitionMismatch is returned when a record would move to the other partition
	ErrPartitionMismatch = errors.New("history: record type cannot change")
)

// Store persists code records in the code_records table, partitioned by record type.
// Mutations of one partition are serialized; observers are notified after each one.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger

	locks map[models.RecordType]*sync.Mutex

	mu       sync.Mutex
	watchers map[models.RecordType]map[*watcher]struct{}
}

type watcher struct {
	signal chan struct{}
}

func NewStore(db *gorm.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log,
		locks: map[models.RecordType]*sync.Mutex{
			models.RecordTypeScan:     {},
			models.RecordTypeGenerate: {},
		},
		watchers: make(map[models.RecordType]map[*watcher]struct{}),
	}
}

func (s *Store) lock(rt models.RecordType) (func(), error) {
	m, ok := s.locks[rt]
	if !ok {
		return nil, fmt.Errorf("invalid record type %q", rt)
	}
	m.Lock()
	return m.Unlock, nil
}

// lockAll takes every partition lock in a fixed order
func (s *Store) lockAll() func() {
	order := []models.RecordType{models.RecordTypeScan, models.RecordTypeGenerate}
	for _, rt := range order {
		s.locks[rt].Lock()
	}
	return func() {
		for i := len(order) - 1; i >= 0; i-- {
			s.locks[order[i]].Unlock()
		}
	}
}

// Observe returns a channel that receives the partition's records, newest
// first, now and after every mutation. A slow reader only sees the latest
// snapshot. The channel is closed once ctx is done.
func (s *Store) Observe(ctx context.Context, rt models.RecordType) (<-chan []models.CodeRecord, error) {
	if !rt.Valid() {
		return nil, fmt.Errorf("history: observe: invalid record type %q", rt)
	}

	w := &watcher{signal: make(chan struct{}, 1)}
	s.mu.Lock()
	if s.watchers[rt] == nil {
		s.watchers[rt] = make(map[*watcher]struct{})
	}
	s.watchers[rt][w] = struct{}{}
	s.mu.Unlock()

	initial, err := s.List(ctx, rt)
	if err != nil {
		s.unwatch(rt, w)
		return nil, err
	}

	out := make(chan []models.CodeRecord, 1)
	out <- initial

	go func() {
		defer close(out)
		defer s.unwatch(rt, w)
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.signal:
			}
			records, err := s.List(ctx, rt)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Error().Err(err).Str("record_type", string(rt)).Msg("refresh observed history")
				}
				continue
			}
			sendLatest(out, records)
		}
	}()
	return out, nil
}

// sendLatest replaces an unread snapshot instead of blocking; only this
// goroutine sends on out.
func sendLatest(out chan []models.CodeRecord, records []models.CodeRecord) {
	select {
	case out <- records:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	out <- records
}

func (s *Store) unwatch(rt models.RecordType, w *watcher) {
	s.mu.Lock()
	delete(s.watchers[rt], w)
	s.mu.Unlock()
}

func (s *Store) notify(rts ...models.RecordType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rt := range rts {
		for w := range s.watchers[rt] {
			select {
			case w.signal <- struct{}{}:
			default:
			}
		}
	}
}

// List returns the partition's records ordered by createdAt then id, both descending
func (s *Store) List(ctx context.Context, rt models.RecordType) ([]models.CodeRecord, error) {
	var rows []models.CodeRecordEntity
	err := s.db.WithContext(ctx).
		Where(&models.CodeRecordEntity{RecordType: string(rt)}).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "createdAt"}, Desc: true},
			{Column: clause.Column{Name: "id"}, Desc: true},
		}}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("history: list %s: %w", rt, err)
	}

	records := make([]models.CodeRecord, 0, len(rows))
	for _, row := range rows {
		r, err := row.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("history: decode row %d: %w", row.ID, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// Insert stores the record and returns its id. A record carrying the id of an
// existing row replaces that row; the row keeps its partition.
func (s *Store) Insert(ctx context.Context, record models.CodeRecord) (int64, error) {
	if err := record.Validate(); err != nil {
		return 0, fmt.Errorf("history: insert: %w", err)
	}

	var unlock func()
	if record.ID != 0 {
		unlock = s.lockAll()
	} else {
		u, err := s.lock(record.RecordType)
		if err != nil {
			return 0, fmt.Errorf("history: insert: %w", err)
		}
		unlock = u
	}
	defer unlock()

	db := s.db.WithContext(ctx)
	if record.ID != 0 {
		var existing models.CodeRecordEntity
		err := db.Where(&models.CodeRecordEntity{ID: record.ID}).Limit(1).Find(&existing).Error
		if err != nil {
			return 0, fmt.Errorf("history: insert: %w", err)
		}
		if existing.ID != 0 && existing.RecordType != string(record.RecordType) {
			return 0, fmt.Errorf("history: insert %d: %w", record.ID, ErrPartitionMismatch)
		}
	}

	row := models.CodeRecordEntityFromDomain(record)
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("history: insert: %w", err)
	}

	s.notify(record.RecordType)
	return row.ID, nil
}

func (s *Store) Get(ctx context.Context, id int64) (models.CodeRecord, error) {
	if id <= 0 {
		return models.CodeRecord{}, ErrRecordNotFound
	}
	var row models.CodeRecordEntity
	err := s.db.WithContext(ctx).Where(&models.CodeRecordEntity{ID: id}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CodeRecord{}, ErrRecordNotFound
	}
	if err != nil {
		return models.CodeRecord{}, fmt.Errorf("history: get %d: %w", id, err)
	}
	return row.ToDomain()
}

// Delete removes the record with the same id from its partition. Deleting a
// missing record is a no-op.
func (s *Store) Delete(ctx context.Context, record models.CodeRecord) error {
	if record.ID == 0 {
		return nil
	}
	unlock, err := s.lock(record.RecordType)
	if err != nil {
		return fmt.Errorf("history: delete: %w", err)
	}
	defer unlock()

	res := s.db.WithContext(ctx).
		Where(&models.CodeRecordEntity{ID: record.ID, RecordType: string(record.RecordType)}).
		Delete(&models.CodeRecordEntity{})
	if res.Error != nil {
		return fmt.Errorf("history: delete %d: %w", record.ID, res.Error)
	}
	if res.RowsAffected > 0 {
		s.notify(record.RecordType)
	}
	return nil
}

// Clear deletes every record of the partition in one statement
func (s *Store) Clear(ctx context.Context, rt models.RecordType) error {
	unlock, err := s.lock(rt)
	if err != nil {
		return fmt.Errorf("history: clear: %w", err)
	}
	defer unlock()

	err = s.db.WithContext(ctx).
		Where(&models.CodeRecordEntity{RecordType: string(rt)}).
		Delete(&models.CodeRecordEntity{}).Error
	if err != nil {
		return fmt.Errorf("history: clear %s: %w", rt, err)
	}
	s.notify(rt)
	return nil
}
