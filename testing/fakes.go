package testing

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/amirphl/crud-project/models"
	"github.com/amirphl/crud-project/repository"
)

// InMemoryDemoRepository is a map-backed DemoRepository for flow and handler tests
type InMemoryDemoRepository struct {
	mu    sync.Mutex
	demos map[int64]models.Demo
	err   error
	saves int
}

func NewInMemoryDemoRepository(seed ...models.Demo) *InMemoryDemoRepository {
	r := &InMemoryDemoRepository{demos: make(map[int64]models.Demo)}
	for _, d := range seed {
		r.demos[d.ID] = d
	}
	return r
}

// FailWith makes every subsequent call return err; nil restores normal behavior
func (r *InMemoryDemoRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Saves returns how many Save calls reached the store
func (r *InMemoryDemoRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// Len returns the number of stored demos
func (r *InMemoryDemoRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.demos)
}

func (r *InMemoryDemoRepository) ByID(ctx context.Context, id int64) (*models.Demo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	d, ok := r.demos[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *InMemoryDemoRepository) matching(filter models.DemoFilter) []*models.Demo {
	out := make([]*models.Demo, 0, len(r.demos))
	for _, d := range r.demos {
		if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, d.ID) {
			continue
		}
		if filter.NameContains != nil && *filter.NameContains != "" &&
			!strings.Contains(strings.ToLower(d.Name), strings.ToLower(*filter.NameContains)) {
			continue
		}
		out = append(out, &d)
	}
	slices.SortFunc(out, func(a, b *models.Demo) int { return int(a.ID - b.ID) })
	return out
}

func (r *InMemoryDemoRepository) ByFilter(ctx context.Context, filter models.DemoFilter) ([]*models.Demo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.matching(filter), nil
}

func (r *InMemoryDemoRepository) Count(ctx context.Context, filter models.DemoFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return int64(len(r.matching(filter))), nil
}

func (r *InMemoryDemoRepository) Save(ctx context.Context, demo *models.Demo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.err != nil {
		return r.err
	}
	if _, exists := r.demos[demo.ID]; exists {
		return fmt.Errorf("%w: demo %d", repository.ErrDuplicateKey, demo.ID)
	}
	r.demos[demo.ID] = *demo
	return nil
}

func (r *InMemoryDemoRepository) Update(ctx context.Context, id int64, fields models.DemoFields, mode models.UpdateMode) (*models.Demo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	d, ok := r.demos[id]
	if !ok {
		return nil, nil
	}
	fields.Apply(&d, mode)
	r.demos[id] = d
	return &d, nil
}

func (r *InMemoryDemoRepository) Delete(ctx context.Context, id int64) (*models.Demo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	d, ok := r.demos[id]
	if !ok {
		return nil, nil
	}
	delete(r.demos, id)
	return &d, nil
}

func (r *InMemoryDemoRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	var deleted int64
	for _, id := range ids {
		if _, ok := r.demos[id]; ok {
			delete(r.demos, id)
			deleted++
		}
	}
	return deleted, nil
}

// InMemorySequenceCounter is a map-backed SequenceCounterRepository for tests
type InMemorySequenceCounter struct {
	mu     sync.Mutex
	values map[string]int64
	err    error
}

func NewInMemorySequenceCounter() *InMemorySequenceCounter {
	return &InMemorySequenceCounter{values: make(map[string]int64)}
}

// FailWith makes every subsequent call return err; nil restores normal behavior
func (s *InMemorySequenceCounter) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *InMemorySequenceCounter) Next(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.values[name]++
	return s.values[name], nil
}

func (s *InMemorySequenceCounter) Current(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return s.values[name], nil
}

var (
	_ repository.DemoRepository            = (*InMemoryDemoRepository)(nil)
	_ repository.SequenceCounterRepository = (*InMemorySequenceCounter)(nil)
)
