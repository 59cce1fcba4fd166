package update_allocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
	allocationRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/allocation"
	resourceRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/resource"
)

var baseTime = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

type fakeResourceRepo struct {
	resources map[int64]*domain.Resource
	lockOrder []int64
}

func (f *fakeResourceRepo) GetByIDForUpdate(_ context.Context, id int64) (*domain.Resource, error) {
	f.lockOrder = append(f.lockOrder, id)
	r, ok := f.resources[id]
	if !ok {
		return nil, resourceRepo.ErrResourceNotFound
	}
	cp := *r
	return &cp, nil
}

type fakeAllocationRepo struct {
	allocations map[int64]*domain.Allocation
	events      map[int64]*domain.Event
}

func (f *fakeAllocationRepo) GetByID(_ context.Context, id int64) (*domain.Allocation, error) {
	a, ok := f.allocations[id]
	if !ok {
		return nil, allocationRepo.ErrAllocationNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAllocationRepo) GetByEventID(_ context.Context, eventID int64) ([]*domain.Allocation, error) {
	var out []*domain.Allocation
	for _, a := range f.allocations {
		if a.EventID == eventID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAllocationRepo) withWindow(a *domain.Allocation) domain.AllocationWithWindow {
	evt := f.events[a.EventID]
	return domain.AllocationWithWindow{
		Allocation: *a,
		EventTitle: evt.Title,
		Window:     evt.Window(),
	}
}

func (f *fakeAllocationRepo) GetOverlapping(_ context.Context, resourceID int64, from, to time.Time, excludeEventID *int64) ([]domain.AllocationWithWindow, error) {
	window := domain.TimeWindow{Start: from, End: to}
	var out []domain.AllocationWithWindow
	for _, a := range f.allocations {
		evt := f.events[a.EventID]
		if a.ResourceID != resourceID || evt.IsCancelled() || !evt.Window().Overlaps(window) {
			continue
		}
		if excludeEventID != nil && a.EventID == *excludeEventID {
			continue
		}
		out = append(out, f.withWindow(a))
	}
	return out, nil
}

func (f *fakeAllocationRepo) GetActiveByResource(_ context.Context, resourceID int64, excludeEventID *int64) ([]domain.AllocationWithWindow, error) {
	var out []domain.AllocationWithWindow
	for _, a := range f.allocations {
		if a.ResourceID != resourceID || f.events[a.EventID].IsCancelled() {
			continue
		}
		if excludeEventID != nil && a.EventID == *excludeEventID {
			continue
		}
		out = append(out, f.withWindow(a))
	}
	return out, nil
}

func (f *fakeAllocationRepo) Update(_ context.Context, id int64, resourceID int64, quantity int) (*domain.Allocation, error) {
	a, ok := f.allocations[id]
	if !ok {
		return nil, allocationRepo.ErrAllocationNotFound
	}
	a.ResourceID = resourceID
	a.Quantity = quantity
	a.UpdatedAt = baseTime.Add(time.Minute)
	cp := *a
	return &cp, nil
}

type fakeEventRepo struct {
	events map[int64]*domain.Event
}

func (f *fakeEventRepo) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, assert.AnError
	}
	cp := *e
	return &cp, nil
}

type fakeStockLedger struct {
	entries []domain.StockEntry
}

func (f *fakeStockLedger) Append(_ context.Context, entry *domain.StockEntry) (*domain.StockEntry, error) {
	cp := *entry
	cp.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, cp)
	return &cp, nil
}

type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixture struct {
	resources   *fakeResourceRepo
	allocations *fakeAllocationRepo
	stock       *fakeStockLedger
	tx          *fakeTxManager
	uc          *UseCase
}

func newFixture() *fixture {
	events := make(map[int64]*domain.Event)
	f := &fixture{
		resources:   &fakeResourceRepo{resources: make(map[int64]*domain.Resource)},
		allocations: &fakeAllocationRepo{allocations: make(map[int64]*domain.Allocation), events: events},
		stock:       &fakeStockLedger{},
		tx:          &fakeTxManager{},
	}
	f.uc = NewUseCase(f.resources, f.allocations, &fakeEventRepo{events: events}, f.stock, f.tx, nopLogger{})
	return f
}

func (f *fixture) addResource(r domain.Resource) {
	f.resources.resources[r.ID] = &r
}

func (f *fixture) addEvent(e domain.Event) {
	f.allocations.events[e.ID] = &e
}

func (f *fixture) addAllocation(a domain.Allocation) {
	f.allocations.allocations[a.ID] = &a
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestExecute_IncreaseQuantityExcludesOwnEvent(t *testing.T) {
	f := newFixture()
	f.addResource(domain.Resource{ID: 1, Name: "Chairs", Type: domain.TypeExclusive, TotalQuantity: 10})
	f.addEvent(domain.Event{ID: 10, Title: "Lecture", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})
	// Текущая бронь занимает 8 из 10; без самоисключения рост до 10 был бы невозможен
	f.addAllocation(domain.Allocation{ID: 5, ResourceID: 1, EventID: 10, Quantity: 8})

	resp, err := f.uc.Execute(context.Background(), &Request{AllocationID: 5, Quantity: intPtr(10)})
	require.NoError(t, err)

	assert.Equal(t, 10, resp.Quantity)
	assert.Equal(t, int64(1), resp.ResourceID)
	assert.True(t, resp.Availability.Available)
	assert.Equal(t, 1, f.tx.calls)
}

func TestExecute_SiblingAllocationStillCounts(t *testing.T) {
	f := newFixture()
	f.addResource(domain.Resource{ID: 1, Name: "Chairs", Type: domain.TypeExclusive, TotalQuantity: 10})
	f.addEvent(domain.Event{ID: 10, Title: "Lecture", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})
	f.addAllocation(domain.Allocation{ID: 5, ResourceID: 1, EventID: 10, Quantity: 2})
	// Вторая аллокация того же события на том же ресурсе не должна исчезнуть из проверки
	f.addAllocation(domain.Allocation{ID: 6, ResourceID: 1, EventID: 10, Quantity: 6})

	_, err := f.uc.Execute(context.Background(), &Request{AllocationID: 5, Quantity: intPtr(5)})
	require.ErrorIs(t, err, ErrInsufficientCapacity)

	resp, err := f.uc.Execute(context.Background(), &Request{AllocationID: 5, Quantity: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Quantity)
}

func TestExecute_CompetingEventBlocksIncrease(t *testing.T) {
	f := newFixture()
	f.addResource(domain.Resource{ID: 1, Name: "Chairs", Type: domain.TypeExclusive, TotalQuantity: 10})
	f.addEvent(domain.Event{ID: 10, Title: "Lecture", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})
	f.addEvent(domain.Event{ID: 20, Title: "Seminar", StartTime: baseTime.Add(30 * time.Minute), EndTime: baseTime.Add(90 * time.Minute), Status: domain.EventStatusPublished})
	f.addAllocation(domain.Allocation{ID: 5, ResourceID: 1, EventID: 10, Quantity: 2})
	f.addAllocation(domain.Allocation{ID: 6, ResourceID: 1, EventID: 20, Quantity: 7})

	_, err := f.uc.Execute(context.Background(), &Request{AllocationID: 5, Quantity: intPtr(4)})
	require.ErrorIs(t, err, ErrInsufficientCapacity)

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 3, capErr.Result.Details.RemainingQuantity)
}

func TestExecute_ShareableQuantityChangeKeepsOwnSlot(t *testing.T) {
	f := newFixture()
	f.addResource(domain.Resource{ID: 1, Name: "Projectors", Type: domain.TypeShareable, TotalQuantity: 10, MaxConcurrentUsage: intPtr(2)})
	f.addEvent(domain.Event{ID: 10, Title: "Lecture", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})
	f.addEvent(domain.Event{ID: 20, Title: "Seminar", StartTime: baseTime.Add(30 * time.Minute), EndTime: baseTime.Add(90 * time.Minute), Status: domain.EventStatusPublished})
	// Лимит одновременных событий исчерпан событиями 10 и 20, но событие 10
	// уже держит свой слот: изменение количества не добавляет нового события
	f.addAllocation(domain.Allocation{ID: 5, ResourceID: 1, EventID: 10, Quantity: 1})
	f.addAllocation(domain.Allocation{ID: 6, ResourceID: 1, EventID: 10, Quantity: 1})
	f.addAllocation(domain.Allocation{ID: 7, ResourceID: 1, EventID: 20, Quantity: 2})

	resp, err := f.uc.Execute(context.Background(), &Request{AllocationID: 5, Quantity: intPtr(2)})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Quantity)
	assert.True(t, resp.Availability.Available)
	// В счетчике одновременных событий остается только чужое событие 20
	assert.Equal(t, 1, resp.Availability.Details.CurrentConcurrentUsage)
}

func TestExecute_MoveToAnotherResourceRevalidates(t *testing.T) {
	f := newFixture()
	f.addResource(domain.Resource{ID: 1, Name: "Room A", Type: domain.TypeExclusive, TotalQuantity: 1})
	f.addResource(domain.Resource{ID: 2, Name: "Room B", Type: domain.TypeExclusive, TotalQuantity: 1})
	f.addEvent(domain.Event{ID: 10, Title: "Lecture", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})
	f.addEvent(domain.Event{ID: 20, Title: "Seminar", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})
	f.addAllocation(domain.Allocation{ID: 5, ResourceID: 1, EventID: 10, Quantity: 1})
	f.addAllocation(domain.Allocation{ID: 6, ResourceID: 2, EventID: 20, Quantity: 1})

	// Room B занят пересекающимся событием - перенос отклоняется
	_, err := f.uc.Execute(context.Background(), &Request{AllocationID: 5, ResourceID: int64Ptr(2)})
	require.ErrorIs(t, err, ErrInsufficientCapacity)

	// После освобождения Room B перенос проходит
	delete(f.allocations.allocations, 6)
	resp, err := f.uc.Execute(context.Background(), &Request{AllocationID: 5, ResourceID: int64Ptr(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.ResourceID)
}

func TestExecute_MoveLocksResourcesInAscendingOrder(t *testing.T) {
	f := newFixture()
	f.addResource(domain.Resource{ID: 7, Name: "Room A", Type: domain.TypeExclusive, TotalQuantity: 1})
	f.addResource(domain.Resource{ID: 3, Name: "Room B", Type: domain.TypeExclusive, TotalQuantity: 1})
	f.addEvent(domain.Event{ID: 10, Title: "Lecture", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})
	f.addAllocation(domain.Allocation{ID: 5, ResourceID: 7, EventID: 10, Quantity: 1})

	_, err := f.uc.Execute(context.Background(), &Request{AllocationID: 5, ResourceID: int64Ptr(3)})
	require.NoError(t, err)

	assert.Equal(t, []int64{3, 7}, f.resources.lockOrder)
}

func TestExecute_MoveBetweenConsumablesAdjustsLedger(t *testing.T) {
	f := newFixture()
	f.addResource(domain.Resource{ID: 1, Name: "Kits A", Type: domain.TypeConsumable, TotalQuantity: 50})
	f.addResource(domain.Resource{ID: 2, Name: "Kits B", Type: domain.TypeConsumable, TotalQuantity: 50})
	f.addEvent(domain.Event{ID: 10, Title: "Onboarding", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})
	f.addAllocation(domain.Allocation{ID: 5, ResourceID: 1, EventID: 10, Quantity: 8})

	_, err := f.uc.Execute(context.Background(), &Request{AllocationID: 5, ResourceID: int64Ptr(2), Quantity: intPtr(6)})
	require.NoError(t, err)

	require.Len(t, f.stock.entries, 2)
	release, consume := f.stock.entries[0], f.stock.entries[1]
	assert.Equal(t, domain.StockRelease, release.Kind)
	assert.Equal(t, int64(1), release.ResourceID)
	assert.Equal(t, 8, release.Delta)
	assert.Equal(t, domain.StockConsume, consume.Kind)
	assert.Equal(t, int64(2), consume.ResourceID)
	assert.Equal(t, -6, consume.Delta)
}

func TestExecute_QuantityChangeOnConsumableRewritesLedger(t *testing.T) {
	f := newFixture()
	f.addResource(domain.Resource{ID: 1, Name: "Kits", Type: domain.TypeConsumable, TotalQuantity: 50})
	f.addEvent(domain.Event{ID: 10, Title: "Onboarding", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})
	f.addAllocation(domain.Allocation{ID: 5, ResourceID: 1, EventID: 10, Quantity: 8})

	_, err := f.uc.Execute(context.Background(), &Request{AllocationID: 5, Quantity: intPtr(3)})
	require.NoError(t, err)

	// Возврат старого списания + новое списание: сумма дельт отражает изменение
	require.Len(t, f.stock.entries, 2)
	assert.Equal(t, 8, f.stock.entries[0].Delta)
	assert.Equal(t, -3, f.stock.entries[1].Delta)
}

func TestExecute_NotFoundAndCancelled(t *testing.T) {
	f := newFixture()
	f.addResource(domain.Resource{ID: 1, Name: "Chairs", Type: domain.TypeExclusive, TotalQuantity: 10})
	f.addEvent(domain.Event{ID: 10, Title: "Lecture", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusCancelled})
	f.addAllocation(domain.Allocation{ID: 5, ResourceID: 1, EventID: 10, Quantity: 2})

	_, err := f.uc.Execute(context.Background(), &Request{AllocationID: 99, Quantity: intPtr(1)})
	assert.ErrorIs(t, err, ErrAllocationNotFound)

	_, err = f.uc.Execute(context.Background(), &Request{AllocationID: 5, ResourceID: int64Ptr(42)})
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = f.uc.Execute(context.Background(), &Request{AllocationID: 5, Quantity: intPtr(1)})
	assert.ErrorIs(t, err, ErrEventCancelled)
}

func TestExecute_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{name: "no fields to change", req: Request{AllocationID: 5}},
		{name: "zero allocation id", req: Request{AllocationID: 0, Quantity: intPtr(1)}},
		{name: "zero quantity", req: Request{AllocationID: 5, Quantity: intPtr(0)}},
		{name: "negative resource id", req: Request{AllocationID: 5, ResourceID: int64Ptr(-1)}},
		{name: "quantity above limit", req: Request{AllocationID: 5, Quantity: intPtr(domain.MaxAllocationQuantity + 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.uc.Execute(context.Background(), &tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, 0, f.tx.calls)
		})
	}
}
