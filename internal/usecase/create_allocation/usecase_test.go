package create_allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
	eventRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/event"
	resourceRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/resource"
)

var baseTime = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

type fakeResourceRepo struct {
	resources map[int64]*domain.Resource
	lockCalls int
}

func (f *fakeResourceRepo) GetByIDForUpdate(_ context.Context, id int64) (*domain.Resource, error) {
	f.lockCalls++
	r, ok := f.resources[id]
	if !ok {
		return nil, resourceRepo.ErrResourceNotFound
	}
	cp := *r
	return &cp, nil
}

type fakeAllocationRepo struct {
	existing []domain.AllocationWithWindow
	created  []domain.Allocation
	nextID   int64
}

func (f *fakeAllocationRepo) Create(_ context.Context, alloc *domain.Allocation) (*domain.Allocation, error) {
	f.nextID++
	cp := *alloc
	cp.ID = f.nextID
	cp.CreatedAt = baseTime
	cp.UpdatedAt = baseTime
	f.created = append(f.created, cp)
	return &cp, nil
}

func (f *fakeAllocationRepo) GetOverlapping(_ context.Context, resourceID int64, from, to time.Time, excludeEventID *int64) ([]domain.AllocationWithWindow, error) {
	window := domain.TimeWindow{Start: from, End: to}
	var out []domain.AllocationWithWindow
	for _, a := range f.existing {
		if a.ResourceID != resourceID || !a.Window.Overlaps(window) {
			continue
		}
		if excludeEventID != nil && a.EventID == *excludeEventID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAllocationRepo) GetActiveByResource(_ context.Context, resourceID int64, excludeEventID *int64) ([]domain.AllocationWithWindow, error) {
	var out []domain.AllocationWithWindow
	for _, a := range f.existing {
		if a.ResourceID != resourceID {
			continue
		}
		if excludeEventID != nil && a.EventID == *excludeEventID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

type fakeEventRepo struct {
	events     map[int64]*domain.Event
	nextID     int64
	deletedIDs []int64
	failDelete bool
}

func (f *fakeEventRepo) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, eventRepo.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) Create(_ context.Context, evt *domain.Event) (*domain.Event, error) {
	f.nextID++
	cp := *evt
	cp.ID = f.nextID
	if f.events == nil {
		f.events = make(map[int64]*domain.Event)
	}
	f.events[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeEventRepo) Delete(_ context.Context, id int64) error {
	if f.failDelete {
		return errors.New("storage.event: connection lost")
	}
	delete(f.events, id)
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

type fakeStockLedger struct {
	entries []domain.StockEntry
}

func (f *fakeStockLedger) Append(_ context.Context, entry *domain.StockEntry) (*domain.StockEntry, error) {
	cp := *entry
	cp.ID = int64(len(f.entries) + 1)
	cp.RecordedAt = baseTime
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
	events      *fakeEventRepo
	stock       *fakeStockLedger
	tx          *fakeTxManager
	uc          *UseCase
}

func newFixture(withTx bool) *fixture {
	f := &fixture{
		resources:   &fakeResourceRepo{resources: make(map[int64]*domain.Resource)},
		allocations: &fakeAllocationRepo{},
		events:      &fakeEventRepo{events: make(map[int64]*domain.Event)},
		stock:       &fakeStockLedger{},
	}
	var tx TransactionManager
	if withTx {
		f.tx = &fakeTxManager{}
		tx = f.tx
	}
	f.uc = NewUseCase(f.resources, f.allocations, f.events, f.stock, tx, nopLogger{})
	return f
}

func (f *fixture) addResource(r domain.Resource) {
	f.resources.resources[r.ID] = &r
}

func (f *fixture) addEvent(e domain.Event) {
	f.events.events[e.ID] = &e
	if e.ID > f.events.nextID {
		f.events.nextID = e.ID
	}
}

func (f *fixture) addExisting(resourceID, eventID int64, quantity int, window domain.TimeWindow) {
	f.allocations.existing = append(f.allocations.existing, domain.AllocationWithWindow{
		Allocation: domain.Allocation{
			ID:         int64(len(f.allocations.existing) + 100),
			ResourceID: resourceID,
			EventID:    eventID,
			Quantity:   quantity,
		},
		Window: window,
	})
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestExecute_CreatesAllocation(t *testing.T) {
	f := newFixture(true)
	f.addResource(domain.Resource{ID: 1, Name: "Projector", Type: domain.TypeExclusive, TotalQuantity: 2})
	f.addEvent(domain.Event{ID: 10, Title: "Standup", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})

	resp, err := f.uc.Execute(context.Background(), &Request{ResourceID: 1, EventID: 10, Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, int64(1), resp.ResourceID)
	assert.Equal(t, int64(10), resp.EventID)
	assert.Equal(t, 1, resp.Quantity)
	assert.True(t, resp.Availability.Available)
	assert.Equal(t, 1, f.tx.calls, "capacity check and write must share one serializable transaction")
	assert.Equal(t, 1, f.resources.lockCalls, "resource row must be locked before the check")
	require.Len(t, f.allocations.created, 1)
	assert.Empty(t, f.stock.entries, "non-consumable allocation must not touch the stock ledger")
}

func TestExecute_InsufficientCapacity(t *testing.T) {
	f := newFixture(true)
	f.addResource(domain.Resource{ID: 1, Name: "Projector", Type: domain.TypeExclusive, TotalQuantity: 2})
	f.addEvent(domain.Event{ID: 10, Title: "Standup", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})
	f.addExisting(1, 20, 2, domain.TimeWindow{Start: baseTime.Add(-time.Hour), End: baseTime.Add(2 * time.Hour)})

	_, err := f.uc.Execute(context.Background(), &Request{ResourceID: 1, EventID: 10, Quantity: 1})
	require.ErrorIs(t, err, ErrInsufficientCapacity)

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.False(t, capErr.Result.Available)
	assert.Equal(t, 0, capErr.Result.Details.RemainingQuantity)
	assert.NotEmpty(t, capErr.Result.Conflicts)
	assert.Empty(t, f.allocations.created)
}

func TestExecute_BackToBackWindowsDoNotConflict(t *testing.T) {
	f := newFixture(true)
	f.addResource(domain.Resource{ID: 1, Name: "Room", Type: domain.TypeExclusive, TotalQuantity: 1})
	f.addEvent(domain.Event{ID: 10, Title: "Second shift", StartTime: baseTime.Add(time.Hour), EndTime: baseTime.Add(2 * time.Hour), Status: domain.EventStatusPublished})
	f.addExisting(1, 20, 1, domain.TimeWindow{Start: baseTime, End: baseTime.Add(time.Hour)})

	resp, err := f.uc.Execute(context.Background(), &Request{ResourceID: 1, EventID: 10, Quantity: 1})
	require.NoError(t, err)
	assert.True(t, resp.Availability.Available)
}

func TestExecute_ConcurrencyCapExceeded(t *testing.T) {
	f := newFixture(true)
	f.addResource(domain.Resource{ID: 1, Name: "Cloud quota", Type: domain.TypeShareable, TotalQuantity: 10, MaxConcurrentUsage: intPtr(2)})
	f.addEvent(domain.Event{ID: 10, Title: "Load test", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})
	window := domain.TimeWindow{Start: baseTime, End: baseTime.Add(time.Hour)}
	f.addExisting(1, 20, 3, window)
	f.addExisting(1, 21, 3, window)

	_, err := f.uc.Execute(context.Background(), &Request{ResourceID: 1, EventID: 10, Quantity: 1})
	require.ErrorIs(t, err, ErrConcurrencyCapExceeded)

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.GreaterOrEqual(t, capErr.Result.Details.RemainingQuantity, 1, "quantity headroom remains, only the concurrency cap binds")
}

func TestExecute_SecondAllocationOfSameEventKeepsSlot(t *testing.T) {
	f := newFixture(true)
	f.addResource(domain.Resource{ID: 1, Name: "Cloud quota", Type: domain.TypeShareable, TotalQuantity: 10, MaxConcurrentUsage: intPtr(2)})
	f.addEvent(domain.Event{ID: 10, Title: "Load test", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})
	window := domain.TimeWindow{Start: baseTime, End: baseTime.Add(time.Hour)}
	// Оба слота заняты, но один - самим событием 10: его вторая аллокация
	// не добавляет нового одновременного события
	f.addExisting(1, 10, 3, window)
	f.addExisting(1, 20, 3, window)

	resp, err := f.uc.Execute(context.Background(), &Request{ResourceID: 1, EventID: 10, Quantity: 1})
	require.NoError(t, err)

	assert.True(t, resp.Availability.Available)
	assert.Equal(t, 1, resp.Availability.Details.CurrentConcurrentUsage)
}

func TestExecute_ConsumableAppendsStockEntry(t *testing.T) {
	f := newFixture(true)
	f.addResource(domain.Resource{ID: 1, Name: "Welcome kits", Type: domain.TypeConsumable, TotalQuantity: 50})
	f.addEvent(domain.Event{ID: 10, Title: "Onboarding", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})

	resp, err := f.uc.Execute(context.Background(), &Request{ResourceID: 1, EventID: 10, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Quantity)

	require.Len(t, f.stock.entries, 1)
	entry := f.stock.entries[0]
	assert.Equal(t, domain.StockConsume, entry.Kind)
	assert.Equal(t, -5, entry.Delta)
	require.NotNil(t, entry.EventID)
	assert.Equal(t, int64(10), *entry.EventID)
}

func TestExecute_ConsumableCountsNonOverlappingAllocations(t *testing.T) {
	f := newFixture(true)
	f.addResource(domain.Resource{ID: 1, Name: "Welcome kits", Type: domain.TypeConsumable, TotalQuantity: 10})
	f.addEvent(domain.Event{ID: 10, Title: "Onboarding", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})
	// Окно далеко в прошлом - для расходуемого ресурса всё равно списано
	f.addExisting(1, 20, 8, domain.TimeWindow{Start: baseTime.Add(-48 * time.Hour), End: baseTime.Add(-47 * time.Hour)})

	_, err := f.uc.Execute(context.Background(), &Request{ResourceID: 1, EventID: 10, Quantity: 5})
	require.ErrorIs(t, err, ErrInsufficientCapacity)
}

func TestExecute_ResourceNotFound(t *testing.T) {
	f := newFixture(true)
	f.addEvent(domain.Event{ID: 10, Title: "Standup", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusPublished})

	_, err := f.uc.Execute(context.Background(), &Request{ResourceID: 99, EventID: 10, Quantity: 1})
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestExecute_EventNotFound(t *testing.T) {
	f := newFixture(true)
	f.addResource(domain.Resource{ID: 1, Name: "Projector", Type: domain.TypeExclusive, TotalQuantity: 2})

	_, err := f.uc.Execute(context.Background(), &Request{ResourceID: 1, EventID: 99, Quantity: 1})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestExecute_EventCancelled(t *testing.T) {
	f := newFixture(true)
	f.addResource(domain.Resource{ID: 1, Name: "Projector", Type: domain.TypeExclusive, TotalQuantity: 2})
	f.addEvent(domain.Event{ID: 10, Title: "Standup", StartTime: baseTime, EndTime: baseTime.Add(time.Hour), Status: domain.EventStatusCancelled})

	_, err := f.uc.Execute(context.Background(), &Request{ResourceID: 1, EventID: 10, Quantity: 1})
	assert.ErrorIs(t, err, ErrEventCancelled)
	assert.Empty(t, f.allocations.created)
}

func TestExecute_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{name: "zero resource id", req: Request{ResourceID: 0, EventID: 10, Quantity: 1}},
		{name: "zero event id", req: Request{ResourceID: 1, EventID: 0, Quantity: 1}},
		{name: "zero quantity", req: Request{ResourceID: 1, EventID: 10, Quantity: 0}},
		{name: "negative quantity", req: Request{ResourceID: 1, EventID: 10, Quantity: -3}},
		{name: "quantity above limit", req: Request{ResourceID: 1, EventID: 10, Quantity: domain.MaxAllocationQuantity + 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(true)
			_, err := f.uc.Execute(context.Background(), &tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, 0, f.tx.calls, "validation must reject before opening a transaction")
		})
	}
}

func TestExecuteWithEvent_CreatesEventAndAllocations(t *testing.T) {
	f := newFixture(true)
	f.addResource(domain.Resource{ID: 1, Name: "Room", Type: domain.TypeExclusive, TotalQuantity: 1})
	f.addResource(domain.Resource{ID: 2, Name: "Welcome kits", Type: domain.TypeConsumable, TotalQuantity: 50})

	resp, err := f.uc.ExecuteWithEvent(context.Background(), &WithEventRequest{
		Event: EventSpec{
			Title:          "Workshop",
			StartTime:      baseTime,
			EndTime:        baseTime.Add(2 * time.Hour),
			OrganizationID: int64Ptr(7),
		},
		Allocations: []AllocationSpec{
			{ResourceID: 1, Quantity: 1},
			{ResourceID: 2, Quantity: 10},
		},
	})
	require.NoError(t, err)

	assert.NotZero(t, resp.EventID)
	require.Len(t, resp.Allocations, 2)
	assert.Equal(t, resp.EventID, resp.Allocations[0].EventID)
	assert.Equal(t, 1, f.tx.calls, "event and allocations must share one transaction")

	created, ok := f.events.events[resp.EventID]
	require.True(t, ok)
	assert.Equal(t, domain.EventStatusPublished, created.Status)
	require.NotNil(t, created.OrganizationID)
	assert.Equal(t, int64(7), *created.OrganizationID)

	require.Len(t, f.stock.entries, 1, "consumable allocation must be recorded in the ledger")
	assert.Equal(t, -10, f.stock.entries[0].Delta)
}

func TestExecuteWithEvent_AllocationFailureSurfacesCapacityError(t *testing.T) {
	f := newFixture(true)
	f.addResource(domain.Resource{ID: 1, Name: "Room", Type: domain.TypeExclusive, TotalQuantity: 1})
	f.addResource(domain.Resource{ID: 2, Name: "Stage", Type: domain.TypeExclusive, TotalQuantity: 1})
	f.addExisting(2, 20, 1, domain.TimeWindow{Start: baseTime, End: baseTime.Add(3 * time.Hour)})

	_, err := f.uc.ExecuteWithEvent(context.Background(), &WithEventRequest{
		Event: EventSpec{Title: "Workshop", StartTime: baseTime, EndTime: baseTime.Add(2 * time.Hour)},
		Allocations: []AllocationSpec{
			{ResourceID: 1, Quantity: 1},
			{ResourceID: 2, Quantity: 1},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientCapacity)

	var capErr *CapacityError
	assert.ErrorAs(t, err, &capErr)
}

func TestExecuteWithEvent_CompensationDeletesOrphanedEvent(t *testing.T) {
	f := newFixture(false) // без txManager - компенсационный путь
	f.addResource(domain.Resource{ID: 1, Name: "Room", Type: domain.TypeExclusive, TotalQuantity: 1})
	f.addResource(domain.Resource{ID: 2, Name: "Stage", Type: domain.TypeExclusive, TotalQuantity: 1})
	f.addExisting(2, 20, 1, domain.TimeWindow{Start: baseTime, End: baseTime.Add(3 * time.Hour)})

	_, err := f.uc.ExecuteWithEvent(context.Background(), &WithEventRequest{
		Event: EventSpec{Title: "Workshop", StartTime: baseTime, EndTime: baseTime.Add(2 * time.Hour)},
		Allocations: []AllocationSpec{
			{ResourceID: 1, Quantity: 1},
			{ResourceID: 2, Quantity: 1},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientCapacity)

	require.Len(t, f.events.deletedIDs, 1, "orphaned event must be compensated")
	assert.Empty(t, f.events.events)
}

func TestExecuteWithEvent_CompensationFailureKeepsOriginalError(t *testing.T) {
	f := newFixture(false)
	f.events.failDelete = true
	f.addResource(domain.Resource{ID: 1, Name: "Stage", Type: domain.TypeExclusive, TotalQuantity: 1})
	f.addExisting(1, 20, 1, domain.TimeWindow{Start: baseTime, End: baseTime.Add(3 * time.Hour)})

	_, err := f.uc.ExecuteWithEvent(context.Background(), &WithEventRequest{
		Event:       EventSpec{Title: "Workshop", StartTime: baseTime, EndTime: baseTime.Add(2 * time.Hour)},
		Allocations: []AllocationSpec{{ResourceID: 1, Quantity: 1}},
	})

	assert.ErrorIs(t, err, ErrInsufficientCapacity, "original failure must win over the compensation error")
	assert.NotErrorIs(t, err, ErrCompensationFailed)
}

func TestExecuteWithEvent_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     WithEventRequest
		wantErr error
	}{
		{
			name: "empty title",
			req: WithEventRequest{
				Event:       EventSpec{Title: "  ", StartTime: baseTime, EndTime: baseTime.Add(time.Hour)},
				Allocations: []AllocationSpec{{ResourceID: 1, Quantity: 1}},
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "zero-length window",
			req: WithEventRequest{
				Event:       EventSpec{Title: "Workshop", StartTime: baseTime, EndTime: baseTime},
				Allocations: []AllocationSpec{{ResourceID: 1, Quantity: 1}},
			},
			wantErr: ErrInvalidWindow,
		},
		{
			name: "inverted window",
			req: WithEventRequest{
				Event:       EventSpec{Title: "Workshop", StartTime: baseTime.Add(time.Hour), EndTime: baseTime},
				Allocations: []AllocationSpec{{ResourceID: 1, Quantity: 1}},
			},
			wantErr: ErrInvalidWindow,
		},
		{
			name: "no allocations",
			req: WithEventRequest{
				Event: EventSpec{Title: "Workshop", StartTime: baseTime, EndTime: baseTime.Add(time.Hour)},
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "bad allocation quantity",
			req: WithEventRequest{
				Event:       EventSpec{Title: "Workshop", StartTime: baseTime, EndTime: baseTime.Add(time.Hour)},
				Allocations: []AllocationSpec{{ResourceID: 1, Quantity: 0}},
			},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(true)
			_, err := f.uc.ExecuteWithEvent(context.Background(), &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.events.events, "no event may be created on validation failure")
		})
	}
}
