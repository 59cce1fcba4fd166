package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
	eventRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/event"
)

var day = time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

type fakeAllocationRepo struct {
	allocations []domain.AllocationWithWindow
}

func (f *fakeAllocationRepo) GetAllWithWindows(_ context.Context) ([]domain.AllocationWithWindow, error) {
	return f.allocations, nil
}

type fakeResourceRepo struct {
	resources []*domain.Resource
}

func (f *fakeResourceRepo) List(_ context.Context, organizationID *int64) ([]*domain.Resource, error) {
	if organizationID == nil {
		return f.resources, nil
	}
	out := make([]*domain.Resource, 0)
	for _, r := range f.resources {
		if r.VisibleTo(organizationID) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeEventRepo struct {
	pairs      []eventRepo.ParentChildPair
	orgByEvent map[int64]*int64
}

func (f *fakeEventRepo) GetParentChildPairs(_ context.Context) ([]eventRepo.ParentChildPair, error) {
	return f.pairs, nil
}

func (f *fakeEventRepo) GetOrganizationIDByEvent(_ context.Context, eventID int64) (*int64, error) {
	org, ok := f.orgByEvent[eventID]
	if !ok {
		return nil, eventRepo.ErrEventNotFound
	}
	return org, nil
}

type fakeAttendanceRepo struct {
	attendances  []domain.AttendanceWithWindow
	external     []domain.ExternalAttendeeEvent
	gotThreshold int
}

func (f *fakeAttendanceRepo) GetRegisteredWithWindows(_ context.Context) ([]domain.AttendanceWithWindow, error) {
	return f.attendances, nil
}

func (f *fakeAttendanceRepo) GetExternalAttendeeEvents(_ context.Context, threshold int) ([]domain.ExternalAttendeeEvent, error) {
	f.gotThreshold = threshold
	out := make([]domain.ExternalAttendeeEvent, 0)
	for _, e := range f.external {
		if e.ExternalCount >= threshold {
			out = append(out, e)
		}
	}
	return out, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixture struct {
	allocations *fakeAllocationRepo
	resources   *fakeResourceRepo
	events      *fakeEventRepo
	attendances *fakeAttendanceRepo
	svc         *Service
}

func newFixture() *fixture {
	f := &fixture{
		allocations: &fakeAllocationRepo{},
		resources:   &fakeResourceRepo{},
		events:      &fakeEventRepo{orgByEvent: make(map[int64]*int64)},
		attendances: &fakeAttendanceRepo{},
	}
	f.svc = NewService(f.allocations, f.resources, f.events, f.attendances, nopLogger{}, 20.0, 10)
	return f
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func attendance(userID, eventID int64, title string, start, end time.Time) domain.AttendanceWithWindow {
	return domain.AttendanceWithWindow{
		Attendance: domain.Attendance{ID: eventID * 100, EventID: eventID, UserID: &userID},
		EventTitle: title,
		Window:     domain.TimeWindow{Start: start, End: end},
	}
}

func allocWindow(id, resourceID, eventID int64, quantity int, start, end time.Time) domain.AllocationWithWindow {
	return domain.AllocationWithWindow{
		Allocation: domain.Allocation{ID: id, ResourceID: resourceID, EventID: eventID, Quantity: quantity},
		Window:     domain.TimeWindow{Start: start, End: end},
	}
}

func TestDoubleBookedUsers_EmitsPairOnce(t *testing.T) {
	f := newFixture()
	f.attendances.attendances = []domain.AttendanceWithWindow{
		attendance(1, 10, "Morning standup", at(9, 0), at(10, 0)),
		attendance(1, 20, "Design review", at(9, 30), at(10, 30)),
	}

	resp, err := f.svc.DoubleBookedUsers(context.Background())
	require.NoError(t, err)

	require.Len(t, resp.Rows, 1)
	row := resp.Rows[0]
	assert.Equal(t, int64(1), row.UserID)
	assert.Equal(t, int64(10), row.FirstEventID)
	assert.Equal(t, "Morning standup", row.FirstEventTitle)
	assert.Equal(t, int64(20), row.SecondEventID)
	assert.Equal(t, "Design review", row.SecondEventTitle)
}

func TestDoubleBookedUsers_BackToBackIsNotDouble(t *testing.T) {
	f := newFixture()
	f.attendances.attendances = []domain.AttendanceWithWindow{
		attendance(1, 10, "First", at(9, 0), at(10, 0)),
		attendance(1, 20, "Second", at(10, 0), at(11, 0)),
	}

	resp, err := f.svc.DoubleBookedUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp.Rows)
}

func TestDoubleBookedUsers_DifferentUsersDoNotPair(t *testing.T) {
	f := newFixture()
	f.attendances.attendances = []domain.AttendanceWithWindow{
		attendance(1, 10, "First", at(9, 0), at(10, 0)),
		attendance(2, 20, "Second", at(9, 30), at(10, 30)),
	}

	resp, err := f.svc.DoubleBookedUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp.Rows)
}

func TestDoubleBookedUsers_ThreeOverlappingEventsEmitThreePairs(t *testing.T) {
	f := newFixture()
	f.attendances.attendances = []domain.AttendanceWithWindow{
		attendance(1, 10, "A", at(9, 0), at(12, 0)),
		attendance(1, 20, "B", at(9, 30), at(11, 0)),
		attendance(1, 30, "C", at(10, 0), at(10, 30)),
	}

	resp, err := f.svc.DoubleBookedUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, resp.Rows, 3)
}

func TestViolatedConstraints_ExclusiveDoubleBooking(t *testing.T) {
	f := newFixture()
	f.resources.resources = []*domain.Resource{
		{ID: 1, Name: "Projector", Type: domain.TypeExclusive, TotalQuantity: 1},
	}
	f.allocations.allocations = []domain.AllocationWithWindow{
		allocWindow(1, 1, 10, 1, at(9, 0), at(10, 0)),
		allocWindow(2, 1, 20, 1, at(9, 30), at(10, 30)),
	}

	resp, err := f.svc.ViolatedConstraints(context.Background())
	require.NoError(t, err)

	require.Len(t, resp.Rows, 1)
	row := resp.Rows[0]
	assert.Equal(t, string(domain.ViolationExclusiveDoubleBooking), row.Kind)
	assert.Equal(t, []int64{10, 20}, row.EventIDs)
	assert.Equal(t, 2, row.AllocatedQuantity)
	assert.Equal(t, 1, row.Limit)
}

func TestViolatedConstraints_WithinLimitsIsClean(t *testing.T) {
	f := newFixture()
	f.resources.resources = []*domain.Resource{
		{ID: 1, Name: "Chairs", Type: domain.TypeExclusive, TotalQuantity: 10},
	}
	f.allocations.allocations = []domain.AllocationWithWindow{
		allocWindow(1, 1, 10, 4, at(9, 0), at(10, 0)),
		allocWindow(2, 1, 20, 6, at(9, 30), at(10, 30)),
		// Не пересекается - в один срез с первыми двумя не попадает
		allocWindow(3, 1, 30, 10, at(11, 0), at(12, 0)),
	}

	resp, err := f.svc.ViolatedConstraints(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp.Rows)
}

func TestViolatedConstraints_ShareableConcurrencyCap(t *testing.T) {
	f := newFixture()
	f.resources.resources = []*domain.Resource{
		{ID: 1, Name: "Quota", Type: domain.TypeShareable, TotalQuantity: 100, MaxConcurrentUsage: intPtr(2)},
	}
	f.allocations.allocations = []domain.AllocationWithWindow{
		allocWindow(1, 1, 10, 1, at(9, 0), at(11, 0)),
		allocWindow(2, 1, 20, 1, at(9, 0), at(11, 0)),
		allocWindow(3, 1, 30, 1, at(10, 0), at(11, 0)),
	}

	resp, err := f.svc.ViolatedConstraints(context.Background())
	require.NoError(t, err)

	require.Len(t, resp.Rows, 1)
	row := resp.Rows[0]
	assert.Equal(t, string(domain.ViolationShareableOverAllocation), row.Kind)
	assert.Equal(t, 3, row.AllocatedQuantity, "three distinct concurrent events")
	assert.Equal(t, 2, row.Limit)
}

func TestViolatedConstraints_ConsumableExcessIgnoresWindows(t *testing.T) {
	f := newFixture()
	f.resources.resources = []*domain.Resource{
		{ID: 1, Name: "Kits", Type: domain.TypeConsumable, TotalQuantity: 10},
	}
	// Окна не пересекаются, но запас не разделяется по времени
	f.allocations.allocations = []domain.AllocationWithWindow{
		allocWindow(1, 1, 10, 6, at(9, 0), at(10, 0)),
		allocWindow(2, 1, 20, 6, at(14, 0), at(15, 0)),
	}

	resp, err := f.svc.ViolatedConstraints(context.Background())
	require.NoError(t, err)

	require.Len(t, resp.Rows, 1)
	row := resp.Rows[0]
	assert.Equal(t, string(domain.ViolationConsumableExcess), row.Kind)
	assert.Equal(t, 12, row.AllocatedQuantity)
	assert.Equal(t, 10, row.Limit)
}

func TestParentChildViolations_Classification(t *testing.T) {
	f := newFixture()
	parent := domain.Event{ID: 1, Title: "Conference", StartTime: at(9, 0), EndTime: at(17, 0)}
	f.events.pairs = []eventRepo.ParentChildPair{
		{Child: domain.Event{ID: 2, Title: "Early workshop", StartTime: at(8, 0), EndTime: at(10, 0), ParentEventID: int64Ptr(1)}, Parent: parent},
		{Child: domain.Event{ID: 3, Title: "Late party", StartTime: at(16, 0), EndTime: at(19, 0), ParentEventID: int64Ptr(1)}, Parent: parent},
		{Child: domain.Event{ID: 4, Title: "Keynote", StartTime: at(10, 0), EndTime: at(11, 0), ParentEventID: int64Ptr(1)}, Parent: parent},
	}

	resp, err := f.svc.ParentChildViolations(context.Background())
	require.NoError(t, err)

	require.Len(t, resp.Rows, 2)
	assert.Equal(t, string(domain.HierarchyStartsBeforeParent), resp.Rows[0].Kind)
	assert.Equal(t, int64(2), resp.Rows[0].EventID)
	assert.Equal(t, "Conference", resp.Rows[0].ParentTitle)
	assert.Equal(t, string(domain.HierarchyEndsAfterParent), resp.Rows[1].Kind)
	assert.Equal(t, int64(3), resp.Rows[1].EventID)
}

func TestResourceUtilization_Math(t *testing.T) {
	f := newFixture()
	f.resources.resources = []*domain.Resource{
		{ID: 1, Name: "Hall", Type: domain.TypeExclusive, TotalQuantity: 2},
	}
	f.events.orgByEvent[10] = int64Ptr(7)
	f.events.orgByEvent[20] = int64Ptr(7)
	// 9:00-11:00 и 10:00-12:00: 4 занятых часа на охвате в 3 часа, пик 2
	f.allocations.allocations = []domain.AllocationWithWindow{
		allocWindow(1, 1, 10, 1, at(9, 0), at(11, 0)),
		allocWindow(2, 1, 20, 1, at(10, 0), at(12, 0)),
	}

	resp, err := f.svc.ResourceUtilization(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, resp.Rows, 1)
	row := resp.Rows[0]
	require.NotNil(t, row.OrganizationID)
	assert.Equal(t, int64(7), *row.OrganizationID)
	assert.InDelta(t, 4.0, row.TotalBookedHours, 1e-9)
	assert.Equal(t, 2, row.PeakConcurrentUsage)
	assert.False(t, row.Underutilized, "133%% of span is far above the 20%% threshold")
}

func TestResourceUtilization_UnderutilizedAndIdleResources(t *testing.T) {
	f := newFixture()
	f.resources.resources = []*domain.Resource{
		{ID: 1, Name: "Hall", Type: domain.TypeExclusive, TotalQuantity: 2},
		{ID: 2, Name: "Idle projector", Type: domain.TypeExclusive, TotalQuantity: 1},
	}
	f.events.orgByEvent[10] = int64Ptr(7)
	f.events.orgByEvent[20] = int64Ptr(7)
	// Один занятый час на охвате в 24 часа - около 4%, ниже порога в 20%
	f.allocations.allocations = []domain.AllocationWithWindow{
		allocWindow(1, 1, 10, 1, at(0, 0), at(0, 30)),
		allocWindow(2, 1, 20, 1, at(23, 30), at(24, 0)),
	}

	resp, err := f.svc.ResourceUtilization(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, resp.Rows, 2)
	assert.True(t, resp.Rows[0].Underutilized)
	assert.Equal(t, int64(2), resp.Rows[1].ResourceID)
	assert.True(t, resp.Rows[1].Underutilized, "resource with no allocations is idle")
	assert.Zero(t, resp.Rows[1].TotalBookedHours)
}

func TestResourceUtilization_SkipsUnreadableEvents(t *testing.T) {
	f := newFixture()
	f.resources.resources = []*domain.Resource{
		{ID: 1, Name: "Hall", Type: domain.TypeExclusive, TotalQuantity: 2},
	}
	f.events.orgByEvent[10] = int64Ptr(7)
	// Событие 99 отсутствует - его аллокация пропускается, отчет не падает
	f.allocations.allocations = []domain.AllocationWithWindow{
		allocWindow(1, 1, 10, 1, at(9, 0), at(11, 0)),
		allocWindow(2, 1, 99, 1, at(10, 0), at(12, 0)),
	}

	resp, err := f.svc.ResourceUtilization(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, resp.Rows, 1)
	assert.InDelta(t, 2.0, resp.Rows[0].TotalBookedHours, 1e-9)
	assert.Equal(t, 1, resp.Rows[0].PeakConcurrentUsage)
}

func TestResourceUtilization_OrganizationFilter(t *testing.T) {
	f := newFixture()
	f.resources.resources = []*domain.Resource{
		{ID: 1, Name: "Hall", Type: domain.TypeExclusive, TotalQuantity: 2},
	}
	f.events.orgByEvent[10] = int64Ptr(7)
	f.events.orgByEvent[20] = int64Ptr(8)
	f.allocations.allocations = []domain.AllocationWithWindow{
		allocWindow(1, 1, 10, 1, at(9, 0), at(11, 0)),
		allocWindow(2, 1, 20, 1, at(10, 0), at(12, 0)),
	}

	resp, err := f.svc.ResourceUtilization(context.Background(), int64Ptr(7))
	require.NoError(t, err)

	require.Len(t, resp.Rows, 1)
	require.NotNil(t, resp.Rows[0].OrganizationID)
	assert.Equal(t, int64(7), *resp.Rows[0].OrganizationID)
	assert.InDelta(t, 2.0, resp.Rows[0].TotalBookedHours, 1e-9)
}

func TestExternalAttendees_Thresholds(t *testing.T) {
	f := newFixture()
	f.attendances.external = []domain.ExternalAttendeeEvent{
		{EventID: 1, EventTitle: "Open day", EventStart: at(9, 0), ExternalCount: 25},
		{EventID: 2, EventTitle: "Meetup", EventStart: at(12, 0), ExternalCount: 5},
	}

	resp, err := f.svc.ExternalAttendees(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Threshold, "nil threshold falls back to the configured default")
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, int64(1), resp.Rows[0].EventID)

	resp, err = f.svc.ExternalAttendees(context.Background(), intPtr(5))
	require.NoError(t, err)
	assert.Len(t, resp.Rows, 2)

	_, err = f.svc.ExternalAttendees(context.Background(), intPtr(0))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSummary_CombinesAllReports(t *testing.T) {
	f := newFixture()
	f.resources.resources = []*domain.Resource{
		{ID: 1, Name: "Projector", Type: domain.TypeExclusive, TotalQuantity: 1},
	}
	f.events.orgByEvent[10] = nil
	f.events.orgByEvent[20] = nil
	f.allocations.allocations = []domain.AllocationWithWindow{
		allocWindow(1, 1, 10, 1, at(9, 0), at(10, 0)),
		allocWindow(2, 1, 20, 1, at(9, 30), at(10, 30)),
	}
	f.attendances.attendances = []domain.AttendanceWithWindow{
		attendance(1, 10, "First", at(9, 0), at(10, 0)),
		attendance(1, 20, "Second", at(9, 30), at(10, 30)),
	}
	parent := domain.Event{ID: 1, Title: "Conference", StartTime: at(9, 0), EndTime: at(17, 0)}
	f.events.pairs = []eventRepo.ParentChildPair{
		{Child: domain.Event{ID: 2, Title: "Early", StartTime: at(8, 0), EndTime: at(10, 0), ParentEventID: int64Ptr(1)}, Parent: parent},
	}

	summary, err := f.svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Len(t, summary.DoubleBookedUsers.Rows, 1)
	assert.Len(t, summary.ViolatedConstraints.Rows, 1)
	assert.Len(t, summary.HierarchyViolations.Rows, 1)
	assert.Len(t, summary.ResourceUtilization.Rows, 1)
}
