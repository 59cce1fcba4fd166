package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
	"github.com/m04kA/SMC-ResourceService/internal/service/reports/models"
)

// Service движок отчетов целостности
//
// Все отчеты read-only и выполняются без блокировок по недавнему снимку:
// результат консультативный, а не транзакционно обязывающий. Строка,
// которую невозможно вычислить, пропускается и не валит весь отчет
type Service struct {
	allocationRepo AllocationRepository
	resourceRepo   ResourceRepository
	eventRepo      EventRepository
	attendanceRepo AttendanceRepository
	logger         Logger

	underutilizedThresholdPercent float64
	defaultExternalThreshold      int
}

// NewService создает новый экземпляр сервиса отчетов
func NewService(
	allocationRepo AllocationRepository,
	resourceRepo ResourceRepository,
	eventRepo EventRepository,
	attendanceRepo AttendanceRepository,
	logger Logger,
	underutilizedThresholdPercent float64,
	defaultExternalThreshold int,
) *Service {
	if underutilizedThresholdPercent <= 0 {
		underutilizedThresholdPercent = domain.DefaultUnderutilizedThresholdPercent
	}
	if defaultExternalThreshold <= 0 {
		defaultExternalThreshold = domain.DefaultExternalAttendeeThreshold
	}
	return &Service{
		allocationRepo:                allocationRepo,
		resourceRepo:                  resourceRepo,
		eventRepo:                     eventRepo,
		attendanceRepo:                attendanceRepo,
		logger:                        logger,
		underutilizedThresholdPercent: underutilizedThresholdPercent,
		defaultExternalThreshold:      defaultExternalThreshold,
	}
}

// DoubleBookedUsers находит пары пересекающихся регистраций одного пользователя
// На каждую пару событий эмитится ровно одна строка
func (s *Service) DoubleBookedUsers(ctx context.Context) (*models.DoubleBookedUsersResponse, error) {
	s.logger.Info("DoubleBookedUsers: building report")

	attendances, err := s.attendanceRepo.GetRegisteredWithWindows(ctx)
	if err != nil {
		s.logger.Error("DoubleBookedUsers: repository error: %v", err)
		return nil, fmt.Errorf("%w: DoubleBookedUsers - repository error: %v", ErrInternal, err)
	}

	rows := findDoubleBookings(attendances)

	s.logger.Info("DoubleBookedUsers: found %d overlapping pairs", len(rows))
	return models.FromDomainDoubleBooked(rows), nil
}

// findDoubleBookings группирует регистрации по пользователю и ищет пары
// с пересекающимися окнами. Квадратично по числу событий пользователя
func findDoubleBookings(attendances []domain.AttendanceWithWindow) []domain.DoubleBookedUser {
	byUser := make(map[int64][]domain.AttendanceWithWindow)
	userOrder := make([]int64, 0)
	for _, att := range attendances {
		if att.UserID == nil {
			continue
		}
		if _, ok := byUser[*att.UserID]; !ok {
			userOrder = append(userOrder, *att.UserID)
		}
		byUser[*att.UserID] = append(byUser[*att.UserID], att)
	}

	rows := make([]domain.DoubleBookedUser, 0)
	for _, userID := range userOrder {
		bucket := byUser[userID]
		sort.Slice(bucket, func(i, j int) bool {
			return bucket[i].Window.Start.Before(bucket[j].Window.Start)
		})

		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				// Сортировка по началу: дальше пересечений с i уже не будет
				if !bucket[j].Window.Start.Before(bucket[i].Window.End) {
					break
				}
				if bucket[i].EventID == bucket[j].EventID {
					continue
				}
				rows = append(rows, domain.DoubleBookedUser{
					UserID:           userID,
					FirstEventID:     bucket[i].EventID,
					FirstEventTitle:  bucket[i].EventTitle,
					FirstEventStart:  bucket[i].Window.Start,
					SecondEventID:    bucket[j].EventID,
					SecondEventTitle: bucket[j].EventTitle,
					SecondEventStart: bucket[j].Window.Start,
				})
			}
		}
	}

	return rows
}

// ViolatedConstraints сканирует группы одновременно активных аллокаций
// каждого ресурса и помечает группы, нарушающие ограничение его типа
func (s *Service) ViolatedConstraints(ctx context.Context) (*models.ViolatedConstraintsResponse, error) {
	s.logger.Info("ViolatedConstraints: building report")

	allocations, err := s.allocationRepo.GetAllWithWindows(ctx)
	if err != nil {
		s.logger.Error("ViolatedConstraints: allocation repository error: %v", err)
		return nil, fmt.Errorf("%w: ViolatedConstraints - repository error: %v", ErrInternal, err)
	}

	resources, err := s.resourceRepo.List(ctx, nil)
	if err != nil {
		s.logger.Error("ViolatedConstraints: resource repository error: %v", err)
		return nil, fmt.Errorf("%w: ViolatedConstraints - repository error: %v", ErrInternal, err)
	}

	byResource := make(map[int64][]domain.AllocationWithWindow)
	for _, alloc := range allocations {
		byResource[alloc.ResourceID] = append(byResource[alloc.ResourceID], alloc)
	}

	rows := make([]domain.ConstraintViolation, 0)
	for _, res := range resources {
		group := byResource[res.ID]
		if len(group) == 0 {
			continue
		}
		violations, err := checkResourceGroup(res, group)
		if err != nil {
			// Неизвестный тип ресурса: строка пропускается, отчет продолжается
			s.logger.Warn("ViolatedConstraints: skipping resource id=%d: %v", res.ID, err)
			continue
		}
		rows = append(rows, violations...)
	}

	s.logger.Info("ViolatedConstraints: found %d violations", len(rows))
	return models.FromDomainViolations(rows), nil
}

// checkResourceGroup проверяет все аллокации одного ресурса против
// ограничения его типа и возвращает найденные нарушения
func checkResourceGroup(res *domain.Resource, group []domain.AllocationWithWindow) ([]domain.ConstraintViolation, error) {
	switch res.Type {
	case domain.TypeConsumable:
		// Запас не разделяется по времени: против лимита считаются все активные
		total := domain.SumQuantities(group)
		if total <= res.TotalQuantity {
			return nil, nil
		}
		return []domain.ConstraintViolation{{
			ResourceID:        res.ID,
			ResourceName:      res.Name,
			Kind:              domain.ViolationConsumableExcess,
			EventIDs:          distinctEventIDs(group),
			AllocatedQuantity: total,
			Limit:             res.TotalQuantity,
		}}, nil

	case domain.TypeExclusive, domain.TypeShareable:
		return checkOverlapGroups(res, group), nil

	default:
		return nil, fmt.Errorf("unknown resource type %q", res.Type)
	}
}

// checkOverlapGroups пробует момент начала каждой аллокации как срез времени:
// максимум одновременной нагрузки всегда достигается в момент начала
// какой-то аллокации, поэтому других точек проверять не нужно
func checkOverlapGroups(res *domain.Resource, group []domain.AllocationWithWindow) []domain.ConstraintViolation {
	violations := make([]domain.ConstraintViolation, 0)
	seen := make(map[string]struct{})

	for _, probe := range group {
		active := activeAt(group, probe.Window.Start)
		if len(active) == 0 {
			continue
		}

		total := domain.SumQuantities(active)
		if total > res.TotalQuantity {
			kind := domain.ViolationExclusiveDoubleBooking
			if res.Type == domain.TypeShareable {
				kind = domain.ViolationShareableOverAllocation
			}
			appendViolation(&violations, seen, domain.ConstraintViolation{
				ResourceID:        res.ID,
				ResourceName:      res.Name,
				Kind:              kind,
				EventIDs:          distinctEventIDs(active),
				AllocatedQuantity: total,
				Limit:             res.TotalQuantity,
			})
		}

		if res.Type == domain.TypeShareable && res.MaxConcurrentUsage != nil {
			concurrent := domain.CountDistinctEvents(active)
			if concurrent > *res.MaxConcurrentUsage {
				appendViolation(&violations, seen, domain.ConstraintViolation{
					ResourceID:        res.ID,
					ResourceName:      res.Name,
					Kind:              domain.ViolationShareableOverAllocation,
					EventIDs:          distinctEventIDs(active),
					AllocatedQuantity: concurrent,
					Limit:             *res.MaxConcurrentUsage,
				})
			}
		}
	}

	return violations
}

// activeAt возвращает аллокации, чьи окна накрывают момент t
// Полуоткрытые окна: конец в момент t уже не активен
func activeAt(group []domain.AllocationWithWindow, t time.Time) []domain.AllocationWithWindow {
	active := make([]domain.AllocationWithWindow, 0)
	for _, a := range group {
		if !t.Before(a.Window.Start) && t.Before(a.Window.End) {
			active = append(active, a)
		}
	}
	return active
}

// appendViolation добавляет нарушение, если такая же группа еще не эмитилась
func appendViolation(violations *[]domain.ConstraintViolation, seen map[string]struct{}, v domain.ConstraintViolation) {
	key := fmt.Sprintf("%s|%d|%v|%d", v.Kind, v.ResourceID, v.EventIDs, v.Limit)
	if _, ok := seen[key]; ok {
		return
	}
	seen[key] = struct{}{}
	*violations = append(*violations, v)
}

func distinctEventIDs(group []domain.AllocationWithWindow) []int64 {
	seen := make(map[int64]struct{}, len(group))
	ids := make([]int64, 0, len(group))
	for _, a := range group {
		if _, ok := seen[a.EventID]; ok {
			continue
		}
		seen[a.EventID] = struct{}{}
		ids = append(ids, a.EventID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ParentChildViolations помечает дочерние события, чьи окна выходят
// за пределы окна родителя
func (s *Service) ParentChildViolations(ctx context.Context) (*models.HierarchyViolationsResponse, error) {
	s.logger.Info("ParentChildViolations: building report")

	pairs, err := s.eventRepo.GetParentChildPairs(ctx)
	if err != nil {
		s.logger.Error("ParentChildViolations: repository error: %v", err)
		return nil, fmt.Errorf("%w: ParentChildViolations - repository error: %v", ErrInternal, err)
	}

	rows := make([]domain.HierarchyViolation, 0)
	for _, pair := range pairs {
		if pair.Child.StartTime.Before(pair.Parent.StartTime) {
			rows = append(rows, hierarchyRow(pair.Child, pair.Parent, domain.HierarchyStartsBeforeParent))
		}
		if pair.Child.EndTime.After(pair.Parent.EndTime) {
			rows = append(rows, hierarchyRow(pair.Child, pair.Parent, domain.HierarchyEndsAfterParent))
		}
	}

	s.logger.Info("ParentChildViolations: found %d violations", len(rows))
	return models.FromDomainHierarchyViolations(rows), nil
}

func hierarchyRow(child, parent domain.Event, kind domain.HierarchyViolationKind) domain.HierarchyViolation {
	return domain.HierarchyViolation{
		EventID:       child.ID,
		EventTitle:    child.Title,
		ParentEventID: parent.ID,
		ParentTitle:   parent.Title,
		Kind:          kind,
	}
}

// ResourceUtilization считает по паре (организация, ресурс) суммарные часы
// бронирований, пиковую одновременную нагрузку и флаг недоиспользования
// Организация аллокации - это организация владеющего события
func (s *Service) ResourceUtilization(ctx context.Context, organizationID *int64) (*models.ResourceUtilizationResponse, error) {
	s.logger.Info("ResourceUtilization: building report for org=%v", organizationID)

	allocations, err := s.allocationRepo.GetAllWithWindows(ctx)
	if err != nil {
		s.logger.Error("ResourceUtilization: allocation repository error: %v", err)
		return nil, fmt.Errorf("%w: ResourceUtilization - repository error: %v", ErrInternal, err)
	}

	resources, err := s.resourceRepo.List(ctx, organizationID)
	if err != nil {
		s.logger.Error("ResourceUtilization: resource repository error: %v", err)
		return nil, fmt.Errorf("%w: ResourceUtilization - repository error: %v", ErrInternal, err)
	}
	resourceByID := make(map[int64]*domain.Resource, len(resources))
	for _, res := range resources {
		resourceByID[res.ID] = res
	}

	type groupKey struct {
		org        int64
		global     bool
		resourceID int64
	}
	type orgLookup struct {
		org *int64
		bad bool
	}
	groups := make(map[groupKey][]domain.AllocationWithWindow)
	orgCache := make(map[int64]orgLookup)

	for _, alloc := range allocations {
		if _, ok := resourceByID[alloc.ResourceID]; !ok {
			continue
		}

		lookup, ok := orgCache[alloc.EventID]
		if !ok {
			org, err := s.eventRepo.GetOrganizationIDByEvent(ctx, alloc.EventID)
			if err != nil {
				// Событие недоступно: строка пропускается, отчет продолжается
				s.logger.Warn("ResourceUtilization: skipping allocation id=%d: %v", alloc.ID, err)
				lookup = orgLookup{bad: true}
			} else {
				lookup = orgLookup{org: org}
			}
			orgCache[alloc.EventID] = lookup
		}
		if lookup.bad {
			continue
		}
		org := lookup.org

		if organizationID != nil && (org == nil || *org != *organizationID) {
			continue
		}

		key := groupKey{resourceID: alloc.ResourceID, global: org == nil}
		if org != nil {
			key.org = *org
		}
		groups[key] = append(groups[key], alloc)
	}

	rows := make([]domain.ResourceUtilization, 0, len(groups))
	covered := make(map[int64]bool)
	for key, group := range groups {
		res := resourceByID[key.resourceID]
		covered[key.resourceID] = true

		var org *int64
		if !key.global {
			o := key.org
			org = &o
		}

		booked := totalBookedHours(group)
		rows = append(rows, domain.ResourceUtilization{
			OrganizationID:      org,
			ResourceID:          res.ID,
			ResourceName:        res.Name,
			TotalBookedHours:    booked,
			PeakConcurrentUsage: peakConcurrent(group),
			Underutilized:       s.isUnderutilized(booked, group),
		})
	}

	// Ресурсы без единой аллокации тоже попадают в отчет - как неиспользуемые
	for _, res := range resources {
		if covered[res.ID] {
			continue
		}
		rows = append(rows, domain.ResourceUtilization{
			ResourceID:    res.ID,
			ResourceName:  res.Name,
			Underutilized: true,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ResourceID != rows[j].ResourceID {
			return rows[i].ResourceID < rows[j].ResourceID
		}
		return orgSortKey(rows[i].OrganizationID) < orgSortKey(rows[j].OrganizationID)
	})

	s.logger.Info("ResourceUtilization: built %d rows", len(rows))
	return models.FromDomainUtilization(rows), nil
}

func orgSortKey(org *int64) int64 {
	if org == nil {
		return -1
	}
	return *org
}

func totalBookedHours(group []domain.AllocationWithWindow) float64 {
	var hours float64
	for _, a := range group {
		hours += a.Window.Hours()
	}
	return hours
}

// peakConcurrent максимум одновременно активных аллокаций группы
// Заметающая прямая; на границе "конец одного - начало другого"
// полуоткрытые окна не пересекаются, поэтому концы обрабатываются раньше
func peakConcurrent(group []domain.AllocationWithWindow) int {
	type point struct {
		at    time.Time
		delta int
	}
	points := make([]point, 0, len(group)*2)
	for _, a := range group {
		points = append(points, point{at: a.Window.Start, delta: +1})
		points = append(points, point{at: a.Window.End, delta: -1})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].at.Equal(points[j].at) {
			return points[i].delta < points[j].delta
		}
		return points[i].at.Before(points[j].at)
	})

	current, peak := 0, 0
	for _, p := range points {
		current += p.delta
		if current > peak {
			peak = current
		}
	}
	return peak
}

// isUnderutilized сравнивает занятые часы с долей полного охваченного
// интервала группы: ниже порога - ресурс недоиспользован
func (s *Service) isUnderutilized(bookedHours float64, group []domain.AllocationWithWindow) bool {
	if len(group) == 0 {
		return true
	}

	earliest, latest := group[0].Window.Start, group[0].Window.End
	for _, a := range group[1:] {
		if a.Window.Start.Before(earliest) {
			earliest = a.Window.Start
		}
		if a.Window.End.After(latest) {
			latest = a.Window.End
		}
	}

	spanHours := latest.Sub(earliest).Hours()
	if spanHours <= 0 {
		return true
	}

	return bookedHours/spanHours*100 < s.underutilizedThresholdPercent
}

// ExternalAttendees возвращает события с числом внешних участников
// не ниже порога; nil-порог означает порог по умолчанию из конфигурации
func (s *Service) ExternalAttendees(ctx context.Context, threshold *int) (*models.ExternalAttendeesResponse, error) {
	effective := s.defaultExternalThreshold
	if threshold != nil {
		if *threshold <= 0 {
			return nil, fmt.Errorf("%w: threshold must be positive", ErrInvalidInput)
		}
		effective = *threshold
	}

	s.logger.Info("ExternalAttendees: building report with threshold=%d", effective)

	events, err := s.attendanceRepo.GetExternalAttendeeEvents(ctx, effective)
	if err != nil {
		s.logger.Error("ExternalAttendees: repository error: %v", err)
		return nil, fmt.Errorf("%w: ExternalAttendees - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ExternalAttendees: found %d events", len(events))
	return models.FromDomainExternalAttendees(effective, events), nil
}

// Summary собирает сводку целостности: четыре отчета параллельно
func (s *Service) Summary(ctx context.Context) (*models.SummaryResponse, error) {
	s.logger.Info("Summary: building integrity summary")

	var summary models.SummaryResponse

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp, err := s.DoubleBookedUsers(gctx)
		if err != nil {
			return err
		}
		summary.DoubleBookedUsers = *resp
		return nil
	})
	g.Go(func() error {
		resp, err := s.ViolatedConstraints(gctx)
		if err != nil {
			return err
		}
		summary.ViolatedConstraints = *resp
		return nil
	})
	g.Go(func() error {
		resp, err := s.ParentChildViolations(gctx)
		if err != nil {
			return err
		}
		summary.HierarchyViolations = *resp
		return nil
	})
	g.Go(func() error {
		resp, err := s.ResourceUtilization(gctx, nil)
		if err != nil {
			return err
		}
		summary.ResourceUtilization = *resp
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("Summary: integrity summary built")
	return &summary, nil
}
