package models

import (
	"time"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
)

// DoubleBookedUserRow одна пара пересекающихся регистраций пользователя
type DoubleBookedUserRow struct {
	UserID           int64     `json:"userId"`
	FirstEventID     int64     `json:"firstEventId"`
	FirstEventTitle  string    `json:"firstEventTitle"`
	FirstEventStart  time.Time `json:"firstEventStart"`
	SecondEventID    int64     `json:"secondEventId"`
	SecondEventTitle string    `json:"secondEventTitle"`
	SecondEventStart time.Time `json:"secondEventStart"`
}

// DoubleBookedUsersResponse отчет о двойных бронированиях пользователей
type DoubleBookedUsersResponse struct {
	Rows []DoubleBookedUserRow `json:"rows"`
}

// ConstraintViolationRow группа аллокаций ресурса, нарушающая ограничение его типа
type ConstraintViolationRow struct {
	ResourceID        int64   `json:"resourceId"`
	ResourceName      string  `json:"resourceName"`
	Kind              string  `json:"kind"`
	EventIDs          []int64 `json:"eventIds"`
	AllocatedQuantity int     `json:"allocatedQuantity"`
	Limit             int     `json:"limit"`
}

// ViolatedConstraintsResponse отчет о нарушенных ограничениях ресурсов
type ViolatedConstraintsResponse struct {
	Rows []ConstraintViolationRow `json:"rows"`
}

// HierarchyViolationRow дочернее событие, чье окно выходит за окно родителя
type HierarchyViolationRow struct {
	EventID       int64  `json:"eventId"`
	EventTitle    string `json:"eventTitle"`
	ParentEventID int64  `json:"parentEventId"`
	ParentTitle   string `json:"parentTitle"`
	Kind          string `json:"kind"`
}

// HierarchyViolationsResponse отчет о нарушениях иерархии событий
type HierarchyViolationsResponse struct {
	Rows []HierarchyViolationRow `json:"rows"`
}

// ResourceUtilizationRow агрегат использования по паре (организация, ресурс)
type ResourceUtilizationRow struct {
	OrganizationID      *int64  `json:"organizationId,omitempty"`
	ResourceID          int64   `json:"resourceId"`
	ResourceName        string  `json:"resourceName"`
	TotalBookedHours    float64 `json:"totalBookedHours"`
	PeakConcurrentUsage int     `json:"peakConcurrentUsage"`
	Underutilized       bool    `json:"underutilized"`
}

// ResourceUtilizationResponse отчет об утилизации ресурсов
type ResourceUtilizationResponse struct {
	Rows []ResourceUtilizationRow `json:"rows"`
}

// ExternalAttendeeRow событие с числом внешних участников не ниже порога
type ExternalAttendeeRow struct {
	EventID       int64     `json:"eventId"`
	EventTitle    string    `json:"eventTitle"`
	EventStart    time.Time `json:"eventStart"`
	ExternalCount int       `json:"externalCount"`
}

// ExternalAttendeesResponse отчет о событиях с внешними участниками
type ExternalAttendeesResponse struct {
	Threshold int                   `json:"threshold"`
	Rows      []ExternalAttendeeRow `json:"rows"`
}

// SummaryResponse сводка целостности: все отчеты одним ответом
type SummaryResponse struct {
	DoubleBookedUsers   DoubleBookedUsersResponse   `json:"doubleBookedUsers"`
	ViolatedConstraints ViolatedConstraintsResponse `json:"violatedConstraints"`
	HierarchyViolations HierarchyViolationsResponse `json:"parentChildViolations"`
	ResourceUtilization ResourceUtilizationResponse `json:"resourceUtilization"`
}

// FromDomainDoubleBooked конвертирует доменные строки отчета в response
func FromDomainDoubleBooked(rows []domain.DoubleBookedUser) *DoubleBookedUsersResponse {
	out := make([]DoubleBookedUserRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, DoubleBookedUserRow{
			UserID:           r.UserID,
			FirstEventID:     r.FirstEventID,
			FirstEventTitle:  r.FirstEventTitle,
			FirstEventStart:  r.FirstEventStart,
			SecondEventID:    r.SecondEventID,
			SecondEventTitle: r.SecondEventTitle,
			SecondEventStart: r.SecondEventStart,
		})
	}
	return &DoubleBookedUsersResponse{Rows: out}
}

// FromDomainViolations конвертирует доменные строки отчета в response
func FromDomainViolations(rows []domain.ConstraintViolation) *ViolatedConstraintsResponse {
	out := make([]ConstraintViolationRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, ConstraintViolationRow{
			ResourceID:        r.ResourceID,
			ResourceName:      r.ResourceName,
			Kind:              string(r.Kind),
			EventIDs:          r.EventIDs,
			AllocatedQuantity: r.AllocatedQuantity,
			Limit:             r.Limit,
		})
	}
	return &ViolatedConstraintsResponse{Rows: out}
}

// FromDomainHierarchyViolations конвертирует доменные строки отчета в response
func FromDomainHierarchyViolations(rows []domain.HierarchyViolation) *HierarchyViolationsResponse {
	out := make([]HierarchyViolationRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, HierarchyViolationRow{
			EventID:       r.EventID,
			EventTitle:    r.EventTitle,
			ParentEventID: r.ParentEventID,
			ParentTitle:   r.ParentTitle,
			Kind:          string(r.Kind),
		})
	}
	return &HierarchyViolationsResponse{Rows: out}
}

// FromDomainUtilization конвертирует доменные строки отчета в response
func FromDomainUtilization(rows []domain.ResourceUtilization) *ResourceUtilizationResponse {
	out := make([]ResourceUtilizationRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, ResourceUtilizationRow{
			OrganizationID:      r.OrganizationID,
			ResourceID:          r.ResourceID,
			ResourceName:        r.ResourceName,
			TotalBookedHours:    r.TotalBookedHours,
			PeakConcurrentUsage: r.PeakConcurrentUsage,
			Underutilized:       r.Underutilized,
		})
	}
	return &ResourceUtilizationResponse{Rows: out}
}

// FromDomainExternalAttendees конвертирует доменные строки отчета в response
func FromDomainExternalAttendees(threshold int, rows []domain.ExternalAttendeeEvent) *ExternalAttendeesResponse {
	out := make([]ExternalAttendeeRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, ExternalAttendeeRow{
			EventID:       r.EventID,
			EventTitle:    r.EventTitle,
			EventStart:    r.EventStart,
			ExternalCount: r.ExternalCount,
		})
	}
	return &ExternalAttendeesResponse{Threshold: threshold, Rows: out}
}
