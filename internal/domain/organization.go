package domain

import (
	"fmt"
	"time"
)

// UnitStatus is the status of a pole or a service.
type UnitStatus string

const (
	UnitStatusActive   UnitStatus = "ACTIVE"
	UnitStatusInactive UnitStatus = "INACTIVE"
)

func (s UnitStatus) Valid() bool {
	return s == UnitStatusActive || s == UnitStatusInactive
}

func ParseUnitStatus(code string) (UnitStatus, error) {
	s := UnitStatus(code)
	if !s.Valid() {
		return "", NewError(KindValidationFailed, fmt.Sprintf("unknown status %q", code))
	}
	return s, nil
}

type PoleRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Pole is a top-level organizational unit.
type Pole struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Code        string       `json:"code"`
	Description string       `json:"description"`
	Status      UnitStatus   `json:"status"`
	Services    []ServiceRef `json:"services"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Service is a unit of a pole; accounts are attached to services.
type Service struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Capacity    int32      `json:"capacity"`
	Status      UnitStatus `json:"status"`
	PoleID      int64      `json:"poleId"`
	Pole        *PoleRef   `json:"pole,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type DashboardStats struct {
	TotalUsers    int64 `json:"totalUsers"`
	PendingUsers  int64 `json:"pendingUsers"`
	ActiveUsers   int64 `json:"activeUsers"`
	TotalServices int64 `json:"totalServices"`
	TotalPoles    int64 `json:"totalPoles"`
}
