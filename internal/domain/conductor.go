package domain

import "time"

// ConductorState эффективное состояние машины/водителя
type ConductorState string

const (
	ConductorAvailable ConductorState = "available"
	ConductorBusy      ConductorState = "busy"
)

// ConductorSession хранимое состояние сессии кондуктора
type ConductorSession struct {
	ConductorID   string
	IsActive      bool // эта сессия транслируется пассажирам
	IsAvailable   bool
	OccupiedUntil *time.Time
	UpdatedAt     time.Time
}

// StatusAt вычисляет состояние на момент now. Занятость истекает сама:
// строго после OccupiedUntil кондуктор считается свободным, даже если флаг в хранилище не сброшен.
// В сам момент OccupiedUntil он ещё занят
func (s *ConductorSession) StatusAt(now time.Time) ConductorState {
	if s.IsAvailable {
		return ConductorAvailable
	}
	if s.OccupiedUntil != nil && now.After(*s.OccupiedUntil) {
		return ConductorAvailable
	}
	return ConductorBusy
}

// Status снимок состояния для отдачи наружу
func (s *ConductorSession) Status(now time.Time) *ConductorStatus {
	st := &ConductorStatus{
		ConductorID: s.ConductorID,
		IsActive:    s.IsActive,
		State:       s.StatusAt(now),
		UpdatedAt:   s.UpdatedAt,
	}
	if st.State == ConductorBusy && s.OccupiedUntil != nil {
		until := *s.OccupiedUntil
		st.OccupiedUntil = &until
	}
	return st
}

// Clone глубокая копия
func (s *ConductorSession) Clone() *ConductorSession {
	c := *s
	if s.OccupiedUntil != nil {
		until := *s.OccupiedUntil
		c.OccupiedUntil = &until
	}
	return &c
}

// ConductorStatus состояние кондуктора, которое видят клиенты
type ConductorStatus struct {
	ConductorID   string
	IsActive      bool
	State         ConductorState
	OccupiedUntil *time.Time
	UpdatedAt     time.Time
	// Stale true, если хранилище недоступно и отдано последнее известное состояние
	Stale bool
}

// IsAvailable true для available
func (s *ConductorStatus) IsAvailable() bool {
	return s.State == ConductorAvailable
}
