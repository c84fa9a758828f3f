package domain

import (
	"fmt"
	"time"
)

type Role int

const (
	RoleMember Role = iota + 1
	RoleManager
	RoleSuperAdministrator
)

type Status int

const (
	StatusPending Status = iota + 1
	StatusActive
	// StatusInactive covers both deactivated and rejected accounts.
	StatusInactive
)

// API and store codes. Both layers happen to share the role codes; statuses
// differ only by the legacy REJECTED store value.
var (
	roleCodes = map[Role]string{
		RoleMember:             "USER",
		RoleManager:            "ADMIN",
		RoleSuperAdministrator: "SUPERADMIN",
	}
	statusAPICodes = map[Status]string{
		StatusPending:  "PENDING",
		StatusActive:   "ACTIVE",
		StatusInactive: "INACTIVE",
	}
	statusStoreCodes = map[string]Status{
		"PENDING":  StatusPending,
		"ACTIVE":   StatusActive,
		"INACTIVE": StatusInactive,
		// Lossy: rejected accounts are not distinguished from deactivated ones.
		"REJECTED": StatusInactive,
	}
)

func (r Role) Valid() bool {
	_, ok := roleCodes[r]
	return ok
}

func (r Role) String() string {
	if code, ok := roleCodes[r]; ok {
		return code
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// ParseRole converts an API role code into a Role.
func ParseRole(code string) (Role, error) {
	for role, c := range roleCodes {
		if c == code {
			return role, nil
		}
	}
	return 0, NewError(KindValidationFailed, fmt.Sprintf("unknown role %q", code))
}

// RoleFromStore converts the role column value into a Role.
func RoleFromStore(code string) (Role, error) {
	role, err := ParseRole(code)
	if err != nil {
		return 0, fmt.Errorf("unexpected role %q in store", code)
	}
	return role, nil
}

// StoreCode returns the role column value.
func (r Role) StoreCode() string {
	return roleCodes[r]
}

func (s Status) Valid() bool {
	_, ok := statusAPICodes[s]
	return ok
}

func (s Status) String() string {
	if code, ok := statusAPICodes[s]; ok {
		return code
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	status, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// ParseStatus converts an API status code into a Status. REJECTED is not an
// API code.
func ParseStatus(code string) (Status, error) {
	for status, c := range statusAPICodes {
		if c == code {
			return status, nil
		}
	}
	return 0, NewError(KindValidationFailed, fmt.Sprintf("unknown status %q", code))
}

// StatusFromStore converts the status column value into a Status.
func StatusFromStore(code string) (Status, error) {
	status, ok := statusStoreCodes[code]
	if !ok {
		return 0, fmt.Errorf("unexpected status %q in store", code)
	}
	return status, nil
}

// StoreCode returns the status column value. Inactive is always written as
// INACTIVE, so a REJECTED row never comes back after an update.
func (s Status) StoreCode() string {
	return statusAPICodes[s]
}

type ServiceRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type AccountRef struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type Account struct {
	ID           int64       `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	Phone        *string     `json:"phone"`
	Position     *string     `json:"position"`
	WorkingHours JSONValue   `json:"workingHours"`
	Role         Role        `json:"role"`
	Status       Status      `json:"status"`
	ServiceID    *int64      `json:"serviceId"`
	Service      *ServiceRef `json:"service,omitempty"`
	SupervisorID *int64      `json:"supervisorId"`
	Supervisor   *AccountRef `json:"supervisor,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	Version      int32       `json:"-"`
}

func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// InService reports whether the account is attached to the given service.
func (a *Account) InService(serviceID int64) bool {
	return a.ServiceID != nil && *a.ServiceID == serviceID
}

type AccountFilter struct {
	ServiceID *int64
	Status    *Status
}
