package models

import "time"

// Role is the account type chosen after registration.
type Role string

const (
	RoleNone        Role = ""
	RoleClient      Role = "client"
	RoleTransporter Role = "transporteur"
	RoleCoordinator Role = "coordinateur"
	RoleAdmin       Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleTransporter, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

// Staff reports whether the role works on behalf of the platform.
func (r Role) Staff() bool {
	return r == RoleCoordinator || r == RoleAdmin
}

// TransporterStatus is the vetting state of a transporter account.
type TransporterStatus string

const (
	TransporterPending   TransporterStatus = "pending"
	TransporterValidated TransporterStatus = "validated"
	TransporterRejected  TransporterStatus = "rejected"
)

type AccountStatus string

const (
	AccountActive  AccountStatus = "active"
	AccountBlocked AccountStatus = "blocked"
)

// User is any account on the platform.
type User struct {
	ID            string            `bson:"id" json:"id"`
	PhoneNumber   string            `bson:"phoneNumber" json:"phoneNumber"`
	PasswordHash  string            `bson:"passwordHash" json:"-"`
	Role          Role              `bson:"role" json:"role"`
	Name          string            `bson:"name" json:"name"`
	City          string            `bson:"city" json:"city"`
	Email         string            `bson:"email,omitempty" json:"email,omitempty"`
	ClientID      string            `bson:"clientId,omitempty" json:"clientId,omitempty"`
	Status        TransporterStatus `bson:"status,omitempty" json:"status,omitempty"`
	AccountStatus AccountStatus     `bson:"accountStatus" json:"accountStatus"`
	TruckType     string            `bson:"truckType,omitempty" json:"truckType,omitempty"`
	Capacity      string            `bson:"capacity,omitempty" json:"capacity,omitempty"`
	TruckPhotos   []string          `bson:"truckPhotos,omitempty" json:"truckPhotos,omitempty"`
	Rating        float64           `bson:"rating" json:"rating"`
	TotalRatings  int               `bson:"totalRatings" json:"totalRatings"`
	TotalTrips    int               `bson:"totalTrips" json:"totalTrips"`
	DeviceToken   string            `bson:"deviceToken,omitempty" json:"-"`
	CreatedAt     time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time         `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) Blocked() bool { return u.AccountStatus == AccountBlocked }

// CanWork reports whether a transporter may bid on or take jobs.
func (u *User) CanWork() bool {
	return u.Role == RoleTransporter && u.Status == TransporterValidated && !u.Blocked()
}

// UserFilter narrows user listings. Empty fields match everything.
type UserFilter struct {
	Role          Role
	Status        TransporterStatus
	AccountStatus AccountStatus
}
