package models

import (
	"time"

	"camionback/services/workflow"
)

// TransportRequest is a client's freight job and the centre of every workflow.
type TransportRequest struct {
	ID              string    `bson:"id" json:"id"`
	ReferenceID     string    `bson:"referenceId" json:"referenceId"`
	ClientID        string    `bson:"clientId" json:"clientId"`
	FromCity        string    `bson:"fromCity" json:"fromCity"`
	ToCity          string    `bson:"toCity" json:"toCity"`
	PickupAddress   string    `bson:"pickupAddress,omitempty" json:"pickupAddress,omitempty"`
	DeliveryAddress string    `bson:"deliveryAddress,omitempty" json:"deliveryAddress,omitempty"`
	Description     string    `bson:"description" json:"description"`
	GoodsType       string    `bson:"goodsType" json:"goodsType"`
	Weight          string    `bson:"weight,omitempty" json:"weight,omitempty"`
	Photos          []string  `bson:"photos,omitempty" json:"photos,omitempty"`
	DateTime        time.Time `bson:"dateTime" json:"dateTime"`
	DateFlexible    bool      `bson:"dateFlexible" json:"dateFlexible"`
	Budget          string    `bson:"budget,omitempty" json:"budget,omitempty"`
	HandlingNeeded  bool      `bson:"handlingNeeded" json:"handlingNeeded"`

	Status                   workflow.RequestStatus      `bson:"status" json:"status"`
	CoordinationStatus       workflow.CoordinationStatus `bson:"coordinationStatus" json:"coordinationStatus"`
	PaymentStatus            workflow.PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	CoordinationTag          string                      `bson:"coordinationTag,omitempty" json:"coordinationTag,omitempty"`
	CoordinationReason       string                      `bson:"coordinationReason,omitempty" json:"coordinationReason,omitempty"`
	CoordinationReminderDate *time.Time                  `bson:"coordinationReminderDate,omitempty" json:"coordinationReminderDate,omitempty"`
	CoordinationUpdatedAt    *time.Time                  `bson:"coordinationUpdatedAt,omitempty" json:"coordinationUpdatedAt,omitempty"`
	CoordinationUpdatedBy    string                      `bson:"coordinationUpdatedBy,omitempty" json:"coordinationUpdatedBy,omitempty"`

	TransporterAmount string     `bson:"transporterAmount,omitempty" json:"transporterAmount,omitempty"`
	PlatformFee       string     `bson:"platformFee,omitempty" json:"platformFee,omitempty"`
	ClientTotal       string     `bson:"clientTotal,omitempty" json:"clientTotal,omitempty"`
	DistanceKm        float64    `bson:"distanceKm,omitempty" json:"distanceKm,omitempty"`
	QualifiedAt       *time.Time `bson:"qualifiedAt,omitempty" json:"qualifiedAt,omitempty"`
	PublishedAt       *time.Time `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`

	// AssignedTransporterID is the transporter doing the job, whichever way
	// they got it. AcceptedOfferID is only set when it came from an offer.
	AssignedTransporterID string     `bson:"assignedTransporterId,omitempty" json:"assignedTransporterId,omitempty"`
	AssignedToID          string     `bson:"assignedToId,omitempty" json:"assignedToId,omitempty"`
	AcceptedOfferID       string     `bson:"acceptedOfferId,omitempty" json:"acceptedOfferId,omitempty"`
	AcceptedAt            *time.Time `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	AssignedManually      bool       `bson:"assignedManually" json:"assignedManually"`
	AssignedAt            *time.Time `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`

	TransporterInterests []string `bson:"transporterInterests" json:"transporterInterests"`

	PaymentReceipt     string     `bson:"paymentReceipt,omitempty" json:"paymentReceipt,omitempty"`
	PaymentDate        *time.Time `bson:"paymentDate,omitempty" json:"paymentDate,omitempty"`
	PaymentValidatedAt *time.Time `bson:"paymentValidatedAt,omitempty" json:"paymentValidatedAt,omitempty"`

	ArchiveReason string     `bson:"archiveReason,omitempty" json:"archiveReason,omitempty"`
	ArchivedAt    *time.Time `bson:"archivedAt,omitempty" json:"archivedAt,omitempty"`
	CancelReason  string     `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	CancelledAt   *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CompletedAt   *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	// Version is bumped by every write. Guarded updates match on it.
	Version int64 `bson:"version" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (r *TransportRequest) State() workflow.State {
	return workflow.State{Status: r.Status, Coordination: r.CoordinationStatus}
}

func (r *TransportRequest) SetState(s workflow.State) {
	r.Status = s.Status
	r.CoordinationStatus = s.Coordination
}

// HasPricing reports whether a coordinator has qualified the request.
func (r *TransportRequest) HasPricing() bool {
	return r.QualifiedAt != nil && r.TransporterAmount != ""
}

func (r *TransportRequest) HasInterest(transporterID string) bool {
	for _, id := range r.TransporterInterests {
		if id == transporterID {
			return true
		}
	}
	return false
}

// GetOwnerID lets the authorization gate treat the client as the owner.
func (r *TransportRequest) GetOwnerID() string { return r.ClientID }

// RequestFilter narrows request listings. Empty fields match everything.
type RequestFilter struct {
	ClientID              string
	AssignedTransporterID string
	AssignedToID          string
	Statuses              []workflow.RequestStatus
	CoordinationStatuses  []workflow.CoordinationStatus
	PaymentStatuses       []workflow.PaymentStatus
	FromCity              string
	ToCity                string
	InterestedTransporter string
	Limit                 int64
}

// StatusPair is one observed (status, coordinationStatus) combination.
type StatusPair struct {
	Status       workflow.RequestStatus      `bson:"status" json:"status"`
	Coordination workflow.CoordinationStatus `bson:"coordinationStatus" json:"coordinationStatus"`
	Count        int64                       `bson:"count" json:"count"`
}
