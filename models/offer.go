package models

import "time"

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

// Offer is a transporter's bid on a request.
type Offer struct {
	ID            string      `bson:"id" json:"id"`
	RequestID     string      `bson:"requestId" json:"requestId"`
	TransporterID string      `bson:"transporterId" json:"transporterId"`
	Amount        string      `bson:"amount" json:"amount"`
	PickupDate    time.Time   `bson:"pickupDate" json:"pickupDate"`
	LoadType      string      `bson:"loadType" json:"loadType"`
	Message       string      `bson:"message,omitempty" json:"message,omitempty"`
	Status        OfferStatus `bson:"status" json:"status"`
	CreatedAt     time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time   `bson:"updatedAt" json:"updatedAt"`
}

func (o *Offer) GetOwnerID() string { return o.TransporterID }

type ContractStatus string

const (
	ContractInProgress            ContractStatus = "in_progress"
	ContractMarkedPaidTransporter ContractStatus = "marked_paid_transporter"
	ContractMarkedPaidClient      ContractStatus = "marked_paid_client"
	ContractCompleted             ContractStatus = "completed"
)

func (s ContractStatus) Valid() bool {
	switch s {
	case ContractInProgress, ContractMarkedPaidTransporter, ContractMarkedPaidClient, ContractCompleted:
		return true
	}
	return false
}

// Contract records the agreed amount once a request has a transporter.
type Contract struct {
	ID            string         `bson:"id" json:"id"`
	RequestID     string         `bson:"requestId" json:"requestId"`
	OfferID       string         `bson:"offerId,omitempty" json:"offerId,omitempty"`
	ClientID      string         `bson:"clientId" json:"clientId"`
	TransporterID string         `bson:"transporterId" json:"transporterId"`
	Amount        string         `bson:"amount" json:"amount"`
	Status        ContractStatus `bson:"status" json:"status"`
	CreatedAt     time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time      `bson:"updatedAt" json:"updatedAt"`
}
