package models

import "time"

// Rating is the client's score for a completed request.
type Rating struct {
	ID            string    `bson:"id" json:"id"`
	RequestID     string    `bson:"requestId" json:"requestId"`
	TransporterID string    `bson:"transporterId" json:"transporterId"`
	ClientID      string    `bson:"clientId" json:"clientId"`
	Score         int       `bson:"score" json:"score"`
	Comment       string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

// EmptyReturn is a transporter's declared backhaul availability.
type EmptyReturn struct {
	ID            string    `bson:"id" json:"id"`
	TransporterID string    `bson:"transporterId" json:"transporterId"`
	FromCity      string    `bson:"fromCity" json:"fromCity"`
	ToCity        string    `bson:"toCity" json:"toCity"`
	ReturnDate    time.Time `bson:"returnDate" json:"returnDate"`
	IsActive      bool      `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

func (e *EmptyReturn) GetOwnerID() string { return e.TransporterID }

// Expired reports whether the return date is before the start of now's day.
func (e *EmptyReturn) Expired(now time.Time) bool {
	y, m, d := now.Date()
	return e.ReturnDate.Before(time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
}

type ReferenceStatus string

const (
	ReferencePending   ReferenceStatus = "pending"
	ReferenceValidated ReferenceStatus = "validated"
	ReferenceRejected  ReferenceStatus = "rejected"
)

// TransporterReference is a contact a coordinator calls to vet a transporter.
type TransporterReference struct {
	ID                string          `bson:"id" json:"id"`
	TransporterID     string          `bson:"transporterId" json:"transporterId"`
	ReferenceName     string          `bson:"referenceName" json:"referenceName"`
	ReferencePhone    string          `bson:"referencePhone" json:"referencePhone"`
	ReferenceRelation string          `bson:"referenceRelation" json:"referenceRelation"`
	Status            ReferenceStatus `bson:"status" json:"status"`
	ValidatedBy       string          `bson:"validatedBy,omitempty" json:"validatedBy,omitempty"`
	Notes             string          `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt         time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time       `bson:"updatedAt" json:"updatedAt"`
}
