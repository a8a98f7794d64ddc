package models

import "time"

// Notification is one row of a user's in-app inbox.
type Notification struct {
	ID               string    `bson:"id" json:"id"`
	UserID           string    `bson:"userId" json:"userId"`
	Type             string    `bson:"type" json:"type"`
	Title            string    `bson:"title" json:"title"`
	Message          string    `bson:"message" json:"message"`
	RelatedRequestID string    `bson:"relatedRequestId,omitempty" json:"relatedRequestId,omitempty"`
	RelatedOfferID   string    `bson:"relatedOfferId,omitempty" json:"relatedOfferId,omitempty"`
	Read             bool      `bson:"read" json:"read"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
}
