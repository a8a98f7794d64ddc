// Package notification turns domain events into inbox rows, push messages,
// SMS and admin emails. Producers publish typed events; delivery happens on a
// queue so a failing channel never fails the request that caused it.
package notification

// Kind names what happened.
type Kind string

const (
	KindNewRequest          Kind = "new_request"
	KindRequestPublished    Kind = "request_published"
	KindInterestReceived    Kind = "interest_received"
	KindTransporterChosen   Kind = "transporter_chosen"
	KindNewOffer            Kind = "new_offer"
	KindOfferAccepted       Kind = "offer_accepted"
	KindOfferRejected       Kind = "offer_rejected"
	KindRequestAssigned     Kind = "request_assigned"
	KindPaymentRequested    Kind = "payment_requested"
	KindPaymentSubmitted    Kind = "payment_submitted"
	KindPaymentValidated    Kind = "payment_validated"
	KindPaymentRejected     Kind = "payment_rejected"
	KindRequestCompleted    Kind = "request_completed"
	KindRequestCancelled    Kind = "request_cancelled"
	KindRequestRepublished  Kind = "request_republished"
	KindAccountValidated    Kind = "account_validated"
	KindAccountRejected     Kind = "account_rejected"
	KindAccountBlocked      Kind = "account_blocked"
	KindReportFiled         Kind = "report_filed"
	KindAnnouncement        Kind = "announcement"
	KindCoordinatorAssigned Kind = "coordinator_assigned"
	KindTransporterSignup   Kind = "transporter_signup"
)

// Event is one notification addressed to a single user, or to the admin
// mailbox only when RecipientID is empty.
type Event struct {
	ID          string            `json:"id"`
	Kind        Kind              `json:"kind"`
	RecipientID string            `json:"recipientId,omitempty"`
	RequestID   string            `json:"requestId,omitempty"`
	OfferID     string            `json:"offerId,omitempty"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	SMS         bool              `json:"sms,omitempty"`
	EmailAdmin  bool              `json:"emailAdmin,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
}

// Audience selects the recipients of a broadcast.
type Audience string

const (
	AudienceAll          Audience = "all"
	AudienceClients      Audience = "clients"
	AudienceTransporters Audience = "transporters"

	// AudienceValidatedTransporters only reaches transporters allowed to work.
	AudienceValidatedTransporters Audience = "validated_transporters"
)

func (a Audience) Valid() bool {
	switch a {
	case AudienceAll, AudienceClients, AudienceTransporters, AudienceValidatedTransporters:
		return true
	}
	return false
}

// Broadcast fans Event out to every active user in Audience. With Inbox set
// each recipient also gets an in-app notification row.
type Broadcast struct {
	Audience Audience `json:"audience"`
	SenderID string   `json:"senderId,omitempty"`
	Inbox    bool     `json:"inbox,omitempty"`
	Event    Event    `json:"event"`
}
