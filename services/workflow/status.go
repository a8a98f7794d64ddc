// Package workflow defines the three status tracks of a transport request and
// the transitions allowed between their values.
package workflow

// RequestStatus is the main lifecycle of a transport request.
type RequestStatus string

const (
	StatusOpen                 RequestStatus = "open"
	StatusPublishedForMatching RequestStatus = "published_for_matching"
	StatusAccepted             RequestStatus = "accepted"
	StatusCompleted            RequestStatus = "completed"
	StatusExpired              RequestStatus = "expired"
	StatusCancelled            RequestStatus = "cancelled"
)

// RequestStatuses lists every RequestStatus in lifecycle order.
var RequestStatuses = []RequestStatus{
	StatusOpen, StatusPublishedForMatching, StatusAccepted,
	StatusCompleted, StatusExpired, StatusCancelled,
}

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusPublishedForMatching, StatusAccepted,
		StatusCompleted, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further work happens on the request without a
// republish.
func (s RequestStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusExpired, StatusCancelled:
		return true
	case StatusOpen, StatusPublishedForMatching, StatusAccepted:
		return false
	}
	return false
}

// CoordinationStatus is the coordinator-side phase of a request.
type CoordinationStatus string

const (
	CoordQualificationPending CoordinationStatus = "qualification_pending"
	CoordQualified            CoordinationStatus = "qualified"
	CoordMatching             CoordinationStatus = "matching"
	CoordAssigned             CoordinationStatus = "assigned"
	CoordArchive              CoordinationStatus = "archive"
)

var CoordinationStatuses = []CoordinationStatus{
	CoordQualificationPending, CoordQualified, CoordMatching, CoordAssigned, CoordArchive,
}

func (s CoordinationStatus) Valid() bool {
	switch s {
	case CoordQualificationPending, CoordQualified, CoordMatching, CoordAssigned, CoordArchive:
		return true
	}
	return false
}

// PaymentStatus tracks money collection for an assigned request.
type PaymentStatus string

const (
	PaymentNone                   PaymentStatus = ""
	PaymentToInvoice              PaymentStatus = "a_facturer"
	PaymentAwaiting               PaymentStatus = "awaiting_payment"
	PaymentPendingAdminValidation PaymentStatus = "pending_admin_validation"
	PaymentPaidByClient           PaymentStatus = "paid_by_client"
	PaymentPaidByCamionback       PaymentStatus = "paid_by_camionback"
	PaymentPaid                   PaymentStatus = "paid"
)

var PaymentStatuses = []PaymentStatus{
	PaymentNone, PaymentToInvoice, PaymentAwaiting, PaymentPendingAdminValidation,
	PaymentPaidByClient, PaymentPaidByCamionback, PaymentPaid,
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentNone, PaymentToInvoice, PaymentAwaiting, PaymentPendingAdminValidation,
		PaymentPaidByClient, PaymentPaidByCamionback, PaymentPaid:
		return true
	}
	return false
}

// Settled reports whether the client side of the payment has been confirmed.
func (s PaymentStatus) Settled() bool {
	switch s {
	case PaymentPaidByClient, PaymentPaidByCamionback, PaymentPaid:
		return true
	case PaymentNone, PaymentToInvoice, PaymentAwaiting, PaymentPendingAdminValidation:
		return false
	}
	return false
}

// Category is the dashboard bucket a coordinator sees a request in.
type Category string

const (
	CategoryNew      Category = "nouveau"
	CategoryInAction Category = "en_action"
	CategoryPriority Category = "prioritaires"
	CategoryArchived Category = "archives"
)

var Categories = []Category{CategoryNew, CategoryInAction, CategoryPriority, CategoryArchived}

func (c Category) Valid() bool {
	switch c {
	case CategoryNew, CategoryInAction, CategoryPriority, CategoryArchived:
		return true
	}
	return false
}
