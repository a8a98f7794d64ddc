package workflow

import "fmt"

var requestTransitions = map[RequestStatus][]RequestStatus{
	StatusOpen:                 {StatusPublishedForMatching, StatusAccepted, StatusExpired, StatusCancelled, StatusOpen},
	StatusPublishedForMatching: {StatusPublishedForMatching, StatusAccepted, StatusExpired, StatusCancelled},
	StatusAccepted:             {StatusCompleted, StatusPublishedForMatching, StatusOpen, StatusExpired, StatusCancelled},
	StatusCompleted:            {StatusOpen},
	StatusExpired:              {StatusOpen, StatusPublishedForMatching},
	StatusCancelled:            {},
}

var coordinationTransitions = map[CoordinationStatus][]CoordinationStatus{
	CoordQualificationPending: {CoordQualified, CoordAssigned, CoordArchive, CoordQualificationPending},
	CoordQualified:            {CoordQualified, CoordMatching, CoordAssigned, CoordArchive, CoordQualificationPending},
	CoordMatching:             {CoordMatching, CoordAssigned, CoordArchive},
	CoordAssigned:             {CoordAssigned, CoordMatching, CoordArchive, CoordQualified, CoordQualificationPending},
	CoordArchive:              {CoordMatching, CoordQualified, CoordQualificationPending},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentNone:                   {PaymentToInvoice},
	PaymentToInvoice:              {PaymentAwaiting, PaymentToInvoice},
	PaymentAwaiting:               {PaymentPendingAdminValidation, PaymentToInvoice},
	PaymentPendingAdminValidation: {PaymentPaidByClient, PaymentPaidByCamionback, PaymentAwaiting},
	PaymentPaidByClient:           {PaymentPaidByCamionback, PaymentPaid},
	PaymentPaidByCamionback:       {PaymentPaid},
	PaymentPaid:                   {},
}

// consistentPairs lists, per request status, the coordination phases it may
// be stored with.
var consistentPairs = map[RequestStatus][]CoordinationStatus{
	StatusOpen:                 {CoordQualificationPending, CoordQualified},
	StatusPublishedForMatching: {CoordMatching},
	StatusAccepted:             {CoordAssigned},
	StatusCompleted:            {CoordAssigned},
	StatusExpired:              {CoordArchive},
	StatusCancelled:            {CoordArchive},
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func CanTransitionRequest(from, to RequestStatus) bool {
	return contains(requestTransitions[from], to)
}

func CanTransitionCoordination(from, to CoordinationStatus) bool {
	return contains(coordinationTransitions[from], to)
}

// CanTransitionPayment allows any status to be reset to PaymentToInvoice
// except a completed settlement.
func CanTransitionPayment(from, to PaymentStatus) bool {
	if to == PaymentToInvoice && from != PaymentPaid {
		return true
	}
	return contains(paymentTransitions[from], to)
}

// ConsistentPair reports whether a request may be stored with this status and
// coordination phase at the same time.
func ConsistentPair(status RequestStatus, coord CoordinationStatus) bool {
	return contains(consistentPairs[status], coord)
}

// ExpectedCoordination returns the coordination phase a repair should set for
// status. hasPricing selects between the two phases allowed for open requests.
func ExpectedCoordination(status RequestStatus, hasPricing bool) CoordinationStatus {
	switch status {
	case StatusOpen:
		if hasPricing {
			return CoordQualified
		}
		return CoordQualificationPending
	case StatusPublishedForMatching:
		return CoordMatching
	case StatusAccepted, StatusCompleted:
		return CoordAssigned
	case StatusExpired, StatusCancelled:
		return CoordArchive
	}
	return CoordQualificationPending
}

// State is the pair of tracks that must move together.
type State struct {
	Status       RequestStatus
	Coordination CoordinationStatus
}

// TransitionError describes a rejected move.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move request from %s/%s to %s/%s",
		e.From.Status, e.From.Coordination, e.To.Status, e.To.Coordination)
}

// Move validates a combined transition of both tracks. A track left empty in
// to keeps its current value.
func Move(from, to State) (State, error) {
	next := from
	if to.Status != "" {
		next.Status = to.Status
	}
	if to.Coordination != "" {
		next.Coordination = to.Coordination
	}
	if next.Status != from.Status && !CanTransitionRequest(from.Status, next.Status) {
		return from, &TransitionError{From: from, To: next}
	}
	if next.Coordination != from.Coordination && !CanTransitionCoordination(from.Coordination, next.Coordination) {
		return from, &TransitionError{From: from, To: next}
	}
	if !ConsistentPair(next.Status, next.Coordination) {
		return from, &TransitionError{From: from, To: next}
	}
	return next, nil
}

// CategoryOf maps a request onto its coordinator dashboard bucket. The
// category of an admin-defined tag wins over the phase default.
func CategoryOf(coord CoordinationStatus, tagCategory Category) Category {
	if coord == CoordArchive {
		return CategoryArchived
	}
	if tagCategory.Valid() && tagCategory != CategoryArchived {
		return tagCategory
	}
	switch coord {
	case CoordQualificationPending:
		return CategoryNew
	case CoordQualified, CoordMatching, CoordAssigned:
		return CategoryInAction
	case CoordArchive:
		return CategoryArchived
	}
	return CategoryNew
}
