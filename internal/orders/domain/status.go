package domain

// Status is the internal order-status vocabulary, the only one persisted.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
)

// ExternalStatus is the vocabulary exposed to API callers.
type ExternalStatus string

const (
	ExternalPending   ExternalStatus = "pending"
	ExternalApproved  ExternalStatus = "approved"
	ExternalInTransit ExternalStatus = "in_transit"
	ExternalDelivered ExternalStatus = "delivered"
	ExternalCancelled ExternalStatus = "cancelled"
	ExternalRejected  ExternalStatus = "rejected"
)

var externalToInternal = map[ExternalStatus]Status{
	ExternalPending:   StatusPending,
	ExternalApproved:  StatusAccepted,
	ExternalInTransit: StatusShipped,
	ExternalDelivered: StatusDelivered,
	ExternalCancelled: StatusCancelled,
	ExternalRejected:  StatusRejected,
}

var internalToExternal = map[Status]ExternalStatus{
	StatusPending:   ExternalPending,
	StatusAccepted:  ExternalApproved,
	StatusShipped:   ExternalInTransit,
	StatusDelivered: ExternalDelivered,
	StatusCancelled: ExternalCancelled,
	StatusRejected:  ExternalRejected,
}

// ToInternal translates an external status. Unmapped values pass through
// unchanged with ok=false; callers treat those as opaque.
func ToInternal(s ExternalStatus) (Status, bool) {
	if internal, ok := externalToInternal[s]; ok {
		return internal, true
	}
	return Status(s), false
}

// ToExternal translates an internal status, falling back to identity for
// values outside the map.
func ToExternal(s Status) ExternalStatus {
	if ext, ok := internalToExternal[s]; ok {
		return ext
	}
	return ExternalStatus(s)
}

// Known reports whether the status belongs to the closed internal set.
func (s Status) Known() bool {
	_, ok := internalToExternal[s]
	return ok
}

// validTransitions defines the order lifecycle state machine.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusAccepted, StatusCancelled, StatusRejected},
	StatusAccepted:  {StatusShipped, StatusRejected},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {}, // terminal
	StatusCancelled: {}, // terminal
	StatusRejected:  {}, // terminal
}

// CanTransitionTo checks whether the state machine allows moving to target.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}
