package types

// EventEntity names the kind of entity a notification is about.
type EventEntity string

const (
	EventEntityCustomer      EventEntity = "customer"
	EventEntityAddress       EventEntity = "address"
	EventEntityPaymentMethod EventEntity = "payment_method"
	EventEntitySubscription  EventEntity = "subscription"
	EventEntityDiscount      EventEntity = "discount"
	EventEntityTransaction   EventEntity = "transaction"
	EventEntityCoupon        EventEntity = "coupon"
	EventEntityPlan          EventEntity = "plan"
)

// EventAction is the state transition being attempted or completed.
type EventAction string

const (
	EventActionCreating  EventAction = "creating"
	EventActionUpdating  EventAction = "updating"
	EventActionSaved     EventAction = "saved"
	EventActionCanceling EventAction = "canceling"
	EventActionCanceled  EventAction = "canceled"
	EventActionRefunding EventAction = "refunding"
	EventActionRefunded  EventAction = "refunded"
	EventActionUsed      EventAction = "used"
	EventActionFailed    EventAction = "failed"
)
