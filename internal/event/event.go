package event

type Type string

const (
	TypeRecordRestored      Type = "recycle.restored"
	TypeRecordArchived      Type = "recycle.archived"
	TypeRecordDeleted       Type = "recycle.deleted"
	TypeRecordHold          Type = "recycle.hold"
	TypeRetentionPolicy     Type = "recycle.policy"
	TypeCapTableChanged     Type = "captable.changed"
	TypeSecurityChanged     Type = "security.changed"
	TypeTransactionChanged  Type = "transaction.changed"
	TypeLeadChanged         Type = "lead.changed"
	TypeGuestChanged        Type = "guest.changed"
	TypeGuestServiceChanged Type = "guest_service.changed"
	TypeUserChanged         Type = "user.changed"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"` // Who triggered the event
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
