package domain

// EventKind 訂閱事件種類
type EventKind string

const (
	// EventRoom full room snapshot pushed by the store
	EventRoom EventKind = "room"
	// EventMessages full ordered message list after reconciliation
	EventMessages EventKind = "messages"
	// EventReset 本地狀態與 store 不一致, caller 需要整個重來
	EventReset EventKind = "reset"
)

// ResetReason why the hub asked for a full client reset
type ResetReason string

const (
	// ResetVacated the room dropped to zero occupants
	ResetVacated ResetReason = "vacated"
	// ResetUnexpectedState a provisional room was claimed or closed under us
	ResetUnexpectedState ResetReason = "unexpected_state"
)

// Event tagged union delivered on a room session stream
// Kind 決定哪個欄位有效
type Event struct {
	Kind     EventKind
	Room     *Room
	Messages []Message
	Reason   ResetReason
}
