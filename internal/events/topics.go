package events

// Event types published by the service.
const (
	TypeTransactionRecorded = "transaction.recorded"
	TypeMenuRepriced        = "menu.repriced"
)

// DefaultTypes returns the event types consumers can subscribe to.
func DefaultTypes() []string {
	return []string{
		TypeTransactionRecorded,
		TypeMenuRepriced,
	}
}
