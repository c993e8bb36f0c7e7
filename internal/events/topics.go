package events

// Topic constants for domain events emitted by the checkout flow.
const (
	TopicSessionStarted   = "session.started"
	TopicItemAdded        = "cart.item_added"
	TopicItemRemoved      = "cart.item_removed"
	TopicInvoiceGenerated = "invoice.generated"
	TopicSessionReset     = "session.reset"
)

// DefaultTopics returns the canonical list of topics.
func DefaultTopics() []string {
	return []string{
		TopicSessionStarted,
		TopicItemAdded,
		TopicItemRemoved,
		TopicInvoiceGenerated,
		TopicSessionReset,
	}
}
