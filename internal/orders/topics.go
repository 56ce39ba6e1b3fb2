package orders

const (
	TopicOrderPlaced          = "order.placed"
	TopicOrderCancelled       = "order.cancelled"
	TopicOrderFulfilled       = "order.fulfilled"
	TopicFulfillmentConfirmed = "order.fulfillment.confirmed"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
