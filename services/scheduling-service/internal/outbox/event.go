package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types published by the scheduling engine. Consumers include the
// notification pipeline and any cache observer that prefers the durable
// stream over the pub/sub hint channel.
const (
	EventHoldCreated          = "scheduling.hold.created.v1"
	EventHoldReleased         = "scheduling.hold.released.v1"
	EventAppointmentBooked    = "scheduling.appointment.booked.v1"
	EventAppointmentCancelled = "scheduling.appointment.cancelled.v1"
)
