// Package courier is a thin convenience layer over a managed publish/subscribe
// service. It adds JSON serialization, default-attribute merging, publish retry
// with exponential backoff, and an idempotency gate in front of message handlers.
// Durability, redelivery, ordering and dead-lettering remain the transport's job.
package courier

import "strconv"

const (
	// AttrCorrelationID is the unique identifier used to track and correlate messages as they flow through a system
	AttrCorrelationID = "Correlation-Id"
	AttrCreatedAt     = "Created-At"
	AttrContentType   = "Content-Type"
	// AttrReplyTo is the attribute key holding the topic a reply should be published to.
	AttrReplyTo      = "Reply-To"
	AttrReplyMsgID   = "Reply-Message-Id"
	// AttrInstanceID uniquely identifies a specific instance of a service that
	// produced the message, useful in distributed systems for tracing and for
	// loopback prevention.
	AttrInstanceID = "Instance-Id"
)

// Attributes represents the transport-level key-value metadata attached to a message
type Attributes map[string]string

// Get retrieves the value associated with the provided key.
// Returns an empty string if the key does not exist.
func (a Attributes) Get(key string) string {
	if a == nil {
		return ""
	}
	return a[key]
}

// Set assigns the provided value to the provided key.
func (a Attributes) Set(key, value string) {
	a[key] = value
}

// Clone returns a shallow copy. Cloning nil attributes yields an empty map.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// MergeAttributes combines defaults with call-site overrides. Override keys
// always win on conflict. Neither input is mutated; the result is never nil.
func MergeAttributes(defaults, overrides Attributes) Attributes {
	out := defaults.Clone()
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// SetCorrelationID sets the correlation id using a predefined key.
func (a Attributes) SetCorrelationID(id string) {
	a.Set(AttrCorrelationID, id)
}

// GetCorrelationID retrieves the correlation id value.
// Returns an empty string if the correlation id is not set.
func (a Attributes) GetCorrelationID() string {
	return a.Get(AttrCorrelationID)
}

// SetCreatedAt sets the creation timestamp (unix time) using a predefined key.
func (a Attributes) SetCreatedAt(timestamp int64) {
	a.Set(AttrCreatedAt, strconv.FormatInt(timestamp, 10))
}

// GetCreatedAt retrieves the creation timestamp.
// Returns 0 if the creation timestamp is not set or malformed.
func (a Attributes) GetCreatedAt() int64 {
	v := a.Get(AttrCreatedAt)
	if v == "" {
		return 0
	}
	timestamp, _ := strconv.ParseInt(v, 10, 64)
	return timestamp
}

// SetContentType sets the payload content type using a predefined key.
func (a Attributes) SetContentType(ct string) {
	a.Set(AttrContentType, ct)
}

// GetContentType retrieves the payload content type.
func (a Attributes) GetContentType() string {
	return a.Get(AttrContentType)
}

// SetReplyTo sets the reply topic using a predefined key.
func (a Attributes) SetReplyTo(topic string) {
	a.Set(AttrReplyTo, topic)
}

// GetReplyTo retrieves the reply topic value.
func (a Attributes) GetReplyTo() string {
	return a.Get(AttrReplyTo)
}

// SetReplyMessageID sets the id of the message being replied to.
func (a Attributes) SetReplyMessageID(id string) {
	a.Set(AttrReplyMsgID, id)
}

// GetReplyMessageID retrieves the id of the message being replied to.
func (a Attributes) GetReplyMessageID() string {
	return a.Get(AttrReplyMsgID)
}

// SetInstanceID marks the specific service instance that produced the message.
func (a Attributes) SetInstanceID(id string) {
	a.Set(AttrInstanceID, id)
}

// GetInstanceID retrieves the producing instance identifier.
func (a Attributes) GetInstanceID() string {
	return a.Get(AttrInstanceID)
}
