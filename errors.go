package courier

type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// NilTopic is returned when a Publisher is constructed without a transport topic handle.
	NilTopic = Error("nil topic handle")
	// NilSubscription is returned when a Consumer is constructed without a transport subscription handle.
	NilSubscription = Error("nil subscription handle")
)
