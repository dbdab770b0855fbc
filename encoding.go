package courier

// Encoder defines how to encode a payload into message body bytes
type Encoder interface {
	Encode(v any) ([]byte, error)
}

// EncoderFunc wraps an encoding function to use it as an Encoder
// json.Marshal can be used as an encoder
type EncoderFunc func(v any) ([]byte, error)

func (f EncoderFunc) Encode(v any) ([]byte, error) {
	return f(v)
}

// Decoder defines how to decode the given data into a value
type Decoder interface {
	Decode(data []byte, v any) error
}

// DecoderFunc wraps a decoding function to use it as a Decoder
// json.Unmarshal can be used as a decoder
type DecoderFunc func(data []byte, v any) error

func (f DecoderFunc) Decode(data []byte, v any) error {
	return f(data, v)
}
