// internal/message/message.go
package message

// Tag identifies the kind of message. The same type travels in both directions.
type Tag uint8

const (
	TagConfig       Tag = 0x01
	TagVersion      Tag = 0x02
	TagCPUID        Tag = 0x03
	TagDiagnostic   Tag = 0x04
	TagParamInteger Tag = 0x05
	TagParamFloat   Tag = 0x06
	TagParamSet     Tag = 0x07
)

// Status is the message status code.
type Status uint8

const (
	StatusOK Status = 0x00

	// StatusErrDecode marks a frame that arrived but could not be decoded.
	StatusErrDecode Status = 0x01
	// StatusErrSize marks a message that exceeds the payload limits.
	StatusErrSize Status = 0x02
)

// Payload limits. A message with more values is not representable on the wire.
const (
	MaxInts   = 16
	MaxFloats = 16
	MaxString = 64
)

// Message is the wire unit of the parameter protocol.
type Message struct {
	Tag       Tag
	Status    Status
	Timestamp uint32 // device millis
	Ints      []uint32
	Floats    []float32
	String    string
}

// OK reports whether the message status is StatusOK.
func (m Message) OK() bool { return m.Status == StatusOK }

// NewData builds a data message carrying floats and ints.
func NewData(tag Tag, ctime uint32, floats []float32, ints []uint32) Message {
	return Message{
		Tag:       tag,
		Timestamp: ctime,
		Floats:    floats,
		Ints:      ints,
	}
}

// NewString builds a message carrying a string payload.
func NewString(tag Tag, ctime uint32, s string) Message {
	return Message{
		Tag:       tag,
		Timestamp: ctime,
		String:    s,
	}
}
