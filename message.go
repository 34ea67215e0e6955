package inputnode

import (
	"encoding/json"
	"fmt"
	"github.com/rs/xid"
	"math/rand/v2"
	"strconv"
)

// PayloadFunc produces the payload of one data message. It is called once
// per emitted message, on the emitter goroutine.
type PayloadFunc func() []byte

// RandomReading simulates a sensor by returning a random value in the
// uint16 range, formatted in decimal.
func RandomReading() []byte {
	return []byte(strconv.Itoa(rand.IntN(1 << 16)))
}

// DataMessage is the v1 envelope around one emitted payload.
type DataMessage struct {
	ID      string      `json:"id"`
	Message string      `json:"message"`
	Meta    MessageMeta `json:"meta"`
}

// MessageMeta identifies the flow a data message belongs to.
type MessageMeta struct {
	FlowName      string `json:"flow_name"`
	ExecutionArea string `json:"execution_area"`
}

// EncodeDataMessage wraps payload in a v1 envelope, stamping it with a
// fresh globally unique id.
func EncodeDataMessage(identity Identity, payload []byte) []byte {
	b, _ := json.Marshal(DataMessage{
		ID:      xid.New().String(),
		Message: string(payload),
		Meta: MessageMeta{
			FlowName:      identity.Flow,
			ExecutionArea: identity.Area,
		},
	})
	return b
}

// DecodeDataMessage parses a v1 data envelope.
func DecodeDataMessage(data []byte) (DataMessage, error) {
	var msg DataMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return DataMessage{}, fmt.Errorf("data message is not valid JSON: %w", err)
	}
	return msg, nil
}
