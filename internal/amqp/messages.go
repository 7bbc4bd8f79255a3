package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"donorboard/internal/core"
	"donorboard/internal/source"
)

// DonationRecordedType is the message type and routing key of donation events.
const DonationRecordedType = "donation.recorded"

// DonationRecordedMessage announces a donation accepted by the payment flow.
type DonationRecordedMessage struct {
	MessageID  string                 `json:"messageId"`
	Donation   source.DonationPayload `json:"donation"`
	RecordedAt time.Time              `json:"recordedAt"`
}

func NewDonationRecordedMessage(d core.DonationRecord) *DonationRecordedMessage {
	return &DonationRecordedMessage{
		MessageID:  uuid.NewString(),
		Donation:   source.EncodeDonation(d),
		RecordedAt: time.Now().UTC(),
	}
}

func (m *DonationRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DonationRecordedMessageFromJSON parses a message body. Shape errors are
// reported here; field validation is left to source.DecodeDonation.
func DonationRecordedMessageFromJSON(data []byte) (*DonationRecordedMessage, error) {
	var msg DonationRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Donation.ID == "" {
		return nil, errors.New("message carries no donation")
	}
	return &msg, nil
}
