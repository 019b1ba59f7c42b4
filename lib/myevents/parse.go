package myevents

import (
	"encoding/json"
	"fmt"
	"io"
)

// PushRequest is the json body that pubsub delivers on a push subscription.
type PushRequest struct {
	Message      PushMessage `json:"message"`
	Subscription string      `json:"subscription"`
}

type PushMessage struct {
	Data       []byte            `json:"data"`
	Attributes map[string]string `json:"attributes"`
	MessageID  string            `json:"messageId"`
}

func ParseEventEnvelope(reader io.Reader) (EventEnvelope, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("error reading push request: %s", err)
	}

	pushRequest := PushRequest{}
	err = json.Unmarshal(body, &pushRequest)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("error parsing push request: %s", err)
	}

	envelope := EventEnvelope{}
	err = json.Unmarshal(pushRequest.Message.Data, &envelope)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("error parsing event envelope: %s", err)
	}

	return envelope, nil
}
