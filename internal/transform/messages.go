package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

// Message stores a message record. Messages without content are skipped.
func (t *Transformer) Message(ctx context.Context, scope Scope, raw any) (*entities.Communication, error) {
	obj, ok := asObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: message is %T", ErrUnexpectedShape, raw)
	}

	content := stringField(obj, "content", "text", "message")
	if content == "" {
		return nil, ErrSkipped
	}

	sent, ok := unixMillisField(obj, "timestamp_ms")
	if !ok {
		if sent, ok = unixField(obj, "timestamp"); !ok {
			sent = t.now().UTC()
		}
	}

	msg := &entities.Communication{
		Status:   StatusCompleted,
		Sent:     sent,
		Payload:  content,
		Category: CategorySocialMessage,
		Meta:     t.meta(scope),
	}

	sender := stringField(obj, "sender_name", "sender", "author")
	if sender != "" && strings.EqualFold(sender, scope.Patient.Display) {
		msg.Sender = scope.Patient
		msg.Recipient = entities.Reference{Display: "conversation participants"}
	} else {
		msg.Sender = entities.Reference{Display: sender}
		msg.Recipient = scope.Patient
	}

	if err := t.store.InsertCommunication(ctx, scope.UserID, msg); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}
