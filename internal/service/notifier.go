package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AchAffand/SuratJalan-sub001/internal/messagebus"
	"github.com/AchAffand/SuratJalan-sub001/internal/model"
)

// Note lifecycle event types published to the notifications queue. The
// managed push function subscribes to the queue and fans the events out to
// browsers, delivery itself is not handled here.
const (
	EventNoteCreated   = "note.created"
	EventNoteUpdated   = "note.updated"
	EventNoteDeleted   = "note.deleted"
	EventNotePrinted   = "note.printed"
	EventNoteCompleted = "note.completed"
)

// NoteEvent is the message published for a delivery note lifecycle change
type NoteEvent struct {
	Type       string           `json:"type"`
	NoteID     string           `json:"note_id"`
	NoteNumber string           `json:"note_number"`
	Status     model.NoteStatus `json:"status"`
	DriverName string           `json:"driver_name"`
	PONumber   *string          `json:"po_number,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// Notifier publishes delivery note lifecycle events to the message bus
type Notifier struct {
	bus   messagebus.Client
	queue string
}

// NewNotifier creates a new notifier. A nil bus disables publishing.
func NewNotifier(bus messagebus.Client, queue string) *Notifier {
	return &Notifier{bus: bus, queue: queue}
}

// NotifyNoteEvent publishes a note event in the background with retry.
// Publishing is best effort, failures are logged and never affect the
// originating request.
func (n *Notifier) NotifyNoteEvent(note *model.DeliveryNote, eventType string) {
	if n == nil || n.bus == nil {
		return
	}

	event := NoteEvent{
		Type:       eventType,
		NoteID:     note.UUID,
		NoteNumber: note.NoteNumber,
		Status:     note.Status,
		DriverName: note.DriverName,
		PONumber:   note.PONumber,
		OccurredAt: time.Now(),
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := messagebus.RetryWithBackoff(pubCtx, func() error {
			return n.bus.PublishMessage(pubCtx, event, n.queue)
		}, 3)
		if err != nil {
			logrus.WithError(err).WithField("note_id", note.UUID).
				Error("Failed to publish note event")
		}
	}()
}
