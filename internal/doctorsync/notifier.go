// Package doctorsync fans doctor record changes out to downstream consumers
// over Kafka.
package doctorsync

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"revalid/internal/revalidation/models"
	"revalid/pkg/requestcontext"
)

// Notifier publishes one message per doctor mutation, keyed by GMC reference
// so downstream consumers see changes for a doctor in order.
type Notifier struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewNotifier(client *kgo.Client, topic string, logger *slog.Logger) *Notifier {
	return &Notifier{
		client: client,
		topic:  topic,
		logger: logger,
	}
}

type doctorChangedMessage struct {
	GmcRef             string              `json:"gmc_ref"`
	FirstName          string              `json:"first_name"`
	LastName           string              `json:"last_name"`
	DesignatedBodyCode string              `json:"designated_body_code"`
	ExistsInGmc        bool                `json:"exists_in_gmc"`
	UnderNotice        models.UnderNotice  `json:"under_notice"`
	Status             models.DoctorStatus `json:"doctor_status"`
}

// DoctorChanged publishes the doctor's current view. Publishing is fire and
// forget: sync is a convergent downstream concern and must never fail or slow
// the mutation that triggered it.
func (n *Notifier) DoctorChanged(ctx context.Context, doctor *models.Doctor) {
	payload, err := json.Marshal(doctorChangedMessage{
		GmcRef:             doctor.GmcRef.String(),
		FirstName:          doctor.FirstName,
		LastName:           doctor.LastName,
		DesignatedBodyCode: doctor.DesignatedBodyCode,
		ExistsInGmc:        doctor.ExistsInGmc,
		UnderNotice:        doctor.UnderNotice,
		Status:             doctor.Status,
	})
	if err != nil {
		n.logger.ErrorContext(ctx, "failed to encode doctor sync message",
			"gmc_ref", doctor.GmcRef, "error", err)
		return
	}

	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(doctor.GmcRef.String()),
		Value: payload,
	}
	requestID := requestcontext.RequestID(ctx)
	n.client.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		if err != nil {
			n.logger.Error("failed to publish doctor sync message",
				"gmc_ref", string(record.Key),
				"request_id", requestID,
				"error", err,
			)
		}
	})
}
