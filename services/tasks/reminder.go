package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"healthtrip/models"
)

const TypeAppointmentReminder = "reminder:appointment"

// NewAppointmentReminderTask builds the asynq task that fires a reminder
// ahead of a committed appointment.
func NewAppointmentReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeAppointmentReminder, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt)}

	return task, opts, nil
}
