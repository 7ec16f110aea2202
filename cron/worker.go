package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"healthtrip/config"
	"healthtrip/models"
	"healthtrip/services/tasks"
	"healthtrip/utils"
)

// InitReminderWorker runs the async reminder worker in the background.
func InitReminderWorker() {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAppointmentReminder, handleReminderTask)

	go func() {
		logger := utils.GetLogger()
		logger.Info("starting appointment reminder worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("reminder worker failed to start",
					zap.Int("attempt", attempts), zap.Error(err))

				if attempts == maxAttempts {
					log.Fatal("reminder worker: max retry attempts reached")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

// handleReminderTask fires when a scheduled appointment reminder comes due.
// Delivery channels (push, mail) belong to the presentation stack; here the
// due reminder is recorded for them to pick up.
func handleReminderTask(ctx context.Context, task *asynq.Task) error {
	logger := utils.GetLogger()

	var p models.ReminderPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		logger.Error("reminder task has invalid payload", zap.Error(err))
		return err
	}

	logger.Info("appointment reminder due",
		zap.String("reservationID", p.ReservationID),
		zap.String("reservationNumber", p.ReservationNumber),
		zap.String("appointmentDate", p.AppointmentDate),
		zap.String("appointmentTime", p.AppointmentTime))
	return nil
}
