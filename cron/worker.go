package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"serenity/config"
	appointmentRepo "serenity/database/repository/appointment"
	"serenity/models"
	"serenity/services/agent"
	"serenity/services/appointment"

	"github.com/hibiken/asynq"
)

const (
	TypeReminderScan     = "reminder:scan"
	TypeReminderSend     = "reminder:send"
	TypeSessionSweep     = "session:sweep"
	TypeAppointmentSweep = "appointment:sweep"
)

const reminderSentMarker = "reminder sent"

// ReminderPayload carries everything the send handler needs so it does not
// refetch the appointment.
type ReminderPayload struct {
	AppointmentID string `json:"appointmentId"`
	ClientPhone   string `json:"clientPhone"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	ServiceID     string `json:"serviceId"`
}

// WorkerDeps are the collaborators the background tasks run against.
type WorkerDeps struct {
	Appointments appointmentRepo.AppointmentRepository
	Lifecycle    appointment.Service
	Sessions     agent.SessionStore
	Cfg          *config.BusinessConfig
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitWorker runs the async worker and the periodic scheduler in background.
func InitWorker(deps WorkerDeps) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	client := asynq.NewClient(redisOpts())

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReminderScan, handleReminderScan(deps, client))
	mux.HandleFunc(TypeReminderSend, handleReminderSend(deps))
	mux.HandleFunc(TypeSessionSweep, handleSessionSweep(deps))
	mux.HandleFunc(TypeAppointmentSweep, handleAppointmentSweep(deps))

	go func() {
		log.Println("[Worker] Starting async worker...")
		const maxAttempts = 5
		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[Worker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)
				if attempts == maxAttempts {
					log.Fatal("[Worker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()

	go runScheduler()
}

// runScheduler registers the periodic maintenance tasks.
func runScheduler() {
	scheduler := asynq.NewScheduler(redisOpts(), nil)

	entries := []struct {
		cronspec string
		taskType string
	}{
		{"@every 1h", TypeReminderScan},
		{"@every 15m", TypeSessionSweep},
		{"@every 30m", TypeAppointmentSweep},
	}
	for _, e := range entries {
		if _, err := scheduler.Register(e.cronspec, asynq.NewTask(e.taskType, nil)); err != nil {
			log.Printf("[Scheduler] Failed to register %s: %v", e.taskType, err)
		}
	}

	log.Println("[Scheduler] Starting periodic scheduler...")
	if err := scheduler.Run(); err != nil {
		log.Printf("[Scheduler] Scheduler stopped: %v", err)
	}
}

// handleReminderScan enqueues a reminder:send for every confirmed
// appointment happening tomorrow that has not been reminded yet.
func handleReminderScan(deps WorkerDeps, client *asynq.Client) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
		appts, err := deps.Appointments.GetByDate(tomorrow)
		if err != nil {
			return fmt.Errorf("reminder scan failed for %s: %w", tomorrow, err)
		}

		for _, a := range appts {
			if a.Status != models.StatusConfirmed || alreadyReminded(&a) {
				continue
			}
			payload, err := json.Marshal(ReminderPayload{
				AppointmentID: a.ID,
				ClientPhone:   a.ClientPhone,
				Date:          a.Date,
				Time:          a.Time,
				ServiceID:     a.ServiceID,
			})
			if err != nil {
				continue
			}
			if _, err := client.EnqueueContext(ctx, asynq.NewTask(TypeReminderSend, payload)); err != nil {
				log.Printf("[ReminderScan] Failed to enqueue reminder for %s: %v", a.ID, err)
			}
		}
		return nil
	}
}

// handleReminderSend delivers the reminder and marks the appointment so the
// next scan skips it. Delivery is the message log for now; the note is the
// durable marker.
func handleReminderSend(deps WorkerDeps) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ReminderSend] Invalid payload: %v", err)
			return err
		}

		appt, err := deps.Appointments.GetByID(p.AppointmentID)
		if err != nil || appt == nil {
			return err
		}
		if appt.Status != models.StatusConfirmed || alreadyReminded(appt) {
			return nil
		}

		svcName := p.ServiceID
		if svc, ok := deps.Cfg.ServiceByID(p.ServiceID); ok {
			svcName = svc.Name
		}
		log.Printf("[ReminderSend] Reminder to %s: your %s on %s at %s", p.ClientPhone, svcName, p.Date, p.Time)

		appt.AddNote(reminderSentMarker)
		return deps.Appointments.Update(appt)
	}
}

// handleSessionSweep expires conversation sessions idle past the TTL.
func handleSessionSweep(deps WorkerDeps) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		maxIdle := time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
		stale, err := deps.Sessions.Stale(ctx, maxIdle)
		if err != nil {
			return err
		}
		for _, phone := range stale {
			if err := deps.Sessions.Delete(ctx, phone); err != nil {
				log.Printf("[SessionSweep] Failed to delete session %s: %v", phone, err)
			}
		}
		if len(stale) > 0 {
			log.Printf("[SessionSweep] Expired %d idle sessions", len(stale))
		}
		return nil
	}
}

// handleAppointmentSweep completes confirmed appointments whose end time has
// passed.
func handleAppointmentSweep(deps WorkerDeps) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		now := time.Now()
		// Yesterday and today cover every appointment that can have elapsed
		// since the previous sweep.
		for _, date := range []string{
			now.AddDate(0, 0, -1).Format("2006-01-02"),
			now.Format("2006-01-02"),
		} {
			appts, err := deps.Appointments.GetByDate(date)
			if err != nil {
				return err
			}
			for _, a := range appts {
				if a.Status != models.StatusConfirmed {
					continue
				}
				end, err := a.EndTime(now.Location())
				if err != nil || end.After(now) {
					continue
				}
				if _, err := deps.Lifecycle.Complete(a.ID); err != nil {
					log.Printf("[AppointmentSweep] Failed to complete %s: %v", a.ID, err)
				}
			}
		}
		return nil
	}
}

func alreadyReminded(a *models.Appointment) bool {
	for _, note := range a.Notes {
		if strings.Contains(note, reminderSentMarker) {
			return true
		}
	}
	return false
}
