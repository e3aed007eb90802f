package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	JobDailyReminder = "daily_reminder"
	JobMonthlyReport = "monthly_report"
)

type Job struct {
	Kind       string
	EnqueuedAt time.Time
}

// JobWorker decouples the scheduled tasks from the request path: cron only
// enqueues, a single worker goroutine drains the queue. Jobs read the store
// and send mail; they never mutate lifecycle state.
type JobWorker struct {
	reports *ReportsService
	mailer  *Mailer
	queue   chan Job
	cron    *cron.Cron
}

func NewJobWorker(reports *ReportsService, mailer *Mailer) *JobWorker {
	return &JobWorker{
		reports: reports,
		mailer:  mailer,
		queue:   make(chan Job, 16),
		cron:    cron.New(),
	}
}

// Enqueue adds a job without blocking; a full queue drops the job with a
// log line, the next tick retries anyway.
func (w *JobWorker) Enqueue(kind string) {
	select {
	case w.queue <- Job{Kind: kind, EnqueuedAt: time.Now()}:
	default:
		log.Printf("job queue full, dropping %s", kind)
	}
}

// Start registers the schedules (daily reminder at 08:00, monthly report on
// the 1st at 09:00) and runs the worker until ctx is done.
func (w *JobWorker) Start(ctx context.Context) error {
	if _, err := w.cron.AddFunc("0 8 * * *", func() { w.Enqueue(JobDailyReminder) }); err != nil {
		return fmt.Errorf("schedule %s: %w", JobDailyReminder, err)
	}
	if _, err := w.cron.AddFunc("0 9 1 * *", func() { w.Enqueue(JobMonthlyReport) }); err != nil {
		return fmt.Errorf("schedule %s: %w", JobMonthlyReport, err)
	}
	w.cron.Start()

	go func() {
		for {
			select {
			case <-ctx.Done():
				w.cron.Stop()
				return
			case job := <-w.queue:
				w.run(ctx, job)
			}
		}
	}()
	return nil
}

func (w *JobWorker) run(ctx context.Context, job Job) {
	log.Printf("running job %s (enqueued %s)", job.Kind, job.EnqueuedAt.Format(time.RFC3339))
	switch job.Kind {
	case JobDailyReminder:
		w.dailyReminder(ctx)
	case JobMonthlyReport:
		w.monthlyReport(ctx)
	default:
		log.Printf("unknown job kind %q", job.Kind)
	}
}

// dailyReminder nudges influencers who have pending ad requests and have
// not logged in today.
func (w *JobWorker) dailyReminder(ctx context.Context) {
	dayStart := time.Now().UTC().Truncate(24 * time.Hour).Format("2006-01-02 15:04:05")
	users, err := w.reports.PendingReminderTargets(ctx, dayStart)
	if err != nil {
		log.Printf("daily reminder query failed: %v", err)
		return
	}
	for i := range users {
		u := &users[i]
		body := fmt.Sprintf("Dear %s, please visit the app to manage your pending ad requests.", u.Username)
		w.mailer.Send(u.Email, "Daily Reminder: Visit the App", body)
	}
	log.Printf("daily reminder: %d influencers notified", len(users))
}

// monthlyReport mails each sponsor a CSV rollup of their ad requests.
func (w *JobWorker) monthlyReport(ctx context.Context) {
	rollups, err := w.reports.MonthlyRollups(ctx)
	if err != nil {
		log.Printf("monthly report query failed: %v", err)
		return
	}
	attachment, err := RollupCSV(rollups)
	if err != nil {
		log.Printf("monthly report csv failed: %v", err)
		return
	}
	for _, r := range rollups {
		if r.Email == "" {
			continue
		}
		body := fmt.Sprintf("Dear %s,\n\nAttached is your monthly report of ad requests for your campaigns.", r.Sponsor.CompanyName)
		w.mailer.SendWithAttachment(r.Email, "Monthly Report: Ad Requests Overview", body, "monthly_report.csv", attachment)
	}
	log.Printf("monthly report: %d sponsors mailed", len(rollups))
}
