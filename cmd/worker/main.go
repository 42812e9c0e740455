package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"charter_backoffice/internal/config"
	"charter_backoffice/internal/models"
	"charter_backoffice/internal/services"
	"charter_backoffice/internal/tasks"
)

const (
	sweepInterval = 5 * time.Minute
	taskLockTTL   = 10 * time.Minute
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment")
	}

	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		logrus.Fatal("DATABASE_URL is required")
	}
	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			logrus.Warnf("Redis initialization failed, running without task locks: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	var provider services.PaymentProvider
	if stripeSvc := services.NewStripeService(cfg); stripeSvc != nil {
		provider = stripeSvc
	} else {
		logrus.Warn("STRIPE_SECRET_KEY not set, reconciliation will be skipped")
	}

	tasks.DefineTasks(tasks.Deps{
		Config:   cfg,
		Provider: provider,
		Email:    services.NewEmailService(cfg),
		SMS:      services.NewSMSService(cfg),
	})

	logrus.Info("Worker started, waiting for next tick")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logrus.Info("Shutting down worker")
		cancel()
	}()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	// One run at startup so a restarted worker picks up overdue tasks
	// without waiting a full interval.
	processScheduledTasks(ctx, db, cache)

	for {
		select {
		case <-ticker.C:
			processScheduledTasks(ctx, db, cache)
		case <-ctx.Done():
			return
		}
	}
}

func processScheduledTasks(ctx context.Context, db *gorm.DB, cache *services.RedisCache) {
	var pendingTasks []models.ScheduledTask
	now := time.Now()
	if err := db.Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, now).Find(&pendingTasks).Error; err != nil {
		logrus.Errorf("Error fetching pending tasks: %v", err)
		return
	}

	if len(pendingTasks) == 0 {
		return
	}

	logrus.Infof("Found %d pending tasks", len(pendingTasks))

	for _, task := range pendingTasks {
		if ctx.Err() != nil {
			return
		}

		// A per-task lock keeps concurrent workers (or an overlapping
		// slow sweep) from running the same task twice.
		if cache != nil {
			lockKey := "task_lock:" + task.TaskName
			acquired, err := cache.AcquireLock(ctx, lockKey, taskLockTTL)
			if err != nil {
				logrus.Warnf("Lock acquisition failed for %s, skipping this tick: %v", task.TaskName, err)
				continue
			}
			if !acquired {
				logrus.Infof("Task %s is locked by another worker, skipping", task.TaskName)
				continue
			}
			executeTask(ctx, db, task, 1)
			if err := cache.ReleaseLock(ctx, lockKey); err != nil {
				logrus.Warnf("Failed to release lock for %s: %v", task.TaskName, err)
			}
			continue
		}

		executeTask(ctx, db, task, 1)
	}
}

func executeTask(ctx context.Context, db *gorm.DB, task models.ScheduledTask, curAttempt int) {
	logrus.Infof("Processing task %s (id %d, attempt %d)", task.TaskName, task.ID, curAttempt)

	handler, found := tasks.GetHandler(task.TaskName)
	if !found {
		logrus.Errorf("Task handler not found for %s, marking as failure", task.TaskName)
		now := time.Now()
		db.Model(&task).Updates(map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": &now,
		})
		db.Create(&models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           now,
			Status:          "handler_not_found",
			AttemptNumber:   curAttempt,
			Arguments:       task.Arguments,
			Result:          map[string]interface{}{"error": "handler not found"},
		})
		return
	}

	startTime := time.Now()
	result, err := handler(ctx, db, task)
	runtimeMs := int(time.Since(startTime).Milliseconds())

	status := "success"
	resultData := result
	if err != nil {
		status = "failure"
		resultData = map[string]interface{}{"error": err.Error()}
		logrus.Errorf("Task %s failed: %v", task.TaskName, err)
	} else {
		logrus.Infof("Task %s completed", task.TaskName)
	}

	db.Create(&models.ScheduledTaskHistory{
		ScheduledTaskID: task.ID,
		TaskName:        task.TaskName,
		RunAt:           startTime,
		Runtime:         runtimeMs,
		Status:          status,
		AttemptNumber:   curAttempt,
		Arguments:       task.Arguments,
		Result:          resultData,
	})

	taskUpdates := map[string]interface{}{
		"last_run": &startTime,
	}

	if status != "success" {
		if curAttempt < task.MaxAttempt {
			executeTask(ctx, db, task, curAttempt+1)
			return
		}
		taskUpdates["status"] = models.ScheduledTaskStatusFailure
	} else {
		switch task.TaskType {
		case models.ScheduledTaskTypeOneTime:
			taskUpdates["status"] = models.ScheduledTaskStatusDone
		case models.ScheduledTaskTypeRecurring:
			nextDue := task.NextDue()
			// Guard against a stale rrule producing a non-advancing due
			// date, which would re-run the task every tick.
			if nextDue.After(task.Due) {
				taskUpdates["status"] = models.ScheduledTaskStatusActive
				taskUpdates["due"] = nextDue
			} else {
				taskUpdates["status"] = models.ScheduledTaskStatusDone
			}
		}
	}

	db.Model(&task).Updates(taskUpdates)
}
