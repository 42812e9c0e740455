package tasks

import (
	"context"

	"gorm.io/gorm"

	"charter_backoffice/internal/models"
	"charter_backoffice/internal/services"
)

// ReconcilePaymentLinksTaskDef runs the periodic reconciliation sweep:
// the backstop for webhook events that never arrived.
type ReconcilePaymentLinksTaskDef struct {
	deps Deps
}

// TaskID returns the unique identifier for this task.
func (t *ReconcilePaymentLinksTaskDef) TaskID() string {
	return "reconcile_payment_links"
}

// CreateTask builds the recurring ScheduledTask record for this sweep.
func (t *ReconcilePaymentLinksTaskDef) CreateTask(args map[string]interface{}, due, recurringInterval string) (*models.ScheduledTask, error) {
	parsedDue, err := ParseDue(due)
	if err != nil {
		return nil, err
	}
	return BuildScheduledTask(t.TaskID(), args, parsedDue, &recurringInterval, models.ScheduledTaskTypeRecurring, 1)
}

// HandleExecution runs one sweep over the non-terminal payment links.
func (t *ReconcilePaymentLinksTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	batchSize := t.deps.Config.ReconcileBatchSize
	if raw, ok := task.Arguments["batch_size"].(float64); ok && raw > 0 {
		batchSize = int(raw)
	}

	svc := services.NewPaymentLinkService(
		services.NewGormLinkStore(db),
		t.deps.Provider,
		services.NewBookingService(db),
	)

	report, err := svc.ReconcileLinks(ctx, batchSize)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"checked":     report.Checked,
		"transitions": report.Transitions,
		"no_session":  report.NoSession,
		"failures":    report.Failures,
	}, nil
}
