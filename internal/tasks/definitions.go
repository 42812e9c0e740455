package tasks

import (
	"charter_backoffice/internal/config"
	"charter_backoffice/internal/services"
)

// Deps carries the collaborators the background tasks need. Built once
// in the worker main and passed in, so tests can substitute fakes.
type Deps struct {
	Config   config.Config
	Provider services.PaymentProvider
	Email    services.EmailSender
	SMS      *services.SMSService
}

// DefineTasks registers all available tasks.
func DefineTasks(deps Deps) {
	reconcile := &ReconcilePaymentLinksTaskDef{deps: deps}
	RegisterHandler(reconcile.TaskID(), reconcile.HandleExecution)

	reminder := &PaymentReminderTaskDef{deps: deps}
	RegisterHandler(reminder.TaskID(), reminder.HandleExecution)

	confirmation := &SendBookingConfirmationTaskDef{deps: deps}
	RegisterHandler(confirmation.TaskID(), confirmation.HandleExecution)
}
