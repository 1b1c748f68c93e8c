// Package gojob bridges tenant maintenance operations into a go-job queue:
// reloads and rescans enqueue as execution messages, and a runner turns
// dequeued messages back into manager calls. Maintenance jobs never retry; a
// failed reload stays failed until the next scheduled run or an explicit
// request.
package gojob

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-tenants/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

const (
	JobIDReload = "tenants.reload"
	JobIDRescan = "tenants.rescan"
)

// ToExecutionMessage maps a tenant maintenance message to go-job. The tenant
// id travels in the parameters so the runner can recover it.
func ToExecutionMessage(msg *core.MaintenanceMessage) *job.ExecutionMessage {
	if msg == nil {
		return nil
	}
	parameters := copyAnyMap(msg.Parameters)
	if tenantID := strings.TrimSpace(msg.TenantID); tenantID != "" {
		parameters["tenant_id"] = tenantID
	}
	return &job.ExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		Parameters:     parameters,
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
	}
}

// FromExecutionMessage maps a go-job message back into the tenant contract.
func FromExecutionMessage(msg *job.ExecutionMessage) *core.MaintenanceMessage {
	if msg == nil {
		return nil
	}
	out := &core.MaintenanceMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		Parameters:     copyAnyMap(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
	}
	if tenantID, ok := out.Parameters["tenant_id"].(string); ok {
		out.TenantID = strings.TrimSpace(tenantID)
	}
	return out
}

// ReloadMessage builds the maintenance message for a single-tenant reload.
// The idempotency key folds in the tenant id so repeated schedules of the
// same reload coalesce.
func ReloadMessage(tenantID string) *core.MaintenanceMessage {
	tenantID = strings.TrimSpace(tenantID)
	return &core.MaintenanceMessage{
		JobID:          JobIDReload,
		TenantID:       tenantID,
		IdempotencyKey: JobIDReload + ":" + tenantID,
	}
}

// RescanMessage builds the maintenance message for a full source rescan.
func RescanMessage() *core.MaintenanceMessage {
	return &core.MaintenanceMessage{
		JobID:          JobIDRescan,
		IdempotencyKey: JobIDRescan,
	}
}

// MaintenanceService is the slice of the tenant manager the runner needs.
type MaintenanceService interface {
	ReloadTenant(ctx context.Context, host core.HostApp, id string) (*core.TenantContext, error)
	LoadAllTenants(ctx context.Context, host core.HostApp) (core.LoadAllResult, error)
}

// EnqueuerAdapter enqueues tenant maintenance messages on a go-job queue.
type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, msg *core.MaintenanceMessage) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if msg == nil {
		return fmt.Errorf("gojob: maintenance message is required")
	}
	if strings.TrimSpace(msg.JobID) == "" {
		return fmt.Errorf("gojob: job id is required")
	}
	_, err := a.enqueuer.Enqueue(ctx, ToExecutionMessage(msg))
	return err
}

// MaintenanceRunner executes dequeued maintenance messages against the
// tenant manager.
type MaintenanceRunner struct {
	service MaintenanceService
	host    core.HostApp
	logger  core.Logger
}

func NewMaintenanceRunner(service MaintenanceService, host core.HostApp, logger core.Logger) *MaintenanceRunner {
	return &MaintenanceRunner{service: service, host: host, logger: logger}
}

func (r *MaintenanceRunner) Run(ctx context.Context, msg *job.ExecutionMessage) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("gojob: maintenance service is not configured")
	}
	maintenance := FromExecutionMessage(msg)
	if maintenance == nil {
		return fmt.Errorf("gojob: execution message is required")
	}

	switch maintenance.JobID {
	case JobIDReload:
		if maintenance.TenantID == "" {
			return fmt.Errorf("gojob: reload requires a tenant id")
		}
		tenant, err := r.service.ReloadTenant(ctx, r.host, maintenance.TenantID)
		if err != nil {
			return err
		}
		r.info("tenant reload completed", "tenant_id", tenant.ID(), "build_id", tenant.BuildID())
		return nil
	case JobIDRescan:
		result, err := r.service.LoadAllTenants(ctx, r.host)
		if err != nil {
			return err
		}
		r.info("tenant rescan completed",
			"local", result.Local,
			"package", result.Package,
			"failed", result.Failed,
		)
		return nil
	default:
		return fmt.Errorf("gojob: unknown maintenance job %q", maintenance.JobID)
	}
}

func (r *MaintenanceRunner) info(message string, args ...any) {
	if r == nil || r.logger == nil {
		return
	}
	r.logger.Info(message, args...)
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
