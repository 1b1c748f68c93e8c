package gojob

import (
	"context"
	"errors"
	"testing"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"

	"github.com/goliatone/go-tenants/core"
)

type stubEnqueuer struct {
	messages []*job.ExecutionMessage
	err      error
}

func (s *stubEnqueuer) Enqueue(ctx context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	if s.err != nil {
		return queue.EnqueueReceipt{}, s.err
	}
	s.messages = append(s.messages, msg)
	return queue.EnqueueReceipt{}, nil
}

type stubMaintenanceService struct {
	reloadedID string
	rescans    int
	reloadErr  error
}

func (s *stubMaintenanceService) ReloadTenant(ctx context.Context, host core.HostApp, id string) (*core.TenantContext, error) {
	if s.reloadErr != nil {
		return nil, s.reloadErr
	}
	s.reloadedID = id
	return core.NewTenantContext(id, core.SourceKindLocal, core.TenantConfig{"id": id, "source": id})
}

func (s *stubMaintenanceService) LoadAllTenants(ctx context.Context, host core.HostApp) (core.LoadAllResult, error) {
	s.rescans++
	return core.LoadAllResult{Local: 2}, nil
}

func TestExecutionMessageRoundTrip(t *testing.T) {
	original := ReloadMessage("acme")
	original.Parameters = map[string]any{"requested_by": "ops"}

	wire := ToExecutionMessage(original)
	if wire.JobID != JobIDReload {
		t.Fatalf("unexpected job id %q", wire.JobID)
	}
	if wire.Parameters["tenant_id"] != "acme" {
		t.Fatalf("tenant id must travel in parameters: %v", wire.Parameters)
	}
	if wire.IdempotencyKey != JobIDReload+":acme" {
		t.Fatalf("unexpected idempotency key %q", wire.IdempotencyKey)
	}

	back := FromExecutionMessage(wire)
	if back.TenantID != "acme" {
		t.Fatalf("expected tenant id to round-trip, got %q", back.TenantID)
	}
	if back.Parameters["requested_by"] != "ops" {
		t.Fatalf("expected parameters to round-trip: %v", back.Parameters)
	}
}

func TestEnqueuerAdapter(t *testing.T) {
	sink := &stubEnqueuer{}
	adapter := NewEnqueuerAdapter(sink)

	if err := adapter.Enqueue(context.Background(), ReloadMessage("acme")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(sink.messages) != 1 || sink.messages[0].JobID != JobIDReload {
		t.Fatalf("unexpected enqueued messages %v", sink.messages)
	}

	if err := adapter.Enqueue(context.Background(), nil); err == nil {
		t.Fatalf("expected nil message rejection")
	}
	if err := adapter.Enqueue(context.Background(), &core.MaintenanceMessage{}); err == nil {
		t.Fatalf("expected missing job id rejection")
	}
	if err := (&EnqueuerAdapter{}).Enqueue(context.Background(), ReloadMessage("acme")); err == nil {
		t.Fatalf("expected unconfigured enqueuer rejection")
	}
}

func TestMaintenanceRunner_Reload(t *testing.T) {
	svc := &stubMaintenanceService{}
	runner := NewMaintenanceRunner(svc, nil, nil)

	if err := runner.Run(context.Background(), ToExecutionMessage(ReloadMessage("acme"))); err != nil {
		t.Fatalf("run reload: %v", err)
	}
	if svc.reloadedID != "acme" {
		t.Fatalf("expected reload of acme, got %q", svc.reloadedID)
	}

	if err := runner.Run(context.Background(), &job.ExecutionMessage{JobID: JobIDReload}); err == nil {
		t.Fatalf("expected missing tenant id rejection")
	}
}

func TestMaintenanceRunner_Rescan(t *testing.T) {
	svc := &stubMaintenanceService{}
	runner := NewMaintenanceRunner(svc, nil, nil)

	if err := runner.Run(context.Background(), ToExecutionMessage(RescanMessage())); err != nil {
		t.Fatalf("run rescan: %v", err)
	}
	if svc.rescans != 1 {
		t.Fatalf("expected one rescan, got %d", svc.rescans)
	}
}

func TestMaintenanceRunner_Failures(t *testing.T) {
	boom := errors.New("reload failed")
	runner := NewMaintenanceRunner(&stubMaintenanceService{reloadErr: boom}, nil, nil)

	if err := runner.Run(context.Background(), ToExecutionMessage(ReloadMessage("acme"))); !errors.Is(err, boom) {
		t.Fatalf("expected reload error, got %v", err)
	}
	if err := runner.Run(context.Background(), &job.ExecutionMessage{JobID: "tenants.unknown"}); err == nil {
		t.Fatalf("expected unknown job rejection")
	}
	if err := runner.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected nil message rejection")
	}
}
