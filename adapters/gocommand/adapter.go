// Package gocommand plugs the tenant command and query handlers into the
// go-command registry and dispatcher, so hosts drive tenant operations
// through message dispatch instead of holding the manager directly.
package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	tenantscommand "github.com/goliatone/go-tenants/command"
	tenantsquery "github.com/goliatone/go-tenants/query"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract
// before a tenant message reaches the dispatcher.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

// RegistryAdapter wraps a go-command registry so tenant handlers and queue
// resolvers register through one surface.
type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

// AddQueueResolver routes matching messages to a go-job queue, which is how
// maintenance commands reach the scheduled worker instead of running inline.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

// RegisterAndSubscribe registers a command handler and subscribes it on the
// dispatcher; a registration failure undoes the subscription.
func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// RegisterAndSubscribeQuery is the query-side counterpart.
func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// TenantCommandSet holds the mutating tenant handlers to wire at startup.
type TenantCommandSet struct {
	LoadTenant     *tenantscommand.LoadTenantCommand
	LoadAllTenants *tenantscommand.LoadAllTenantsCommand
	ReloadTenant   *tenantscommand.ReloadTenantCommand
	UnloadTenant   *tenantscommand.UnloadTenantCommand
}

// TenantQuerySet holds the read-side tenant handlers to wire at startup.
type TenantQuerySet struct {
	GetTenant       *tenantsquery.GetTenantQuery
	ListTenants     *tenantsquery.ListTenantsQuery
	GetStats        *tenantsquery.GetStatsQuery
	ResolveTenantID *tenantsquery.ResolveTenantIDQuery
}

// RegisterTenantCommands registers and subscribes every non-nil mutating
// handler, returning the subscriptions in registration order. On failure the
// subscriptions made so far are torn down.
func RegisterTenantCommands(adapter *RegistryAdapter, set TenantCommandSet, runnerOpts ...runner.Option) ([]commanddispatcher.Subscription, error) {
	var subs []commanddispatcher.Subscription

	fail := func(err error) ([]commanddispatcher.Subscription, error) {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
		return nil, err
	}

	if set.LoadTenant != nil {
		sub, err := RegisterAndSubscribe(adapter, set.LoadTenant, runnerOpts...)
		if err != nil {
			return fail(err)
		}
		subs = append(subs, sub)
	}
	if set.LoadAllTenants != nil {
		sub, err := RegisterAndSubscribe(adapter, set.LoadAllTenants, runnerOpts...)
		if err != nil {
			return fail(err)
		}
		subs = append(subs, sub)
	}
	if set.ReloadTenant != nil {
		sub, err := RegisterAndSubscribe(adapter, set.ReloadTenant, runnerOpts...)
		if err != nil {
			return fail(err)
		}
		subs = append(subs, sub)
	}
	if set.UnloadTenant != nil {
		sub, err := RegisterAndSubscribe(adapter, set.UnloadTenant, runnerOpts...)
		if err != nil {
			return fail(err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// RegisterTenantQueries registers and subscribes every non-nil read-side
// handler, returning the subscriptions in registration order. On failure the
// subscriptions made so far are torn down.
func RegisterTenantQueries(adapter *RegistryAdapter, set TenantQuerySet, runnerOpts ...runner.Option) ([]commanddispatcher.Subscription, error) {
	var subs []commanddispatcher.Subscription

	fail := func(err error) ([]commanddispatcher.Subscription, error) {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
		return nil, err
	}

	if set.GetTenant != nil {
		sub, err := RegisterAndSubscribeQuery(adapter, set.GetTenant, runnerOpts...)
		if err != nil {
			return fail(err)
		}
		subs = append(subs, sub)
	}
	if set.ListTenants != nil {
		sub, err := RegisterAndSubscribeQuery(adapter, set.ListTenants, runnerOpts...)
		if err != nil {
			return fail(err)
		}
		subs = append(subs, sub)
	}
	if set.GetStats != nil {
		sub, err := RegisterAndSubscribeQuery(adapter, set.GetStats, runnerOpts...)
		if err != nil {
			return fail(err)
		}
		subs = append(subs, sub)
	}
	if set.ResolveTenantID != nil {
		sub, err := RegisterAndSubscribeQuery(adapter, set.ResolveTenantID, runnerOpts...)
		if err != nil {
			return fail(err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
