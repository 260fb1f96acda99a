package gatt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"growbridge/internal/bridge"
)

// State is one step of the bring-up sequence. States only ever advance; any
// failure leaves the bootstrap stuck in its last state and Run returns the
// error.
type State int

const (
	StateIdle State = iota
	StateAdapterFound
	StateAdapterPowered
	StateAdvertisementRegistering
	StateAdvertisementRegistered
	StateApplicationRegistering
	StateApplicationRegistered
	StateAgentRegistered
	StateDefaultAgentRequested
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAdapterFound:
		return "adapter_found"
	case StateAdapterPowered:
		return "adapter_powered"
	case StateAdvertisementRegistering:
		return "advertisement_registering"
	case StateAdvertisementRegistered:
		return "advertisement_registered"
	case StateApplicationRegistering:
		return "application_registering"
	case StateApplicationRegistered:
		return "application_registered"
	case StateAgentRegistered:
		return "agent_registered"
	case StateDefaultAgentRequested:
		return "default_agent_requested"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Bootstrap brings the peripheral up against BlueZ. There is no retry or
// degraded mode: a failed step is fatal and the process is expected to exit.
type Bootstrap struct {
	bus    Bus
	app    *Application
	adv    *Advertisement
	agent  *Agent
	events *bridge.EventBus
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

func NewBootstrap(bus Bus, app *Application, adv *Advertisement, agent *Agent, events *bridge.EventBus, logger *slog.Logger) *Bootstrap {
	return &Bootstrap{
		bus:    bus,
		app:    app,
		adv:    adv,
		agent:  agent,
		events: events,
		logger: logger,
		state:  StateIdle,
	}
}

// State returns the current bring-up state.
func (b *Bootstrap) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bootstrap) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
	b.logger.Info("bootstrap", "state", s.String())
	if b.events != nil {
		b.events.Emit(bridge.Event{Type: bridge.EventBridgeState, Data: map[string]string{"state": s.String()}})
	}
}

// Run walks the bring-up sequence to completion. On return with nil the
// peripheral is advertising and serving; on error the last reached state is
// preserved for inspection.
func (b *Bootstrap) Run(ctx context.Context) error {
	adapter, err := FindAdapter(b.bus)
	if err != nil {
		return fmt.Errorf("find adapter: %w", err)
	}
	b.setState(StateAdapterFound)

	adapterObj := b.bus.Object(bluezService, adapter)
	if err := adapterObj.SetProperty(adapterIface+".Powered", dbus.MakeVariant(true)); err != nil {
		return fmt.Errorf("power adapter %s: %w", adapter, err)
	}
	b.setState(StateAdapterPowered)

	if err := b.adv.Export(b.bus); err != nil {
		return fmt.Errorf("export advertisement: %w", err)
	}
	if err := b.app.Export(b.bus); err != nil {
		return fmt.Errorf("export application: %w", err)
	}
	if err := b.agent.Export(b.bus); err != nil {
		return fmt.Errorf("export agent: %w", err)
	}

	// Both registrations are asynchronous on the BlueZ side; the reply
	// lands in the call's mailbox channel.
	b.setState(StateAdvertisementRegistering)
	advCh := make(chan *dbus.Call, 1)
	adapterObj.Go(advManagerIface+".RegisterAdvertisement", 0, advCh, b.adv.Path(), map[string]dbus.Variant{})
	if err := waitOutcome(ctx, advCh); err != nil {
		return fmt.Errorf("register advertisement: %w", err)
	}
	b.setState(StateAdvertisementRegistered)

	b.setState(StateApplicationRegistering)
	appCh := make(chan *dbus.Call, 1)
	adapterObj.Go(gattManagerIface+".RegisterApplication", 0, appCh, b.app.Path(), map[string]dbus.Variant{})
	if err := waitOutcome(ctx, appCh); err != nil {
		return fmt.Errorf("register application: %w", err)
	}
	b.setState(StateApplicationRegistered)

	rootObj := b.bus.Object(bluezService, bluezRoot)
	call := rootObj.CallWithContext(ctx, agentManagerIface+".RegisterAgent", 0, b.agent.Path(), AgentCapability)
	if call.Err != nil {
		return fmt.Errorf("register agent: %w", call.Err)
	}
	b.setState(StateAgentRegistered)

	call = rootObj.CallWithContext(ctx, agentManagerIface+".RequestDefaultAgent", 0, b.agent.Path())
	if call.Err != nil {
		return fmt.Errorf("request default agent: %w", call.Err)
	}
	b.setState(StateDefaultAgentRequested)

	b.setState(StateRunning)
	return nil
}

func waitOutcome(ctx context.Context, ch chan *dbus.Call) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case call := <-ch:
		return call.Err
	}
}
