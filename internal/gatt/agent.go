package gatt

import (
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// AgentCapability is the io capability announced to BlueZ. NoInputNoOutput
// makes pairing proceed without any user interaction.
const AgentCapability = "NoInputNoOutput"

// Agent implements org.bluez.Agent1 for unattended pairing. Every request
// is accepted.
type Agent struct {
	path   dbus.ObjectPath
	logger *slog.Logger
}

func NewAgent(logger *slog.Logger) *Agent {
	return &Agent{path: AppPath + "/agent0", logger: logger}
}

// Path returns the agent's object path.
func (a *Agent) Path() dbus.ObjectPath { return a.path }

// Export registers the agent on the bus.
func (a *Agent) Export(bus Bus) error {
	return bus.Export(a, a.path, agentIface)
}

func (a *Agent) Release() *dbus.Error {
	a.logger.Info("agent released")
	return nil
}

func (a *Agent) RequestPinCode(device dbus.ObjectPath) (string, *dbus.Error) {
	a.logger.Debug("pin code requested", "device", device)
	return "0000", nil
}

func (a *Agent) DisplayPinCode(device dbus.ObjectPath, pincode string) *dbus.Error {
	a.logger.Debug("display pin code", "device", device)
	return nil
}

func (a *Agent) RequestPasskey(device dbus.ObjectPath) (uint32, *dbus.Error) {
	a.logger.Debug("passkey requested", "device", device)
	return 0, nil
}

func (a *Agent) DisplayPasskey(device dbus.ObjectPath, passkey uint32, entered uint16) *dbus.Error {
	a.logger.Debug("display passkey", "device", device)
	return nil
}

func (a *Agent) RequestConfirmation(device dbus.ObjectPath, passkey uint32) *dbus.Error {
	a.logger.Debug("confirmation accepted", "device", device)
	return nil
}

func (a *Agent) RequestAuthorization(device dbus.ObjectPath) *dbus.Error {
	a.logger.Debug("authorization accepted", "device", device)
	return nil
}

func (a *Agent) AuthorizeService(device dbus.ObjectPath, uuid string) *dbus.Error {
	a.logger.Debug("service authorized", "device", device, "uuid", uuid)
	return nil
}

func (a *Agent) Cancel() *dbus.Error {
	a.logger.Debug("pairing request canceled")
	return nil
}
