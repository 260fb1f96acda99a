package bridge

import (
	"log/slog"

	"growbridge/internal/backend"
	"growbridge/internal/codec"
	"growbridge/internal/store"
)

// ServiceUUID is the primary GATT service the bridge advertises.
const ServiceUUID = "00001802-0000-1000-8000-00805f9b38fb"

// Characteristic UUIDs, one per exposed attribute.
const (
	UUIDFan                 = "304cf226-411e-11eb-b378-0242ac130002"
	UUIDLight               = "00002a06-0000-1000-8000-00805f9b34fe"
	UUIDLightControl        = "00002a06-0000-1000-8000-00805f9b35fe"
	UUIDTemperature         = "00002a06-0000-1000-8000-00805f9b34fc"
	UUIDTemperatureSetpoint = "00002a06-0000-1000-8000-00805f9b36fc"
	UUIDHumidity            = "00002a06-0000-1000-8000-00805f9b34fd"
	UUIDHumiditySetpoint    = "00002a06-0000-1000-8000-00805f9b35fd"
)

// Config controls which attributes the service exposes.
type Config struct {
	// EnableFan exposes the REST-backed fan characteristic. Off by default:
	// boxes without the fan REST endpoint would otherwise serve a
	// permanently UNKNOWN characteristic.
	EnableFan bool
}

// Deps are the collaborators attributes are built from.
type Deps struct {
	REST   backend.Client
	RPC    backend.Client
	Store  store.Store
	Events *EventBus
	Logger *slog.Logger
}

// Service is the attribute tree exposed over GATT.
type Service struct {
	UUID       string
	Attributes []Attribute
}

// NewService builds the grow-box attribute tree in its fixed wire order.
func NewService(cfg Config, deps Deps) *Service {
	svc := &Service{UUID: ServiceUUID}

	base := func(uuid, name, description string, flags ...string) attrBase {
		return attrBase{
			uuid:        uuid,
			name:        name,
			description: description,
			flags:       flags,
			logger:      deps.Logger.With("attribute", name),
			events:      deps.Events,
			store:       deps.Store,
		}
	}

	if cfg.EnableFan {
		fan := &fanAttribute{
			attrBase: base(UUIDFan, "fan", "Get/set machine fan state {'ON', 'OFF', 'UNKNOWN'}", FlagRead, FlagWrite),
			client:   deps.REST,
		}
		fan.restore()
		if fan.value == nil {
			fan.value = codec.EncodeFanState(codec.FanUnknown)
		}
		svc.Attributes = append(svc.Attributes, fan)
	}

	light := &scalarAttribute{
		attrBase: base(UUIDLight, "light", "Get light level", FlagRead),
		client:   deps.RPC,
		field:    func(st *backend.Status) float64 { return st.Light },
	}
	light.restore()

	lightControl := &lightControlAttribute{
		attrBase: base(UUIDLightControl, "light_control", "Set light light state can be `on` or `off`", FlagRead, FlagWrite),
		client:   deps.RPC,
	}
	lightControl.restore()
	// The stored value is the raw state byte, not the ASCII digit of the
	// write payload.
	if v := lightControl.value; len(v) == 1 && v[0] <= 2 {
		lightControl.last = v[0]
	}

	temperature := &scalarAttribute{
		attrBase: base(UUIDTemperature, "temperature", "Get temperature", FlagRead),
		client:   deps.RPC,
		field:    func(st *backend.Status) float64 { return st.Temperature },
	}
	temperature.restore()

	temperatureSetpoint := &floatSetpointAttribute{
		attrBase: base(UUIDTemperatureSetpoint, "temperature_setpoint", "Get/set temperature setpoint", FlagRead, FlagWrite),
		client:   deps.RPC,
		field:    func(st *backend.Status) float64 { return st.TemperatureSetpoint },
		command:  "temperature_setpoint",
	}
	temperatureSetpoint.restore()

	humidity := &scalarAttribute{
		attrBase: base(UUIDHumidity, "humidity", "Get humidity", FlagRead),
		client:   deps.RPC,
		field:    func(st *backend.Status) float64 { return st.Humidity },
	}
	humidity.restore()

	humiditySetpoint := &intSetpointAttribute{
		attrBase: base(UUIDHumiditySetpoint, "humidity_setpoint", "Get/set humidity setpoint", FlagRead, FlagWrite),
		client:   deps.RPC,
		field:    func(st *backend.Status) float64 { return st.HumiditySetpoint },
		command:  "humidity_setpoint",
	}
	humiditySetpoint.restore()

	svc.Attributes = append(svc.Attributes,
		light,
		lightControl,
		temperature,
		temperatureSetpoint,
		humidity,
		humiditySetpoint,
	)
	return svc
}

// Attribute returns the attribute with the given name, or nil.
func (s *Service) Attribute(name string) Attribute {
	for _, a := range s.Attributes {
		if a.Name() == name {
			return a
		}
	}
	return nil
}
