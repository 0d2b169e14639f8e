package probe

import "github.com/statusbeacon/engine/internal/monitoring/models"

// Registry maps a monitor type to the prober that knows how to execute it.
type Registry struct {
	probers map[models.MonitorType]Prober
}

// NewRegistry builds the standard registry of HTTP/TCP/WebSocket/DNS/Ping
// probers.
func NewRegistry() *Registry {
	return &Registry{
		probers: map[models.MonitorType]Prober{
			models.MonitorHTTP:      NewHTTPProber(),
			models.MonitorTCP:       NewTCPProber(),
			models.MonitorWebSocket: NewWebSocketProber(),
			models.MonitorDNS:       NewDNSProber(),
			models.MonitorPing:      NewPingProber(),
		},
	}
}

// Lookup returns the prober for a monitor type, or false if the type is
// unknown.
func (r *Registry) Lookup(t models.MonitorType) (Prober, bool) {
	p, ok := r.probers[t]
	return p, ok
}

// Register adds or overrides the prober for a monitor type.
func (r *Registry) Register(t models.MonitorType, p Prober) {
	r.probers[t] = p
}
