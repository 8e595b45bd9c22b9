package discovery

import (
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// Advertiser announces a logging endpoint.
type Advertiser struct {
	mu     sync.Mutex
	server *zeroconf.Server
}

// Advertise starts announcing the endpoint under instance, replacing any
// previous announcement. ifaces nil means all interfaces.
func (a *Advertiser) Advertise(instance string, port int, info *EndpointInfo, ifaces []net.Interface) error {
	if err := ValidateInstanceName(instance); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	server, err := zeroconf.Register(
		instance,
		ServiceTypeLog,
		Domain,
		port,
		TXTRecordsToStrings(EncodeEndpointTXT(info)),
		ifaces,
	)
	if err != nil {
		return fmt.Errorf("failed to register log endpoint: %w", err)
	}
	a.server = server
	return nil
}

// Stop withdraws the announcement.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
