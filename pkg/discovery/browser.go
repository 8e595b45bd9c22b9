package discovery

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// BrowseFunc runs a DNS-SD browse, delivering entries until ctx is done.
// It matches zeroconf.Browse without options.
type BrowseFunc func(ctx context.Context, service, domain string, entries, removed chan<- *zeroconf.ServiceEntry) error

// BrowserConfig configures a Browser.
type BrowserConfig struct {
	// Timeout bounds Find (default: BrowseTimeout).
	Timeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// Browse replaces the zeroconf browse, for tests.
	Browse BrowseFunc

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Browser discovers logging endpoints.
type Browser struct {
	config BrowserConfig
	logger *slog.Logger
}

// NewBrowser creates a browser.
func NewBrowser(config BrowserConfig) *Browser {
	if config.Timeout <= 0 {
		config.Timeout = BrowseTimeout
	}
	b := &Browser{config: config, logger: config.Logger}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	if b.config.Browse == nil {
		b.config.Browse = b.zeroconfBrowse
	}
	return b
}

// Browse reports logging endpoints until ctx is cancelled. Entries are
// aggregated by instance name; an instance is emitted once when first seen.
func (b *Browser) Browse(ctx context.Context) (<-chan *Endpoint, error) {
	out := make(chan *Endpoint)

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)

		endpoints := make(map[string]*Endpoint)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				ep := b.entryToEndpoint(entry)
				if ep == nil {
					continue
				}

				if existing, found := endpoints[ep.InstanceName]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, ep.Addresses)
					continue
				}
				endpoints[ep.InstanceName] = ep
				b.logger.Debug("found log endpoint", "instance", ep.InstanceName, "host", ep.Host, "port", ep.Port)

				select {
				case out <- ep:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				if existing, found := endpoints[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entry)
					if len(existing.Addresses) == 0 {
						delete(endpoints, entry.Instance)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		if err := b.config.Browse(ctx, ServiceTypeLog, Domain, entries, removed); err != nil {
			b.logger.Warn("mdns browse failed", "error", err)
		}
	}()

	return out, nil
}

// Find returns the first endpoint speaking protocol ("" accepts any), or
// ErrNotFound when none appears within the configured timeout.
func (b *Browser) Find(ctx context.Context, protocol string) (*Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	results, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	for {
		select {
		case ep, ok := <-results:
			if !ok {
				return nil, ErrNotFound
			}
			if protocol == "" || ep.Protocol == protocol {
				return ep, nil
			}
		case <-ctx.Done():
			return nil, ErrNotFound
		}
	}
}

func (b *Browser) zeroconfBrowse(ctx context.Context, service, domain string, entries, removed chan<- *zeroconf.ServiceEntry) error {
	var opts []zeroconf.ClientOption
	if b.config.Interface != "" {
		if iface, err := net.InterfaceByName(b.config.Interface); err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return zeroconf.Browse(ctx, service, domain, entries, removed, opts...)
}

// entryToEndpoint converts a zeroconf entry, or returns nil when its TXT
// records do not describe a usable endpoint.
func (b *Browser) entryToEndpoint(entry *zeroconf.ServiceEntry) *Endpoint {
	info, err := DecodeEndpointTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		b.logger.Debug("ignoring log endpoint", "instance", entry.Instance, "error", err)
		return nil
	}

	return &Endpoint{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         uint16(entry.Port),
		Addresses:    entryAddresses(entry),
		EndpointInfo: *info,
	}
}

func entryAddresses(entry *zeroconf.ServiceEntry) []string {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range added {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses removes the addresses of a zeroconf entry from the list.
func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	toRemove := make(map[string]bool)
	for _, addr := range entryAddresses(entry) {
		toRemove[addr] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}
