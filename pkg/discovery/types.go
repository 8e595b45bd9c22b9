package discovery

import (
	"errors"
	"net"
	"strconv"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceTypeLog is the service type of remote logging endpoints.
	ServiceTypeLog = "_multisensor-log._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is used when an entry carries no port.
	DefaultPort = 80

	// BrowseTimeout is the default timeout for Find.
	BrowseTimeout = 5 * time.Second

	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyProtocol = "proto"
	TXTKeyPath     = "path"
	TXTKeyTopic    = "topic"
)

// Endpoint protocols.
const (
	ProtocolHTTP = "http"
	ProtocolMQTT = "mqtt"
)

// Discovery errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotFound            = errors.New("service not found")
)

// EndpointInfo is what a logging endpoint advertises.
type EndpointInfo struct {
	Protocol string
	Path     string
	Topic    string
}

// Endpoint is a discovered logging endpoint.
type Endpoint struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string
	EndpointInfo
}

// HostPort returns the first address joined with the port, falling back to
// the host name.
func (e *Endpoint) HostPort() string {
	host := e.Host
	if len(e.Addresses) > 0 {
		host = e.Addresses[0]
	}
	port := e.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(int(port)))
}

// URL returns the HTTP URL of the endpoint.
func (e *Endpoint) URL() string {
	path := e.Path
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	return "http://" + e.HostPort() + path
}
