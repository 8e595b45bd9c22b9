// Package discovery finds the remote logging endpoint with mDNS/DNS-SD.
//
// A logging endpoint advertises the _multisensor-log._tcp service. TXT
// records describe how to reach it:
//
//	proto  transport: "http" (default) or "mqtt"
//	path   HTTP request path (default "/")
//	topic  MQTT topic (mqtt only)
//
// Instances seen on several interfaces are aggregated by instance name and
// reported once with the union of their addresses.
package discovery
