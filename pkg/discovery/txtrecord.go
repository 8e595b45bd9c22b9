package discovery

import (
	"fmt"
	"sort"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeEndpointTXT creates TXT records for a logging endpoint.
func EncodeEndpointTXT(info *EndpointInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	proto := info.Protocol
	if proto == "" {
		proto = ProtocolHTTP
	}
	txt[TXTKeyProtocol] = proto

	if info.Path != "" {
		txt[TXTKeyPath] = info.Path
	}
	if info.Topic != "" {
		txt[TXTKeyTopic] = info.Topic
	}
	return txt
}

// DecodeEndpointTXT parses TXT records of a logging endpoint.
func DecodeEndpointTXT(txt TXTRecordMap) (*EndpointInfo, error) {
	info := &EndpointInfo{
		Protocol: txt[TXTKeyProtocol],
		Path:     txt[TXTKeyPath],
		Topic:    txt[TXTKeyTopic],
	}
	if info.Protocol == "" {
		info.Protocol = ProtocolHTTP
	}

	switch info.Protocol {
	case ProtocolHTTP:
		if info.Path == "" {
			info.Path = "/"
		}
	case ProtocolMQTT:
		if info.Topic == "" {
			return nil, fmt.Errorf("%w: mqtt endpoint without %s", ErrInvalidTXTRecord, TXTKeyTopic)
		}
	default:
		return nil, fmt.Errorf("%w: unknown protocol %q", ErrInvalidTXTRecord, info.Protocol)
	}
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, ok := strings.Cut(s, "=")
		if ok {
			txt[k] = v
		} else if k != "" {
			// Key without value (boolean flag)
			txt[k] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
