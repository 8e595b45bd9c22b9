package dispatch

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxCommandLen bounds a rendered command in bytes.
const MaxCommandLen = 150

// Table is a remote log table.
type Table uint8

const (
	TableTemperature Table = iota + 1
	TableHumidity
	TableLight
	TableMotion
)

type tableSchema struct {
	name     string
	nameCol  string
	valueCol string
}

var schemas = map[Table]tableSchema{
	TableTemperature: {"temperaturesensorlog", "TemperatureSensorName", "Temperature"},
	TableHumidity:    {"humiditysensorlog", "HumiditySensorName", "Humidity"},
	TableLight:       {"lightsensorlog", "LightSensorName", "LightLevel"},
	TableMotion:      {"motionsensorlog", "MotionSensorName", "MotionDetectionState"},
}

// String returns the table name without the schema prefix.
func (t Table) String() string {
	if s, ok := schemas[t]; ok {
		return s.name
	}
	return "unknown"
}

// Request is one row to insert into a remote log table.
type Request struct {
	Table     Table
	Accessory string
	Value     float64
}

// MotionRequest builds a motion log request: 1 for started, 0 for stopped.
func MotionRequest(accessory string, detected bool) Request {
	r := Request{Table: TableMotion, Accessory: accessory}
	if detected {
		r.Value = 1
	}
	return r
}

// Command renders the request as a form-encoded insert statement, e.g.
//
//	sql=insert into homekit.temperaturesensorlog (TemperatureSensorName, Temperature) values ('Multi-Sensor-1A2B3C', 21.500000)
//
// Single quotes in the accessory name are doubled. The result is cut to
// MaxCommandLen bytes on a rune boundary.
func (r Request) Command() string {
	s, ok := schemas[r.Table]
	if !ok {
		return ""
	}

	name := strings.ReplaceAll(r.Accessory, "'", "''")

	var value string
	if r.Table == TableMotion {
		value = "0"
		if r.Value != 0 {
			value = "1"
		}
	} else {
		value = fmt.Sprintf("%f", r.Value)
	}

	cmd := fmt.Sprintf("sql=insert into homekit.%s (%s, %s) values ('%s', %s)",
		s.name, s.nameCol, s.valueCol, name, value)
	return truncate(cmd, MaxCommandLen)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
