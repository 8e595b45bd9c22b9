package dispatch

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestRequestCommand(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "temperature",
			req:  Request{Table: TableTemperature, Accessory: "Multi-Sensor-1A2B3C", Value: 21.5},
			want: "sql=insert into homekit.temperaturesensorlog (TemperatureSensorName, Temperature) values ('Multi-Sensor-1A2B3C', 21.500000)",
		},
		{
			name: "humidity",
			req:  Request{Table: TableHumidity, Accessory: "Multi-Sensor-1A2B3C", Value: 40},
			want: "sql=insert into homekit.humiditysensorlog (HumiditySensorName, Humidity) values ('Multi-Sensor-1A2B3C', 40.000000)",
		},
		{
			name: "light",
			req:  Request{Table: TableLight, Accessory: "MS", Value: 724},
			want: "sql=insert into homekit.lightsensorlog (LightSensorName, LightLevel) values ('MS', 724.000000)",
		},
		{
			name: "motion started",
			req:  MotionRequest("MS", true),
			want: "sql=insert into homekit.motionsensorlog (MotionSensorName, MotionDetectionState) values ('MS', 1)",
		},
		{
			name: "motion stopped",
			req:  MotionRequest("MS", false),
			want: "sql=insert into homekit.motionsensorlog (MotionSensorName, MotionDetectionState) values ('MS', 0)",
		},
		{
			name: "quote escaped",
			req:  MotionRequest("Bob's", true),
			want: "sql=insert into homekit.motionsensorlog (MotionSensorName, MotionDetectionState) values ('Bob''s', 1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Command())
		})
	}
}

func TestRequestCommandUnknownTable(t *testing.T) {
	assert.Empty(t, Request{Table: Table(42)}.Command())
	assert.Equal(t, "unknown", Table(42).String())
}

func TestRequestCommandBounded(t *testing.T) {
	long := Request{Table: TableTemperature, Accessory: strings.Repeat("é", 100), Value: 1}
	cmd := long.Command()

	assert.LessOrEqual(t, len(cmd), MaxCommandLen)
	assert.True(t, utf8.ValidString(cmd))
	assert.True(t, strings.HasPrefix(cmd, "sql=insert into homekit.temperaturesensorlog"))
}

func TestTableString(t *testing.T) {
	assert.Equal(t, "temperaturesensorlog", TableTemperature.String())
	assert.Equal(t, "humiditysensorlog", TableHumidity.String())
	assert.Equal(t, "lightsensorlog", TableLight.String())
	assert.Equal(t, "motionsensorlog", TableMotion.String())
}
