package model

// Service names.
const (
	ServiceLight       = "lightSensor"
	ServiceMotion      = "motionSensor"
	ServiceTemperature = "temperatureSensor"
	ServiceHumidity    = "humiditySensor"
)

// Characteristic names.
const (
	CharAmbientLight     = "currentAmbientLightLevel"
	CharStatusActive     = "statusActive"
	CharMotionDetected   = "motionDetected"
	CharTemperature      = "currentTemperature"
	CharRelativeHumidity = "currentRelativeHumidity"
)

// Characteristic paths for Accessory.Lookup.
const (
	PathAmbientLight     = ServiceLight + "/" + CharAmbientLight
	PathStatusActive     = ServiceLight + "/" + CharStatusActive
	PathMotionDetected   = ServiceMotion + "/" + CharMotionDetected
	PathTemperature      = ServiceTemperature + "/" + CharTemperature
	PathRelativeHumidity = ServiceHumidity + "/" + CharRelativeHumidity
)

// SensorSet holds direct references to the characteristics of a
// multi-sensor accessory.
type SensorSet struct {
	AmbientLight     *Characteristic
	StatusActive     *Characteristic
	MotionDetected   *Characteristic
	Temperature      *Characteristic
	RelativeHumidity *Characteristic
}

// NewMultiSensorAccessory builds the fixed light, motion, temperature and
// humidity service set.
func NewMultiSensorAccessory(info Info) (*Accessory, *SensorSet) {
	set := &SensorSet{
		AmbientLight: NewCharacteristic(&Metadata{
			Name:        CharAmbientLight,
			Format:      FormatFloat,
			MinValue:    Bound(0),
			Unit:        "lux",
			Description: "Inverted light-dependent resistor reading",
		}),
		StatusActive: NewCharacteristic(&Metadata{
			Name:    CharStatusActive,
			Format:  FormatBool,
			Default: true,
		}),
		MotionDetected: NewCharacteristic(&Metadata{
			Name:   CharMotionDetected,
			Format: FormatBool,
		}),
		Temperature: NewCharacteristic(&Metadata{
			Name:     CharTemperature,
			Format:   FormatFloat,
			MinValue: Bound(-270),
			MaxValue: Bound(100),
			Unit:     "celsius",
		}),
		RelativeHumidity: NewCharacteristic(&Metadata{
			Name:     CharRelativeHumidity,
			Format:   FormatFloat,
			MinValue: Bound(0),
			MaxValue: Bound(100),
			Unit:     "percentage",
		}),
	}

	light := NewService(ServiceLight, true)
	_ = light.AddCharacteristic(set.AmbientLight)
	_ = light.AddCharacteristic(set.StatusActive)

	motion := NewService(ServiceMotion, false)
	_ = motion.AddCharacteristic(set.MotionDetected)

	temp := NewService(ServiceTemperature, false)
	_ = temp.AddCharacteristic(set.Temperature)

	hum := NewService(ServiceHumidity, false)
	_ = hum.AddCharacteristic(set.RelativeHumidity)

	acc := NewAccessory(info)
	_ = acc.AddService(light)
	_ = acc.AddService(motion)
	_ = acc.AddService(temp)
	_ = acc.AddService(hum)

	return acc, set
}
