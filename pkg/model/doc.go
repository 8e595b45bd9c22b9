// Package model implements the accessory state store.
//
// # Hierarchy
//
// The store uses the same 3-level hierarchy as the accessory protocol:
//
//	Accessory > Service > Characteristic
//
// An Accessory is the bridge itself. It holds Services, one per sensing
// function, and each Service holds the Characteristics clients can read and
// subscribe to:
//
//	Accessory (Multi-Sensor-1A2B3C)
//	├── lightSensor
//	│   ├── currentAmbientLightLevel
//	│   └── statusActive
//	├── motionSensor
//	│   └── motionDetected
//	├── temperatureSensor
//	│   └── currentTemperature
//	└── humiditySensor
//	    └── currentRelativeHumidity
//
// The set of characteristics is fixed when the accessory is built and never
// shrinks at runtime.
//
// # Concurrency
//
// Each Characteristic carries its own lock. A characteristic has exactly one
// writer (the producer owning the physical quantity) and any number of
// readers, so no store-wide lock exists. Observers run on the writer's
// goroutine after the lock is released.
//
// # Notifications
//
// SetValue notifies observers only when the stored value changes. Publish
// stores and notifies unconditionally, which producers use to give
// subscribers a steady heartbeat.
package model
