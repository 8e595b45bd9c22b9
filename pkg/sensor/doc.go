// Package sensor implements the producers that fold hardware readings into
// the accessory store.
//
// Polling producers (climate, light) run one goroutine each. A cycle reads
// the hardware, publishes the converted value, which notifies observers even
// when it did not change, and ticks one SampleCounter per quantity. A counter
// that reaches its period issues a log request and resets. A failed read
// signals a sensor fault and leaves both store and counters untouched.
//
// The motion producer is interrupt driven. Its interrupt handler only queues
// the pin number; a task goroutine re-reads the pin and does the work.
package sensor
