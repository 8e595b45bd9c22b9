// Package board binds the hal interfaces to microcontroller peripherals.
//
// Everything except this file requires the tinygo build tag. The DHT22
// driver comes from tinygo.org/x/drivers; pins and the ADC use the machine
// package directly.
package board
