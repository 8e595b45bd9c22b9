//go:build !tinygo

// Command multisensor-pico is the microcontroller build of the sensor
// bridge. Build it with tinygo; see main.go.
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "multisensor-pico must be built with tinygo, e.g. tinygo flash -target=pico ./cmd/multisensor-pico")
	os.Exit(2)
}
