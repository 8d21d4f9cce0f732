//go:build !rp2040 && !rp2350

// serial-echo opens a host serial device and echoes every byte back,
// driving the port through the async receive/transmit operations.
//
// Usage:
//
//	serial-echo -device /dev/ttyUSB0 -baud 115200
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"periphio-go/host/serial"
	"periphio-go/periph/uart"
	"periphio-go/types"
)

func main() {
	device := flag.String("device", "/dev/ttyUSB0", "serial device to open")
	baud := flag.Uint("baud", 115200, "baud rate")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	drv := serial.New(*device)
	defer drv.Close()

	port, err := uart.Open(drv, types.SerialConfig{
		Baud:     uint32(*baud),
		DataBits: 8,
		StopBits: 1,
		Parity:   types.ParityNone,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "serial-echo: open %s: %v\n", *device, err)
		os.Exit(1)
	}
	fmt.Printf("echoing on %s at %d baud (ctrl-c to stop)\n", *device, *baud)

	buf := make([]byte, 1)
	for {
		if _, err := port.ReadFull(ctx, buf); err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("\nstopped")
				return
			}
			fmt.Fprintf(os.Stderr, "serial-echo: read: %v\n", err)
			os.Exit(1)
		}
		if _, err := port.WriteAll(ctx, buf); err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("\nstopped")
				return
			}
			fmt.Fprintf(os.Stderr, "serial-echo: write: %v\n", err)
			os.Exit(1)
		}
	}
}
