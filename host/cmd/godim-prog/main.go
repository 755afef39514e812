// Command godim-prog runs a setpoint program file against a dimmer
// board: each level the program reaches is pushed over the serial link
// as an override, and control returns to the board's pot when the
// program ends or on interrupt.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"godim/host/link"
	"godim/host/serial"
	"godim/schedule"
)

var (
	device   = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud     = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	file     = flag.String("file", "", "Program file (required)")
	interval = flag.Duration("interval", 100*time.Millisecond, "Level re-evaluation interval")
)

func main() {
	flag.Parse()
	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: godim-prog -file program.txt [-device /dev/ttyACM0]")
		os.Exit(2)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	prog, err := schedule.Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", *file, err)
	}

	fmt.Printf("program: %d steps, %v total\n", len(prog.Steps), prog.Duration())

	lnk := link.NewLink()
	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	if err := lnk.ConnectWithConfig(cfg); err != nil {
		return err
	}
	defer lnk.Close()

	hello, _ := lnk.Hello()
	fmt.Printf("connected: firmware %s\n", hello.Version)

	stop := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		close(stop)
	}()

	start := time.Now()
	sink := schedule.SinkFunc(func(p uint8) error {
		fmt.Printf("%8s  %3d%%\n", time.Since(start).Round(time.Second), p)
		return lnk.SetOverride(p)
	})

	err = schedule.NewRunner(prog, sink, *interval).Run(stop)

	// Hand control back to the pot however the run ended.
	if cerr := lnk.ClearOverride(); cerr != nil && err == nil {
		err = cerr
	}

	switch {
	case err == nil:
		fmt.Println("program complete, override cleared")
		return nil
	case errors.Is(err, schedule.ErrStopped):
		fmt.Println("interrupted, override cleared")
		return nil
	default:
		return err
	}
}
