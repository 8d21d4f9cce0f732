package adc_test

import (
	"context"
	"testing"

	"periphio-go/errcode"
	"periphio-go/internal/hostsim"
	"periphio-go/periph/adc"
)

func TestConvertDeliversSample(t *testing.T) {
	sim := hostsim.NewADC()
	a := adc.New(sim)

	f, err := a.Convert(3)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if sim.Channel() != 3 {
		t.Fatalf("selected channel = %d; want 3", sim.Channel())
	}

	sim.Deliver(0x0abc)

	v, err := f.Await(context.Background())
	if err != nil || v != 0x0abc {
		t.Fatalf("Await = %#x, %v; want 0xabc, nil", v, err)
	}
}

func TestDroppedConversionClearsInterruptEnable(t *testing.T) {
	sim := hostsim.NewADC()
	a := adc.New(sim)

	f, err := a.Convert(1)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	f.Cancel()

	if sim.Enabled() {
		t.Fatal("conversion-done interrupt still enabled after drop")
	}

	// State is Idle again: a fresh conversion arms fine.
	if _, err := a.Convert(2); err != nil {
		t.Fatalf("re-arm Convert: %v", err)
	}
}

func TestSecondConvertIsBusy(t *testing.T) {
	sim := hostsim.NewADC()
	a := adc.New(sim)

	if _, err := a.Convert(0); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if _, err := a.Convert(1); errcode.Of(err) != errcode.Busy {
		t.Fatalf("second Convert err = %v; want busy", err)
	}
}

func TestConversionErrorSurfaces(t *testing.T) {
	sim := hostsim.NewADC()
	a := adc.New(sim)

	f, _ := a.Convert(0)
	sim.DeliverError(errcode.Transfer)

	if _, err := f.Await(context.Background()); errcode.Of(err) != errcode.Transfer {
		t.Fatalf("err = %v; want transfer_error", err)
	}
}

func TestReadChannelAuto(t *testing.T) {
	sim := hostsim.NewADC()
	sim.Auto = true
	sim.SetReading(4, 512)
	a := adc.New(sim)

	v, err := a.ReadChannel(context.Background(), 4)
	if err != nil || v != 512 {
		t.Fatalf("ReadChannel = %d, %v; want 512, nil", v, err)
	}
}

func TestSpuriousConversionAbsorbed(t *testing.T) {
	sim := hostsim.NewADC()
	a := adc.New(sim)

	sim.SpuriousISR()
	if a.Spurious() != 1 {
		t.Fatalf("spurious = %d; want 1", a.Spurious())
	}
}
