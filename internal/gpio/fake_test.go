package gpio

import (
	"errors"
	"testing"
)

func TestFakeOutputLogsTransitions(t *testing.T) {
	f := NewFakeOutput()

	f.HighImpedance()
	f.DriveLow()
	f.Write(true)
	f.Start(100, 50)
	f.Stop()

	want := []string{"hiz", "low", "write:high", "start:100:50", "stop"}
	if len(f.Log) != len(want) {
		t.Fatalf("log = %v, want %v", f.Log, want)
	}
	for i := range want {
		if f.Log[i] != want[i] {
			t.Fatalf("log = %v, want %v", f.Log, want)
		}
	}
	if f.Running {
		t.Error("Running not cleared by Stop")
	}
}

func TestFakeOutputError(t *testing.T) {
	f := NewFakeOutput()
	f.Err = errors.New("fault")

	if err := f.DriveLow(); err == nil {
		t.Error("expected scripted error")
	}
	if len(f.Log) != 0 {
		t.Error("failed transition logged")
	}
}

func TestFakeReaderScriptedSamples(t *testing.T) {
	f := NewFakeReader([]bool{false, true, true})

	want := []bool{false, true, true, true, true} // last sample repeats
	for i, w := range want {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if got != w {
			t.Errorf("read %d = %v, want %v", i, got, w)
		}
	}
}

func TestFakeReaderEmpty(t *testing.T) {
	f := NewFakeReader(nil)
	if _, err := f.Read(); err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]bool{true})
	f.ReadError = errors.New("bus fault")
	if _, err := f.Read(); err == nil {
		t.Error("expected scripted error")
	}
}

func TestNullReader(t *testing.T) {
	var r Reader = NullReader{}
	asserted, err := r.Read()
	if err != nil || asserted {
		t.Errorf("NullReader.Read() = %v, %v; want false, nil", asserted, err)
	}
	if err := r.Close(); err != nil {
		t.Error(err)
	}
}
