package led

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/BeatGlow/oled/conn"
)

type testLine struct {
	gpiotest.Pin
	outs   int
	closed int
}

func (l *testLine) Out(level gpio.Level) error {
	l.outs++
	return l.Pin.Out(level)
}

func (l *testLine) Close() error {
	l.closed++
	return nil
}

func float(v float64) *float64 {
	return &v
}

func TestIndicator(t *testing.T) {
	line := &testLine{Pin: gpiotest.Pin{N: "GPIO26", Num: 26, L: gpio.High}}
	i, err := New(line, DefaultLimit)
	if err != nil {
		t.Fatal(err)
	}
	if line.Read() != gpio.Low {
		t.Fatal("expected LED off after setup")
	}

	tests := []struct {
		temp *float64
		want gpio.Level
	}{
		{float(31.5), gpio.High},
		{float(35), gpio.High},
		{float(30), gpio.Low},
		{float(45), gpio.High},
		{nil, gpio.Low},
		{float(-5), gpio.Low},
	}
	for _, test := range tests {
		if err = i.Update(test.temp); err != nil {
			t.Fatal(err)
		}
		if v := line.Read(); v != test.want {
			t.Errorf("temp %v: expected %s, got %s", test.temp, test.want, v)
		}
		if i.Lit() != bool(test.want) {
			t.Errorf("temp %v: Lit() is %t", test.temp, i.Lit())
		}
	}

	outs := line.outs
	_ = i.Update(float(0))
	if line.outs != outs {
		t.Error("expected no write when the state does not change")
	}

	_ = i.Update(float(40))
	if err = i.Close(); err != nil {
		t.Fatal(err)
	}
	if line.Read() != gpio.Low || line.closed != 1 {
		t.Errorf("expected LED off and released, got %s closed=%d", line.Read(), line.closed)
	}
	if err = i.Close(); err != nil || line.closed != 1 {
		t.Errorf("expected second close to be a no-op, got %v closed=%d", err, line.closed)
	}
	if err = i.Update(float(40)); !errors.Is(err, conn.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
