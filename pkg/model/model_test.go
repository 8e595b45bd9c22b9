package model

import (
	"errors"
	"sync"
	"testing"
)

type recordingObserver struct {
	mu     sync.Mutex
	values []any
}

func (r *recordingObserver) OnValue(_ *Characteristic, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, value)
}

func (r *recordingObserver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

func TestCharacteristicBasics(t *testing.T) {
	c := NewCharacteristic(&Metadata{
		Name:     "level",
		Format:   FormatFloat,
		MinValue: Bound(0),
		MaxValue: Bound(100),
		Default:  42,
	})

	t.Run("Name", func(t *testing.T) {
		if c.Name() != "level" {
			t.Errorf("expected name level, got %s", c.Name())
		}
		if c.Path() != "level" {
			t.Errorf("expected detached path level, got %s", c.Path())
		}
	})

	t.Run("DefaultValue", func(t *testing.T) {
		if c.Float() != 42 {
			t.Errorf("expected default value 42, got %v", c.Value())
		}
	})

	t.Run("SetValueNormalizes", func(t *testing.T) {
		changed, err := c.SetValue(int32(50))
		if err != nil {
			t.Fatalf("SetValue failed: %v", err)
		}
		if !changed {
			t.Error("expected changed=true")
		}
		if c.Value() != float64(50) {
			t.Errorf("expected float64 50, got %T %v", c.Value(), c.Value())
		}
	})

	t.Run("SetValueSame", func(t *testing.T) {
		changed, err := c.SetValue(50.0000001)
		if err != nil {
			t.Fatalf("SetValue failed: %v", err)
		}
		if changed {
			t.Error("expected changed=false within FloatEpsilon")
		}
	})
}

func TestCharacteristicDefaults(t *testing.T) {
	b := NewCharacteristic(&Metadata{Name: "b", Format: FormatBool})
	if b.Bool() {
		t.Error("expected false zero value")
	}
	s := NewCharacteristic(&Metadata{Name: "s", Format: FormatString, Default: "x"})
	if s.Text() != "x" {
		t.Errorf("expected default x, got %q", s.Text())
	}
	f := NewCharacteristic(&Metadata{Name: "f", Format: FormatFloat, Default: "bogus"})
	if f.Value() != float64(0) {
		t.Errorf("expected zero value for invalid default, got %v", f.Value())
	}
}

func TestCharacteristicRangeValidation(t *testing.T) {
	c := NewCharacteristic(&Metadata{
		Name:     "humidity",
		Format:   FormatFloat,
		MinValue: Bound(0),
		MaxValue: Bound(100),
		Default:  40,
	})
	obs := &recordingObserver{}
	c.Subscribe(obs)

	for _, v := range []any{-1, 100.5, 1e9} {
		if _, err := c.SetValue(v); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("SetValue(%v): expected ErrOutOfRange, got %v", v, err)
		}
		if err := c.Publish(v); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Publish(%v): expected ErrOutOfRange, got %v", v, err)
		}
	}

	if c.Float() != 40 {
		t.Errorf("expected stored value untouched, got %v", c.Value())
	}
	if obs.count() != 0 {
		t.Errorf("expected no notifications, got %d", obs.count())
	}
}

func TestCharacteristicValidateDoesNotStore(t *testing.T) {
	c := NewCharacteristic(&Metadata{
		Name:     "temperature",
		Format:   FormatFloat,
		MinValue: Bound(-270),
		MaxValue: Bound(100),
		Default:  20,
	})
	obs := &recordingObserver{}
	c.Subscribe(obs)

	if err := c.Validate(35.0); err != nil {
		t.Errorf("Validate(35): unexpected error %v", err)
	}
	if err := c.Validate(140.0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Validate(140): expected ErrOutOfRange, got %v", err)
	}
	if err := c.Validate("warm"); !errors.Is(err, ErrValueType) {
		t.Errorf("Validate(string): expected ErrValueType, got %v", err)
	}

	if c.Float() != 20 {
		t.Errorf("expected stored value untouched, got %v", c.Value())
	}
	if obs.count() != 0 || c.Notifications() != 0 {
		t.Errorf("expected no notifications, got %d", obs.count())
	}
}

func TestCharacteristicTypeValidation(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		value  any
		valid  bool
	}{
		{"bool ok", FormatBool, true, true},
		{"bool from int", FormatBool, 1, false},
		{"float from int", FormatFloat, 7, true},
		{"float from uint16", FormatFloat, uint16(724), true},
		{"float from string", FormatFloat, "7", false},
		{"string ok", FormatString, "abc", true},
		{"string from bool", FormatString, false, false},
		{"unknown format", FormatUnknown, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCharacteristic(&Metadata{Name: "c", Format: tt.format})
			_, err := c.SetValue(tt.value)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrValueType) {
				t.Errorf("expected ErrValueType, got %v", err)
			}
		})
	}

	c := NewCharacteristic(&Metadata{Name: "c", Format: FormatFloat})
	if _, err := c.SetValue(nil); !errors.Is(err, ErrNilValue) {
		t.Errorf("expected ErrNilValue, got %v", err)
	}
}

func TestCharacteristicNotifications(t *testing.T) {
	c := NewCharacteristic(&Metadata{Name: "motion", Format: FormatBool})
	obs := &recordingObserver{}
	c.Subscribe(obs)

	t.Run("SetValueOnlyOnChange", func(t *testing.T) {
		_, _ = c.SetValue(false)
		if obs.count() != 0 {
			t.Fatalf("expected no notification for unchanged value, got %d", obs.count())
		}
		_, _ = c.SetValue(true)
		if obs.count() != 1 {
			t.Fatalf("expected 1 notification, got %d", obs.count())
		}
	})

	t.Run("PublishAlways", func(t *testing.T) {
		_ = c.Publish(true)
		_ = c.Publish(true)
		if obs.count() != 3 {
			t.Fatalf("expected 3 notifications, got %d", obs.count())
		}
		if c.Notifications() != 3 {
			t.Errorf("expected Notifications()=3, got %d", c.Notifications())
		}
	})

	t.Run("NotifyResendsCurrent", func(t *testing.T) {
		c.Notify()
		if obs.values[len(obs.values)-1] != true {
			t.Errorf("expected last notified value true, got %v", obs.values[len(obs.values)-1])
		}
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		var fnCalls int
		id := c.Subscribe(ObserverFunc(func(*Characteristic, any) { fnCalls++ }))
		_ = c.Publish(false)
		c.Unsubscribe(id)
		_ = c.Publish(true)
		if fnCalls != 1 {
			t.Errorf("expected 1 call before unsubscribe, got %d", fnCalls)
		}
	})
}

func TestObserverReadsWithoutDeadlock(t *testing.T) {
	c := NewCharacteristic(&Metadata{Name: "t", Format: FormatFloat})
	var seen float64
	c.Subscribe(ObserverFunc(func(ch *Characteristic, _ any) {
		seen = ch.Float()
	}))

	if err := c.Publish(21.5); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if seen != 21.5 {
		t.Errorf("expected observer to read 21.5, got %v", seen)
	}
}

func TestCharacteristicConcurrentReaders(t *testing.T) {
	c := NewCharacteristic(&Metadata{Name: "t", Format: FormatFloat, MaxValue: Bound(1000)})

	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				v := c.Float()
				if v < 0 || v > 1000 {
					t.Errorf("torn read: %v", v)
					return
				}
			}
		}()
	}
	for i := 0; i < 500; i++ {
		_ = c.Publish(float64(i % 1000))
	}
	wg.Wait()
}

func TestService(t *testing.T) {
	svc := NewService("svc", true)
	a := NewCharacteristic(&Metadata{Name: "a", Format: FormatBool})
	b := NewCharacteristic(&Metadata{Name: "b", Format: FormatFloat})

	if err := svc.AddCharacteristic(a); err != nil {
		t.Fatalf("AddCharacteristic failed: %v", err)
	}
	if err := svc.AddCharacteristic(b); err != nil {
		t.Fatalf("AddCharacteristic failed: %v", err)
	}
	if err := svc.AddCharacteristic(NewCharacteristic(&Metadata{Name: "a", Format: FormatBool})); err != ErrDuplicateCharacteristic {
		t.Errorf("expected ErrDuplicateCharacteristic, got %v", err)
	}

	if !svc.Primary() {
		t.Error("expected primary service")
	}
	if a.Path() != "svc/a" {
		t.Errorf("expected path svc/a, got %s", a.Path())
	}

	chars := svc.Characteristics()
	if len(chars) != 2 || chars[0] != a || chars[1] != b {
		t.Errorf("expected insertion order [a b], got %v", chars)
	}

	if _, err := svc.Characteristic("missing"); err != ErrCharacteristicNotFound {
		t.Errorf("expected ErrCharacteristicNotFound, got %v", err)
	}
}

func TestMultiSensorAccessory(t *testing.T) {
	info := Info{Name: "Multi-Sensor-1A2B3C", Model: "1", Firmware: "1.0"}
	acc, set := NewMultiSensorAccessory(info)

	if acc.Info() != info {
		t.Errorf("expected info %+v, got %+v", info, acc.Info())
	}

	t.Run("Services", func(t *testing.T) {
		svcs := acc.Services()
		names := []string{ServiceLight, ServiceMotion, ServiceTemperature, ServiceHumidity}
		if len(svcs) != len(names) {
			t.Fatalf("expected %d services, got %d", len(names), len(svcs))
		}
		for i, n := range names {
			if svcs[i].Name() != n {
				t.Errorf("service %d: expected %s, got %s", i, n, svcs[i].Name())
			}
		}
	})

	t.Run("Lookup", func(t *testing.T) {
		paths := map[string]*Characteristic{
			PathAmbientLight:     set.AmbientLight,
			PathStatusActive:     set.StatusActive,
			PathMotionDetected:   set.MotionDetected,
			PathTemperature:      set.Temperature,
			PathRelativeHumidity: set.RelativeHumidity,
		}
		for path, want := range paths {
			got, err := acc.Lookup(path)
			if err != nil {
				t.Errorf("Lookup(%s) failed: %v", path, err)
				continue
			}
			if got != want {
				t.Errorf("Lookup(%s) returned wrong characteristic", path)
			}
		}

		if _, err := acc.Lookup("noslash"); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("expected ErrInvalidPath, got %v", err)
		}
		if _, err := acc.Lookup("nosuch/x"); !errors.Is(err, ErrServiceNotFound) {
			t.Errorf("expected ErrServiceNotFound, got %v", err)
		}
		if _, err := acc.Lookup(ServiceLight + "/x"); !errors.Is(err, ErrCharacteristicNotFound) {
			t.Errorf("expected ErrCharacteristicNotFound, got %v", err)
		}
	})

	t.Run("StatusActive", func(t *testing.T) {
		if !set.StatusActive.Bool() {
			t.Error("expected status active true")
		}
	})

	t.Run("LightAcceptsZero", func(t *testing.T) {
		if err := set.AmbientLight.Publish(0); err != nil {
			t.Errorf("expected 0 accepted, got %v", err)
		}
	})

	t.Run("Snapshot", func(t *testing.T) {
		_ = set.Temperature.Publish(21.5)
		snap := acc.Snapshot()
		if len(snap) != 5 {
			t.Fatalf("expected 5 entries, got %d", len(snap))
		}
		if snap[PathTemperature] != 21.5 {
			t.Errorf("expected temperature 21.5, got %v", snap[PathTemperature])
		}
	})

	t.Run("SubscribeAll", func(t *testing.T) {
		obs := &recordingObserver{}
		acc.Subscribe(obs)
		_ = set.RelativeHumidity.Publish(40)
		_ = set.MotionDetected.Publish(true)
		if obs.count() != 2 {
			t.Errorf("expected 2 notifications, got %d", obs.count())
		}
	})

	if _, err := acc.Service("x"); err != ErrServiceNotFound {
		t.Errorf("expected ErrServiceNotFound, got %v", err)
	}
	if err := acc.AddService(NewService(ServiceLight, false)); err != ErrDuplicateService {
		t.Errorf("expected ErrDuplicateService, got %v", err)
	}
}

func TestFormatString(t *testing.T) {
	tests := map[Format]string{
		FormatBool:    "bool",
		FormatFloat:   "float",
		FormatString:  "string",
		FormatUnknown: "unknown",
	}
	for f, want := range tests {
		if f.String() != want {
			t.Errorf("Format(%d).String() = %s, want %s", f, f.String(), want)
		}
	}
}
