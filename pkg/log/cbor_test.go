package log

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
)

func TestDispatchEventCBORRoundTrip(t *testing.T) {
	d := 120 * time.Millisecond
	original := Event{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.UTC),
		Source:    SourceDispatcher,
		Category:  CategoryDispatch,
		Accessory: "Multi-Sensor-1A2B3C",
		Dispatch: &DispatchEvent{
			Stage:    DispatchSent,
			Table:    "temperaturesensorlog",
			Command:  "sql=insert into homekit.temperaturesensorlog (TemperatureSensorName, Temperature) values ('x', 21.500000)",
			Duration: &d,
			Sink:     "http",
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v (nanosecond precision)", decoded.Timestamp, original.Timestamp)
	}
	if decoded.Source != SourceDispatcher || decoded.Category != CategoryDispatch {
		t.Errorf("Source/Category: got %v/%v", decoded.Source, decoded.Category)
	}
	if decoded.Dispatch == nil {
		t.Fatal("Dispatch is nil")
	}
	if decoded.Dispatch.Command != original.Dispatch.Command {
		t.Errorf("Command: got %q", decoded.Dispatch.Command)
	}
	if decoded.Dispatch.Duration == nil || *decoded.Dispatch.Duration != d {
		t.Errorf("Duration: got %v, want %v", decoded.Dispatch.Duration, d)
	}
	if decoded.Reading != nil || decoded.Fault != nil {
		t.Error("unexpected payloads set")
	}
}

func TestReadingEventValueTypes(t *testing.T) {
	raw := uint16(300)
	for _, v := range []any{true, 724.0} {
		data, err := EncodeEvent(Event{
			Source:   SourceLight,
			Category: CategoryReading,
			Reading:  &ReadingEvent{Path: "lightSensor/currentAmbientLightLevel", Value: v, Raw: &raw},
		})
		if err != nil {
			t.Fatalf("EncodeEvent failed: %v", err)
		}
		decoded, err := DecodeEvent(data)
		if err != nil {
			t.Fatalf("DecodeEvent failed: %v", err)
		}
		if decoded.Reading.Value != v {
			t.Errorf("Value: got %T %v, want %T %v", decoded.Reading.Value, decoded.Reading.Value, v, v)
		}
		if decoded.Reading.Raw == nil || *decoded.Reading.Raw != 300 {
			t.Errorf("Raw: got %v", decoded.Reading.Raw)
		}
	}
}

func TestEventCBORUsesIntegerKeys(t *testing.T) {
	data, err := EncodeEvent(Event{
		Source:   SourceIndicator,
		Category: CategoryFault,
		Fault:    &FaultEvent{Code: 1, Name: "SENSOR_ERROR"},
	})
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	var m map[any]any
	if err := cbor.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for k := range m {
		if _, ok := k.(uint64); !ok {
			t.Errorf("key %v is %T, want integer", k, k)
		}
	}
	if bytes.Contains(data, []byte("Fault")) {
		t.Error("encoded event contains field name")
	}
}

func TestDecoderStream(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		data, err := EncodeEvent(Event{Source: SourceMotion, Category: CategoryReading})
		if err != nil {
			t.Fatalf("EncodeEvent failed: %v", err)
		}
		buf.Write(data)
	}

	dec := NewDecoder(&buf)
	var n int
	for {
		var e Event
		if err := dec.Decode(&e); err != nil {
			break
		}
		n++
	}
	if n != 3 {
		t.Errorf("decoded %d events, want 3", n)
	}
}

func TestDecodeEventRejectsUnknownKeys(t *testing.T) {
	data, err := cbor.Marshal(map[int]any{2: 1, 3: 0, 99: "foreign"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	_, err = DecodeEvent(data)
	if !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("got %v, want ErrMalformedEvent", err)
	}
}

func TestDecodeEventRejectsDuplicateKeys(t *testing.T) {
	// map(2) {2: 1, 2: 3}
	data := []byte{0xa2, 0x02, 0x01, 0x02, 0x03}

	_, err := DecodeEvent(data)
	if !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("got %v, want ErrMalformedEvent", err)
	}
}

func TestDecodeEventTruncated(t *testing.T) {
	data, err := EncodeEvent(Event{Source: SourceBridge, Category: CategoryState, StateChange: &StateChangeEvent{NewState: "RUNNING"}})
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	_, err = DecodeEvent(data[:len(data)-3])
	if errors.Is(err, ErrMalformedEvent) {
		t.Errorf("truncation reported as malformed: %v", err)
	}
	if err == nil {
		t.Error("expected error for truncated record")
	}
}
