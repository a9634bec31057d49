package telemetry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrInvalidPayload is returned for readings that cannot be decoded.
var ErrInvalidPayload = errors.New("telemetry: invalid reading payload")

// HistoryWriter receives every accepted reading. *influxdb.Client
// satisfies it.
type HistoryWriter interface {
	WriteSVIDReading(svid string, value float64, ts time.Time)
}

// Logger is the logging interface used by the Ingester.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Listener is notified of each accepted reading.
type Listener func(Reading)

// Ingester turns MQTT reading messages into Store entries.
type Ingester struct {
	store     *Store
	history   HistoryWriter
	logger    Logger
	listeners []Listener
	now       func() time.Time
}

// NewIngester creates an Ingester writing into store. history may be nil.
func NewIngester(store *Store, history HistoryWriter) *Ingester {
	return &Ingester{store: store, history: history, logger: noopLogger{}, now: time.Now}
}

// SetLogger sets the logger.
func (in *Ingester) SetLogger(l Logger) {
	in.logger = l
}

// OnReading registers fn for accepted readings. Call before ingest starts.
func (in *Ingester) OnReading(fn Listener) {
	in.listeners = append(in.listeners, fn)
}

// timestampLayouts are tried in order for string timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006/1/2 15:04:05",
}

// Handle processes one message on {prefix}/svid/{svid}. It matches the
// mqtt.MessageHandler signature.
//
// The payload is a JSON object {"value": ..., "timestamp": ...}. value may
// be a finite number, a numeric string or a boolean (1 or 0). timestamp
// may be RFC 3339, a local "YYYY-MM-DD hh:mm:ss" string or Unix
// milliseconds; it defaults to now.
// A bare JSON number is accepted as the value.
func (in *Ingester) Handle(topic string, payload []byte) error {
	svid := topic
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		svid = topic[i+1:]
	}
	if svid == "" {
		return fmt.Errorf("%w: empty svid in topic %q", ErrInvalidPayload, topic)
	}

	r, err := in.decode(svid, payload)
	if err != nil {
		return err
	}

	if !in.store.Put(r) {
		in.logger.Debug("out-of-order reading dropped", "svid", svid, "timestamp", r.Timestamp)
		return nil
	}
	if in.history != nil {
		in.history.WriteSVIDReading(r.SVID, r.Value, r.Timestamp)
	}
	for _, fn := range in.listeners {
		fn(r)
	}
	return nil
}

func (in *Ingester) decode(svid string, payload []byte) (Reading, error) {
	if !gjson.ValidBytes(payload) {
		return Reading{}, fmt.Errorf("%w: not JSON", ErrInvalidPayload)
	}
	doc := gjson.ParseBytes(payload)

	valueField := doc
	if doc.IsObject() {
		valueField = doc.Get("value")
	}
	value, err := numberOf(valueField)
	if err != nil {
		return Reading{}, err
	}

	ts := in.now()
	if doc.IsObject() {
		if field := doc.Get("timestamp"); field.Exists() {
			if ts, err = timeOf(field); err != nil {
				return Reading{}, err
			}
		}
	}
	return Reading{SVID: svid, Value: value, Timestamp: ts.UTC()}, nil
}

// numberOf reads a reading value. Booleans map to 1 and 0 for digital
// channels. NaN and infinities have no JSON form downstream, so they are
// rejected along with numbers outside the float64 range.
func numberOf(r gjson.Result) (float64, error) {
	var f float64
	switch r.Type {
	case gjson.Number:
		f = r.Num
	case gjson.True:
		return 1, nil
	case gjson.False:
		return 0, nil
	case gjson.String:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(r.Str), 64); err != nil {
			return 0, fmt.Errorf("%w: value %q is not numeric", ErrInvalidPayload, r.Str)
		}
	default:
		return 0, fmt.Errorf("%w: missing numeric value", ErrInvalidPayload)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: value %q is not finite", ErrInvalidPayload, r.Raw)
	}
	return f, nil
}

func timeOf(r gjson.Result) (time.Time, error) {
	switch r.Type {
	case gjson.Number:
		return time.UnixMilli(r.Int()), nil
	case gjson.String:
		for _, layout := range timestampLayouts {
			if t, err := time.ParseInLocation(layout, r.Str, time.Local); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: unrecognised timestamp %q", ErrInvalidPayload, r.Str)
	default:
		return time.Time{}, fmt.Errorf("%w: timestamp must be a string or number", ErrInvalidPayload)
	}
}
