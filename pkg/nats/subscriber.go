package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"field-data-be/pkg/location"

	"github.com/nats-io/nats.go"
	"github.com/tidwall/gjson"
)

// GPSSource reads positions published by an external receiver (a rover,
// a phone bridge) on a plain NATS subject. It implements location.Source.
//
// Accepted payloads are JSON objects with latitude/longitude (or lat/lon),
// an optional accuracy in meters and an optional RFC 3339 timestamp. A
// payload carrying "error" is reported as a failed reading.
type GPSSource struct {
	nc      *nats.Conn
	subject string
}

func NewGPSSource(nc *nats.Conn, subject string) *GPSSource {
	return &GPSSource{nc: nc, subject: subject}
}

// ConfigSubject receives the receiver configuration request on subscribe.
func (s *GPSSource) ConfigSubject() string {
	return s.subject + ".config"
}

// Subscribe never closes the returned channel; readers stop on ctx.
func (s *GPSSource) Subscribe(ctx context.Context, opts location.SourceOptions) (<-chan location.Update, error) {
	out := make(chan location.Update, 16)

	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		u := ParsePosition(msg.Data)
		select {
		case out <- u:
		case <-ctx.Done():
		default:
			// Readings are superseded by the next one; drop rather than block
			// the NATS dispatcher.
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.subject, err)
	}

	req, _ := json.Marshal(map[string]bool{"enable_high_accuracy": opts.HighAccuracy})
	if err := s.nc.Publish(s.ConfigSubject(), req); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("failed to request receiver config: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()

	return out, nil
}

// ParsePosition decodes one GPS payload.
func ParsePosition(data []byte) location.Update {
	if !gjson.ValidBytes(data) {
		return location.Update{Err: fmt.Errorf("invalid GPS payload")}
	}
	doc := gjson.ParseBytes(data)

	if e := doc.Get("error"); e.Exists() {
		return location.Update{Err: fmt.Errorf("receiver error: %s", e.String())}
	}

	lat := first(doc, "latitude", "lat", "coords.latitude")
	lon := first(doc, "longitude", "lon", "lng", "coords.longitude")
	if !lat.Exists() || !lon.Exists() {
		return location.Update{Err: fmt.Errorf("GPS payload has no coordinates")}
	}
	if lat.Type != gjson.Number || lon.Type != gjson.Number {
		return location.Update{Err: fmt.Errorf("GPS coordinates must be numbers")}
	}
	if math.Abs(lat.Float()) > 90 || math.Abs(lon.Float()) > 180 {
		return location.Update{Err: fmt.Errorf("GPS coordinates out of range: %s,%s", lat.Raw, lon.Raw)}
	}

	pos := location.Position{
		Latitude:  lat.Float(),
		Longitude: lon.Float(),
		Accuracy:  first(doc, "accuracy", "coords.accuracy").Float(),
	}
	if ts := doc.Get("timestamp"); ts.Exists() {
		if ts.Type == gjson.Number {
			pos.Timestamp = time.UnixMilli(ts.Int()).UTC()
		} else if t, err := time.Parse(time.RFC3339Nano, ts.String()); err == nil {
			pos.Timestamp = t
		}
	}
	return location.Update{Position: pos}
}

func first(doc gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := doc.Get(p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}
