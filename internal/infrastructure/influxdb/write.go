package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementAuthEvents   = "auth_events"
	MeasurementHTTPRequests = "http_requests"
)

// Auth outcomes recorded in the outcome tag.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// WriteAuthEvent records one authentication decision.
//
// event is what happened ("login", "register", "token"), outcome is
// OutcomeSuccess or OutcomeFailure, and reason is a short machine code such
// as "expired" or "bad_signature" (empty on success). Usernames and token
// values are never written: tags must stay low-cardinality and free of
// credentials.
//
//	client.WriteAuthEvent("token", influxdb.OutcomeFailure, "expired")
func (c *Client) WriteAuthEvent(event, outcome, reason string) {
	tags := map[string]string{
		"event":   event,
		"outcome": outcome,
	}
	if reason != "" {
		tags["reason"] = reason
	}
	c.WritePoint(MeasurementAuthEvents, tags, map[string]any{"count": 1})
}

// WriteRequestMetric records one served HTTP request. route is the
// matched route pattern, not the raw path, so IDs do not explode the
// series count.
func (c *Client) WriteRequestMetric(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.WritePoint(MeasurementHTTPRequests,
		map[string]string{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		},
		map[string]any{
			"duration_ms": float64(duration.Microseconds()) / 1000,
		},
	)
}

// WritePoint writes an arbitrary point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes an arbitrary point at timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
