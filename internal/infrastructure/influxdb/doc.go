// Package influxdb records authentication and request telemetry in
// InfluxDB v2.
//
// Two measurements are written:
//   - auth_events: one point per login, registration or token decision,
//     tagged with event, outcome and (on failure) a reason code
//   - http_requests: one point per request, tagged with method, matched
//     route and status, with the handler duration in milliseconds
//
// Telemetry is optional. With influxdb.enabled false, Connect returns
// ErrDisabled and callers keep a nil *Client; every write method is a no-op
// on a client that is not connected.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteAuthEvent("login", influxdb.OutcomeFailure, "invalid_credentials")
package influxdb
