// Package mqtt publishes tracker change events to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect and backoff
//   - Publishing with QoS and payload-size checks
//   - A retained system status topic with Last Will and Testament, so
//     subscribers can tell when the tracker goes away
//
// Topics live under a configurable prefix (mqtt.topic_prefix):
//
//	{prefix}/system/status
//	{prefix}/events/{entity}/{action}
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(client.Topics().Event("project", "created"), change)
package mqtt
