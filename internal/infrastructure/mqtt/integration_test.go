//go:build integration

package mqtt

import (
	"context"
	"testing"

	"github.com/cenitiumdev/project-tracker/internal/infrastructure/config"
)

// These tests require a running MQTT broker at 127.0.0.1:1883.
//
//	go test -tags=integration -v ./internal/infrastructure/mqtt/...

func integrationConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Enabled:     true,
		Broker:      config.MQTTBrokerConfig{Host: "127.0.0.1", Port: 1883, ClientID: clientID},
		QoS:         1,
		Reconnect:   config.MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 5},
		TopicPrefix: "tracker-test",
	}
}

func TestIntegration_ConnectPublishClose(t *testing.T) {
	client, err := Connect(integrationConfig("tracker-int-publish"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if !client.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	topic := client.Topics().Event("project", "created")
	if err := client.PublishJSON(topic, map[string]string{"id": "prj-test"}); err != nil {
		t.Errorf("PublishJSON() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
}

func TestIntegration_ConnectRefused(t *testing.T) {
	cfg := integrationConfig("tracker-int-refused")
	cfg.Broker.Port = 19999

	if _, err := Connect(cfg); err == nil {
		t.Fatal("Connect() to a closed port should fail")
	}
}
