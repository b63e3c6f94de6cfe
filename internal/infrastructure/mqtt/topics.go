package mqtt

import "strings"

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "tracker"

// Topics builds the tracker's MQTT topic names under a common prefix.
//
//	topics := mqtt.NewTopics("tracker")
//	topics.Event("task", "updated") // "tracker/events/task/updated"
type Topics struct {
	prefix string
}

// NewTopics returns a builder for prefix. Surrounding slashes are trimmed.
func NewTopics(prefix string) Topics {
	p := strings.Trim(strings.TrimSpace(prefix), "/")
	if p == "" {
		p = DefaultTopicPrefix
	}
	return Topics{prefix: p}
}

// Prefix returns the root segment of every topic.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// SystemStatus is the retained online/offline status topic.
//
// Example: tracker/system/status
func (t Topics) SystemStatus() string {
	return t.Prefix() + "/system/status"
}

// Event is the topic for one kind of change to one kind of entity.
//
// Example: tracker/events/project/created
func (t Topics) Event(entity, action string) string {
	return t.Prefix() + "/events/" + sanitizeSegment(entity) + "/" + sanitizeSegment(action)
}

// AllEvents matches every change event.
//
// Example: tracker/events/#
func (t Topics) AllEvents() string {
	return t.Prefix() + "/events/#"
}

// sanitizeSegment keeps a value from introducing extra levels or wildcards.
func sanitizeSegment(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(s)
}
