package mqtt

import (
	"fmt"
	"strings"
)

// Namespace is the first level of every anti-theft topic.
const Namespace = "anti_theft"

// Topic categories under anti_theft/{user}/{device}/.
const (
	CategoryCommand = "command"
	CategoryStatus  = "status"
	CategoryEvent   = "event"
	CategoryDebug   = "debug"
	CategorySensor  = "sensor"
)

// topicLevels is the number of levels up to and including the category.
const topicLevels = 4

// Topics builds the topic addresses of one user's device.
//
// All addresses share the base anti_theft/{user}/{device}. The value is
// computed once from configuration and never changes:
//
//	topics, err := mqtt.NewTopics("daniel", "device01")
//	topics.Subscription() // "anti_theft/daniel/device01/#"
//	topics.Command()      // "anti_theft/daniel/device01/command"
type Topics struct {
	userID   string
	deviceID string
}

// NewTopics validates the identifiers and returns the device's topic set.
//
// Each identifier must be non-empty and free of '/'. '+' and '#' are
// rejected as well because they are filter wildcards. Inside the
// subscription a whole-level "+" or "#" would widen it to other users' or
// devices' topics, and a partial one such as "dev+" makes the filter
// invalid.
func NewTopics(userID, deviceID string) (Topics, error) {
	if err := validateLevel("user id", userID); err != nil {
		return Topics{}, err
	}
	if err := validateLevel("device id", deviceID); err != nil {
		return Topics{}, err
	}
	return Topics{userID: userID, deviceID: deviceID}, nil
}

func validateLevel(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidTopicLevel, name)
	}
	if strings.ContainsAny(value, "/+#") {
		return fmt.Errorf("%w: %s %q contains '/', '+' or '#'", ErrInvalidTopicLevel, name, value)
	}
	return nil
}

// UserID returns the user level of the topics.
func (t Topics) UserID() string { return t.userID }

// DeviceID returns the device level of the topics.
func (t Topics) DeviceID() string { return t.deviceID }

// Base returns the parent of every device topic.
//
// Example: anti_theft/daniel/device01
func (t Topics) Base() string {
	return fmt.Sprintf("%s/%s/%s", Namespace, t.userID, t.deviceID)
}

// Subscription returns the wildcard filter covering every device topic.
//
// Pattern: anti_theft/daniel/device01/#
func (t Topics) Subscription() string {
	return t.Base() + "/#"
}

// Command returns the topic commands are published to.
//
// Example: anti_theft/daniel/device01/command
func (t Topics) Command() string {
	return t.Build(CategoryCommand, "")
}

// Status returns the topic the device reports its arm state on.
//
// Example: anti_theft/daniel/device01/status
func (t Topics) Status() string {
	return t.Build(CategoryStatus, "")
}

// Event returns the topic for device events.
//
// Example: anti_theft/daniel/device01/event
func (t Topics) Event() string {
	return t.Build(CategoryEvent, "")
}

// Debug returns the topic for device debug output.
//
// Example: anti_theft/daniel/device01/debug
func (t Topics) Debug() string {
	return t.Build(CategoryDebug, "")
}

// Build returns anti_theft/{user}/{device}/{category}, with /{subcategory}
// appended when subcategory is non-empty.
func (t Topics) Build(category, subcategory string) string {
	if subcategory == "" {
		return fmt.Sprintf("%s/%s", t.Base(), category)
	}
	return fmt.Sprintf("%s/%s/%s", t.Base(), category, subcategory)
}

// TopicParts is a parsed anti-theft topic.
type TopicParts struct {
	UserID      string
	DeviceID    string
	Category    string
	Subcategory string // remaining levels joined by '/', may be empty
}

// ParseTopic splits an anti-theft topic into its levels.
// It reports false for topics outside the namespace or without a category.
func ParseTopic(topic string) (TopicParts, bool) {
	levels := strings.SplitN(topic, "/", topicLevels+1)
	if len(levels) < topicLevels || levels[0] != Namespace {
		return TopicParts{}, false
	}
	for _, level := range levels[1:topicLevels] {
		if level == "" {
			return TopicParts{}, false
		}
	}

	parts := TopicParts{
		UserID:   levels[1],
		DeviceID: levels[2],
		Category: levels[3],
	}
	if len(levels) > topicLevels {
		parts.Subcategory = levels[topicLevels]
	}
	return parts, true
}
