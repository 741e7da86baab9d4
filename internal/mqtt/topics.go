package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"mashupctl/internal/events"
)

// Config holds MQTT publisher configuration.
type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// topicSegment makes an entity name safe to use as one topic level.
func topicSegment(name string) string {
	if name == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#':
			return '_'
		}
		return r
	}, name)
}

// eventTopic is where a single deploy event is published.
func eventTopic(prefix string, ev events.Event) string {
	return prefix + "/" + ev.Type + "/" + topicSegment(ev.Name)
}

// stateTopic holds the retained last outcome for an entity.
func stateTopic(prefix, name string) string {
	return prefix + "/state/" + topicSegment(name)
}

func bridgeStateTopic(prefix string) string {
	return prefix + "/bridge/state"
}

// entityState is the retained summary kept per entity.
type entityState struct {
	Last    string `json:"last"`
	Run     string `json:"run,omitempty"`
	OK      bool   `json:"ok"`
	Status  int    `json:"status,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Updated string `json:"updated"`
}

// applyEvent folds ev into the entity's state.
func applyEvent(st entityState, ev events.Event) entityState {
	st.Last = ev.Type
	st.Run = ev.RunID
	st.Status = ev.Status
	st.Detail = ev.Detail
	st.Updated = ev.Time.UTC().Format(time.RFC3339)
	st.OK = !ev.Failed()
	return st
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
