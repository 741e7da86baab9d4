package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"mashupctl/internal/events"
)

func TestEventTopic(t *testing.T) {
	tests := []struct {
		ev   events.Event
		want string
	}{
		{events.Event{Type: events.MashupPushed, Name: "antigravity.calculator-mu"}, "mashupctl/mashup_pushed/antigravity.calculator-mu"},
		{events.Event{Type: events.ThingEnabled, Name: "Antigravity.Tools"}, "mashupctl/thing_enabled/Antigravity.Tools"},
		{events.Event{Type: events.PushFailed, Name: "a/b+c#"}, "mashupctl/push_failed/a_b_c_"},
		{events.Event{Type: events.PushFailed}, "mashupctl/push_failed/_"},
	}
	for _, tt := range tests {
		if got := eventTopic("mashupctl", tt.ev); got != tt.want {
			t.Errorf("eventTopic(%+v) = %q, want %q", tt.ev, got, tt.want)
		}
	}
}

func TestStateTopics(t *testing.T) {
	if got := stateTopic("twx", "hs.rechner-mu"); got != "twx/state/hs.rechner-mu" {
		t.Errorf("state topic = %q", got)
	}
	if got := bridgeStateTopic("twx"); got != "twx/bridge/state" {
		t.Errorf("bridge topic = %q", got)
	}
}

func TestApplyEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	st := applyEvent(entityState{}, events.Event{Type: events.MashupPushed, RunID: "r1", Name: "x", Time: at})
	if !st.OK || st.Last != events.MashupPushed || st.Run != "r1" || st.Updated != "2024-05-01T12:00:00Z" {
		t.Errorf("state = %+v", st)
	}

	st = applyEvent(st, events.Event{Type: events.PushFailed, Name: "x", Status: 500, Detail: "boom", Time: at})
	if st.OK || st.Status != 500 || st.Detail != "boom" {
		t.Errorf("state = %+v", st)
	}

	st = applyEvent(st, events.Event{Type: events.ThingExists, Name: "x", Status: 500, Time: at})
	if !st.OK {
		t.Error("already-exists is not a failure")
	}
}

func TestEventPayload(t *testing.T) {
	ev := events.Event{Type: events.ThingCreated, Name: "Antigravity.Tools", Detail: "GenericThing", Time: time.Unix(0, 0).UTC()}
	var got map[string]any
	if err := json.Unmarshal(mustJSON(ev), &got); err != nil {
		t.Fatal(err)
	}
	if got["type"] != "thing_created" || got["name"] != "Antigravity.Tools" || got["detail"] != "GenericThing" {
		t.Errorf("payload = %v", got)
	}
	if _, ok := got["status"]; ok {
		t.Error("zero status should be omitted")
	}
}
