package protocol

import "testing"

func TestValidator_Hello(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	m, err := v.Hello([]byte(`{"type":"HELLO","protocol_version":"1.0","client_name":"bot1","scene":"camp"}`))
	if err != nil {
		t.Fatalf("hello: %v", err)
	}
	if m.ClientName != "bot1" || m.Scene != "camp" {
		t.Fatalf("decoded %+v", m)
	}
	for _, raw := range []string{
		`{"type":"HELLO","protocol_version":"1.0"}`,
		`{"type":"ACT","protocol_version":"1.0","client_name":"x"}`,
		`{"type":"HELLO","protocol_version":"1.0","client_name":""}`,
	} {
		if _, err := v.Hello([]byte(raw)); err == nil {
			t.Fatalf("expected rejection: %s", raw)
		}
	}
}

func TestValidator_Act(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	ok := []string{
		`{"type":"ACT","protocol_version":"1.0","id":"A1","action":"STOKE","target":"campfire","item":"Wood","quantity":2}`,
		`{"type":"ACT","protocol_version":"1.0","id":"A2","action":"COOK","item":"Raw Cod"}`,
		`{"type":"ACT","protocol_version":"1.0","id":"A3","action":"CLAIM"}`,
		`{"type":"ACT","protocol_version":"1.0","id":"A4","action":"ENTER","scene":"dungeon"}`,
		`{"type":"ACT","protocol_version":"1.0","id":"A5","action":"LEAVE"}`,
	}
	for _, raw := range ok {
		if _, err := v.Act([]byte(raw)); err != nil {
			t.Fatalf("act %s: %v", raw, err)
		}
	}
	m, _ := v.Act([]byte(ok[0]))
	if m.Action != ActionStoke || m.Target != "campfire" || m.Quantity != 2 {
		t.Fatalf("decoded %+v", m)
	}

	bad := []string{
		`{"type":"ACT","protocol_version":"1.0","id":"B1","action":"STOKE","target":"campfire","item":"Wood"}`,
		`{"type":"ACT","protocol_version":"1.0","id":"B2","action":"STOKE","target":"campfire","item":"Wood","quantity":0}`,
		`{"type":"ACT","protocol_version":"1.0","id":"B3","action":"COOK"}`,
		`{"type":"ACT","protocol_version":"1.0","id":"B4","action":"ENTER"}`,
		`{"type":"ACT","protocol_version":"1.0","id":"B5","action":"DANCE"}`,
		`{"type":"ACT","protocol_version":"1.0","action":"CLAIM"}`,
		`{"type":"ACT",`,
	}
	for _, raw := range bad {
		if _, err := v.Act([]byte(raw)); err == nil {
			t.Fatalf("expected rejection: %s", raw)
		}
	}
}
