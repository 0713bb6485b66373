package jsoncodec

import (
	"bytes"
	"testing"
)

type testFrame struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

func TestMarshalAndUnmarshal(t *testing.T) {
	in := testFrame{ID: "01J", Action: "send_message"}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out testFrame
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if out != in {
		t.Fatalf("expected round trip to match, got %#v", out)
	}
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(testFrame{ID: "01J", Action: "send_message"}, "", "  ")
	if err != nil {
		t.Fatalf("marshal indent failed: %v", err)
	}
	if !bytes.Contains(data, []byte("\n  ")) {
		t.Fatalf("expected indented output, got %s", data)
	}
}

func TestEncodeAndDecode(t *testing.T) {
	buf := &bytes.Buffer{}
	frame := testFrame{ID: "01K", Action: "get_status"}

	if err := Encode(buf, frame); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var decoded testFrame
	if err := Decode(buf, &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if decoded != frame {
		t.Fatalf("expected decoded frame to match, got %#v", decoded)
	}
}
