package clients

import (
	"encoding/json"
	"testing"
)

func TestNumberAcceptsQuotedAndBareValues(t *testing.T) {
	var got struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a":"12.5","b":3,"c":"","d":null}`), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.A != 12.5 || got.B != 3 || got.C != 0 || got.D != 0 {
		t.Fatalf("unexpected values %+v", got)
	}
	if err := json.Unmarshal([]byte(`{"a":"abc"}`), &got); err == nil {
		t.Fatal("expected error for non-numeric string")
	}
}
