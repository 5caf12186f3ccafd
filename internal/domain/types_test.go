package domain

import (
	"encoding/json"
	"testing"
)

func TestProjectJSONRoundTrip(t *testing.T) {
	p := Project{
		Name: "RoundTrip",
		Metadata: Metadata{
			Author: "A. Writer",
			Series: "The Goblin Caves",
		},
		Scripts: []Script{
			{Path: "scripts/story.fflow", Language: "fflow", Title: "Main Story"},
			{Path: "scripts/story.twee", Language: "twee"},
		},
		Defaults: Defaults{Target: "twee", Verify: true},
	}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Project
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != p.Name {
		t.Fatalf("name mismatch: got %q want %q", got.Name, p.Name)
	}
	if len(got.Scripts) != 2 || got.Scripts[0].Language != "fflow" {
		t.Fatalf("unexpected scripts structure: %+v", got)
	}
	if got.Defaults.Target != "twee" || !got.Defaults.Verify {
		t.Fatalf("defaults not preserved: %+v", got.Defaults)
	}
}
