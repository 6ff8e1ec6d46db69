package featureflags

import (
	"testing"

	"github.com/google/uuid"
)

var testUser = uuid.MustParse("3f2c9f4e-5f2a-4dcb-9a6c-0f6a1b2c3d4e")

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", testUser) || !m.Enabled("c", testUser) || !m.Enabled("e", testUser) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", testUser) || m.Enabled("d", testUser) || m.Enabled("f", testUser) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%")

	if !m.Enabled("always", testUser) {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", testUser) {
		t.Fatal("0% rollout should always be disabled")
	}

	first := m.Enabled("canary", testUser)
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", testUser); got != first {
			t.Fatal("rollout evaluation must be deterministic per user")
		}
	}

	if m.Enabled("canary", uuid.Nil) {
		t.Fatal("percentage rollout requires a concrete userID")
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	if len(raw) != 3 {
		t.Fatalf("expected 3 parsed flags, got %d", len(raw))
	}
	if raw["x"] != "on" || raw["y"] != "20%" || raw["z"] != "off" {
		t.Fatalf("unexpected raw flags: %#v", raw)
	}

	snap := m.Snapshot(testUser)
	if len(snap) != 3 {
		t.Fatalf("expected snapshot size 3, got %d", len(snap))
	}
}
