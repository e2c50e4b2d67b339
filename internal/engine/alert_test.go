package engine

import (
	"testing"
	"time"
)

func TestAlerterFiresOnTarget(t *testing.T) {
	a := NewAlerter([]string{"Ralts", " eevee "}, time.Minute)
	fired := a.Check([]string{"pidgey", "ralts"})
	if len(fired) != 1 || fired[0] != "ralts" {
		t.Errorf("fired = %v, want [ralts]", fired)
	}
}

func TestAlerterCooldownSuppresses(t *testing.T) {
	a := NewAlerter([]string{"ralts"}, time.Minute)
	now := time.Unix(1000, 0)
	a.now = func() time.Time { return now }

	if fired := a.Check([]string{"ralts"}); len(fired) != 1 {
		t.Fatal("first sighting should fire")
	}
	now = now.Add(30 * time.Second)
	if fired := a.Check([]string{"ralts"}); len(fired) != 0 {
		t.Error("sighting inside cooldown should not fire")
	}
	now = now.Add(31 * time.Second)
	if fired := a.Check([]string{"ralts"}); len(fired) != 1 {
		t.Error("sighting after cooldown should fire again")
	}
}

func TestAlerterCooldownPerSpecies(t *testing.T) {
	a := NewAlerter([]string{"ralts", "abra"}, time.Minute)
	now := time.Unix(1000, 0)
	a.now = func() time.Time { return now }

	a.Check([]string{"ralts"})
	if fired := a.Check([]string{"abra"}); len(fired) != 1 {
		t.Error("cooldown on one species should not suppress another")
	}
}

func TestAlerterLiveFeed(t *testing.T) {
	a := NewAlerter([]string{"ralts"}, time.Minute)
	a.Check([]string{"ralts"})

	select {
	case alert := <-a.Alerts():
		if alert.Species != "ralts" {
			t.Errorf("alert = %+v", alert)
		}
	default:
		t.Fatal("alert channel should hold the sighting")
	}
}

func TestAlerterNoTargets(t *testing.T) {
	a := NewAlerter(nil, time.Minute)
	if fired := a.Check([]string{"ralts"}); fired != nil {
		t.Errorf("fired = %v, want nil", fired)
	}
}
