package game

import (
	"reflect"
	"testing"
)

// roster builds players with fixed ids for deterministic selection tests
func roster(specs ...Player) []Player {
	out := make([]Player, len(specs))
	for i, p := range specs {
		if p.Name == "" {
			p.Name = p.ID
		}
		out[i] = p
	}
	return out
}

func alive(id string, points int) Player {
	return Player{ID: id, Points: points, Health: 100, Lives: 3}
}

func knockedOut(id string, points int) Player {
	return Player{ID: id, Points: points, Health: 0, Lives: 3, IsEliminated: true}
}

func TestSelectRoundTwoTopFive(t *testing.T) {
	// 8 players with health, 2 eligible eliminees
	players := roster(
		alive("a", 10), alive("b", 80), alive("c", 30), alive("d", 70),
		alive("e", 20), alive("f", 60), alive("g", 50), alive("h", 40),
		knockedOut("i", 90), knockedOut("j", 100),
	)

	adv := SelectRoundTwo(players, 5, 25)

	want := []string{"b", "d", "f", "g", "h"}
	if !reflect.DeepEqual(adv.Advancing, want) {
		t.Errorf("expected %v, got %v", want, adv.Advancing)
	}
	if len(adv.Backfilled) != 0 {
		t.Errorf("no backfill expected when five have health, got %v", adv.Backfilled)
	}
	if adv.LuckyLoser != "j" {
		t.Errorf("primary lucky loser should be reported as j, got %q", adv.LuckyLoser)
	}
	if len(adv.Eliminated) != 5 {
		t.Errorf("expected 5 eliminated, got %v", adv.Eliminated)
	}
}

func TestSelectRoundTwoLuckyLoserBackfill(t *testing.T) {
	// 3 with health, 4 eligible eliminees
	players := roster(
		alive("a", 10), alive("b", 20), alive("c", 30),
		knockedOut("d", 40), knockedOut("e", 70), knockedOut("f", 55), knockedOut("g", 25),
	)

	adv := SelectRoundTwo(players, 5, 25)

	if len(adv.Advancing) != 5 {
		t.Fatalf("expected 5 advancing, got %v", adv.Advancing)
	}
	if want := []string{"c", "b", "a"}; !reflect.DeepEqual(adv.Qualified, want) {
		t.Errorf("qualified: expected %v, got %v", want, adv.Qualified)
	}
	if want := []string{"e", "f"}; !reflect.DeepEqual(adv.Backfilled, want) {
		t.Errorf("backfilled: expected %v, got %v", want, adv.Backfilled)
	}
	if adv.LuckyLoser != "e" {
		t.Errorf("expected lucky loser e, got %q", adv.LuckyLoser)
	}
}

func TestSelectRoundTwoThresholdAndForced(t *testing.T) {
	forced := knockedOut("forced", 500)
	forced.ForcedEliminated = true

	players := roster(
		alive("a", 10),
		knockedOut("low", 24),
		knockedOut("ok", 25),
		forced,
	)

	adv := SelectRoundTwo(players, 5, 25)

	if want := []string{"a", "ok"}; !reflect.DeepEqual(adv.Advancing, want) {
		t.Errorf("expected %v (graceful degradation below five), got %v", want, adv.Advancing)
	}
	for _, id := range adv.Advancing {
		if id == "forced" {
			t.Error("forced eliminations must never be recovered")
		}
	}
}

func TestSelectRoundTwoZeroHealthNotEliminated(t *testing.T) {
	// Health hit zero outside the Round 1 policy: still a recovery candidate
	p := Player{ID: "z", Points: 30, Health: 0, Lives: 3}
	adv := SelectRoundTwo([]Player{p}, 5, 25)

	if !reflect.DeepEqual(adv.Backfilled, []string{"z"}) {
		t.Errorf("expected z backfilled, got %+v", adv)
	}
}

func TestSelectRoundTwoTieBreakByID(t *testing.T) {
	players := roster(alive("c", 50), alive("a", 50), alive("b", 50))
	adv := SelectRoundTwo(players, 2, 25)

	if want := []string{"a", "b"}; !reflect.DeepEqual(adv.Advancing, want) {
		t.Errorf("expected ties broken by id %v, got %v", want, adv.Advancing)
	}
}

// Ten players: A-E keep health, F is eligible but not needed, G-J are below threshold
func TestSelectRoundTwoTenPlayerScenario(t *testing.T) {
	players := roster(
		alive("A", 50), alive("B", 40), alive("C", 30), alive("D", 20), alive("E", 10),
		Player{ID: "F", Points: 40, Health: 0, Lives: 3},
		Player{ID: "G", Points: 20, Health: 0, Lives: 3},
		Player{ID: "H", Points: 15, Health: 0, Lives: 3},
		Player{ID: "I", Points: 10, Health: 0, Lives: 3},
		Player{ID: "J", Points: 0, Health: 0, Lives: 3},
	)

	adv := SelectRoundTwo(players, 5, 25)
	if want := []string{"A", "B", "C", "D", "E"}; !reflect.DeepEqual(adv.Advancing, want) {
		t.Fatalf("expected %v, got %v", want, adv.Advancing)
	}
	if adv.LuckyLoser != "F" {
		t.Errorf("F should be the reported lucky loser, got %q", adv.LuckyLoser)
	}

	next := ApplyAdvancement(players, adv, 100, 3)
	for _, p := range next {
		advancing := p.ID <= "E"
		if advancing {
			if p.IsEliminated || p.Health != 100 || p.Lives != 3 {
				t.Errorf("%s should advance with reset stats: %+v", p.ID, p)
			}
		} else if !p.IsEliminated {
			t.Errorf("%s should be eliminated", p.ID)
		}
	}
}

func TestSelectRoundThree(t *testing.T) {
	contenders := map[string]bool{"a": true, "b": true, "c": true, "d": true, "e": true}

	tests := []struct {
		name       string
		players    []Player
		qualified  []string
		backfilled []string
	}{
		{
			name: "lives before points",
			players: roster(
				Player{ID: "a", Points: 100, Lives: 1},
				Player{ID: "b", Points: 10, Lives: 3},
				Player{ID: "c", Points: 50, Lives: 2},
				Player{ID: "d", Points: 60, Lives: 2},
				Player{ID: "e", Points: 5, Lives: 1},
			),
			qualified: []string{"b", "d", "c"},
		},
		{
			name: "backfill from eliminated contenders by points",
			players: roster(
				Player{ID: "a", Points: 10, Lives: 2},
				Player{ID: "b", Points: 90, Lives: 0, IsEliminated: true},
				Player{ID: "c", Points: 70, Lives: 0, IsEliminated: true},
				Player{ID: "d", Points: 80, Lives: 0, IsEliminated: true, ForcedEliminated: true},
				Player{ID: "e", Points: 20, Lives: 0, IsEliminated: true},
			),
			qualified:  []string{"a"},
			backfilled: []string{"b", "c"},
		},
		{
			name: "non-contenders ignored",
			players: roster(
				Player{ID: "a", Points: 10, Lives: 3},
				Player{ID: "x", Points: 999, Lives: 3},
			),
			qualified: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adv := SelectRoundThree(tt.players, contenders, 3)
			if !reflect.DeepEqual(adv.Qualified, tt.qualified) {
				t.Errorf("qualified: expected %v, got %v", tt.qualified, adv.Qualified)
			}
			if len(tt.backfilled) > 0 && !reflect.DeepEqual(adv.Backfilled, tt.backfilled) {
				t.Errorf("backfilled: expected %v, got %v", tt.backfilled, adv.Backfilled)
			}
			if len(tt.backfilled) == 0 && len(adv.Backfilled) != 0 {
				t.Errorf("unexpected backfill %v", adv.Backfilled)
			}
		})
	}
}

func TestApplyAdvancementKeepsPoints(t *testing.T) {
	players := roster(
		Player{ID: "a", Points: 70, Health: 20, Lives: 1, IsActive: true},
		Player{ID: "b", Points: 30, Health: 0, Lives: 3, IsEliminated: true},
		Player{ID: "c", Points: 10, Health: 50, Lives: 3},
	)
	adv := Advancement{Advancing: []string{"a", "b"}}

	next := ApplyAdvancement(players, adv, 100, 3)

	want := []Player{
		{ID: "a", Name: "a", Points: 70, Health: 100, Lives: 3},
		{ID: "b", Name: "b", Points: 30, Health: 100, Lives: 3},
		{ID: "c", Name: "c", Points: 10, Health: 50, Lives: 3, IsEliminated: true},
	}
	if !reflect.DeepEqual(next, want) {
		t.Errorf("unexpected roster:\n got  %+v\n want %+v", next, want)
	}
	if players[0].Health != 20 {
		t.Error("ApplyAdvancement must not mutate its input")
	}
}

func TestPickWinner(t *testing.T) {
	tests := []struct {
		name       string
		players    []Player
		contenders map[string]bool
		want       string
		ok         bool
	}{
		{
			name:    "highest points",
			players: roster(Player{ID: "a", Points: 10}, Player{ID: "b", Points: 30}),
			want:    "b", ok: true,
		},
		{
			name:    "tie goes to lowest id",
			players: roster(Player{ID: "z", Points: 30}, Player{ID: "m", Points: 30}),
			want:    "m", ok: true,
		},
		{
			name:    "forced skipped",
			players: roster(Player{ID: "a", Points: 90, ForcedEliminated: true}, Player{ID: "b", Points: 5}),
			want:    "b", ok: true,
		},
		{
			name:       "contenders only",
			players:    roster(Player{ID: "a", Points: 90}, Player{ID: "b", Points: 5}),
			contenders: map[string]bool{"b": true},
			want:       "b", ok: true,
		},
		{
			name:    "nobody eligible",
			players: roster(Player{ID: "a", ForcedEliminated: true}),
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickWinner(tt.players, tt.contenders)
			if ok != tt.ok || got != tt.want {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}
