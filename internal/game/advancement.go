package game

import "sort"

// Advancement is the result of a round transition computation
type Advancement struct {
	From Round `json:"from"`
	To   Round `json:"to"`

	// Advancing lists every player moving on, qualifiers first, in ranking order
	Advancing []string `json:"advancing"`
	// Qualified are players who advanced on the round's primary metric
	Qualified []string `json:"qualified"`
	// Backfilled are eliminees pulled in to fill empty slots (Lucky Losers)
	Backfilled []string `json:"backfilled"`
	// LuckyLoser is the best recovery candidate, even if no slot was free for it
	LuckyLoser string `json:"luckyLoser,omitempty"`
	// Eliminated lists everyone not advancing
	Eliminated []string `json:"eliminated"`
}

// rankBefore orders players by points descending, then ID ascending.
// Every selection and the winner pick use this order so ties never depend
// on roster insertion order.
func rankBefore(a, b Player) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	return a.ID < b.ID
}

func sortByRank(players []Player) {
	sort.Slice(players, func(i, j int) bool {
		return rankBefore(players[i], players[j])
	})
}

// SelectRoundTwo picks the Round 2 field.
//
// The top slots players still holding health qualify directly. Players at zero
// health (or already eliminated) with at least threshold points are Lucky Loser
// candidates and only fill slots the qualifiers leave open. Forced eliminations
// are never considered.
func SelectRoundTwo(players []Player, slots, threshold int) Advancement {
	adv := Advancement{From: RoundOne, To: RoundTwo}

	var withHealth, eligible []Player
	for _, p := range players {
		switch {
		case p.ForcedEliminated:
		case p.Health > 0 && !p.IsEliminated:
			withHealth = append(withHealth, p)
		case p.Points >= threshold:
			eligible = append(eligible, p)
		}
	}
	sortByRank(withHealth)
	sortByRank(eligible)

	for _, p := range withHealth[:min(slots, len(withHealth))] {
		adv.Qualified = append(adv.Qualified, p.ID)
	}
	if len(eligible) > 0 {
		adv.LuckyLoser = eligible[0].ID
	}
	open := slots - len(adv.Qualified)
	for _, p := range eligible[:min(max(0, open), len(eligible))] {
		adv.Backfilled = append(adv.Backfilled, p.ID)
	}

	adv.finish(players)
	return adv
}

// SelectRoundThree picks the finalists among Round 2 contenders.
//
// Survivors (still in play) are ranked by lives, then points. If fewer than
// slots survive, the other contenders are backfilled by points. A nil
// contenders set treats the whole roster as contenders.
func SelectRoundThree(players []Player, contenders map[string]bool, slots int) Advancement {
	adv := Advancement{From: RoundTwo, To: RoundThree}

	var survivors, pool []Player
	for _, p := range players {
		if p.ForcedEliminated || (contenders != nil && !contenders[p.ID]) {
			continue
		}
		if p.InPlay() {
			survivors = append(survivors, p)
		} else {
			pool = append(pool, p)
		}
	}
	sort.Slice(survivors, func(i, j int) bool {
		if survivors[i].Lives != survivors[j].Lives {
			return survivors[i].Lives > survivors[j].Lives
		}
		return rankBefore(survivors[i], survivors[j])
	})
	sortByRank(pool)

	for _, p := range survivors[:min(slots, len(survivors))] {
		adv.Qualified = append(adv.Qualified, p.ID)
	}
	open := slots - len(adv.Qualified)
	for _, p := range pool[:min(max(0, open), len(pool))] {
		adv.Backfilled = append(adv.Backfilled, p.ID)
	}

	adv.finish(players)
	return adv
}

// finish fills Advancing and Eliminated from Qualified and Backfilled
func (a *Advancement) finish(players []Player) {
	a.Advancing = append(append([]string{}, a.Qualified...), a.Backfilled...)

	in := a.advancingSet()
	a.Eliminated = a.Eliminated[:0]
	for _, p := range players {
		if !in[p.ID] {
			a.Eliminated = append(a.Eliminated, p.ID)
		}
	}
}

func (a Advancement) advancingSet() map[string]bool {
	set := make(map[string]bool, len(a.Advancing))
	for _, id := range a.Advancing {
		set[id] = true
	}
	return set
}

// ApplyAdvancement returns the roster after a transition: advancing players
// get fresh health and lives with their points kept, everyone else is
// eliminated. Nobody stays active across a round change.
func ApplyAdvancement(players []Player, adv Advancement, health, lives int) []Player {
	in := adv.advancingSet()
	out := make([]Player, len(players))
	for i, p := range players {
		p.IsActive = false
		if in[p.ID] {
			p.Health = health
			p.Lives = lives
			p.IsEliminated = false
		} else {
			p.IsEliminated = true
		}
		out[i] = p
	}
	return out
}

// PickWinner returns the highest ranked non-forced player among contenders
// (the whole roster when contenders is nil). Ties go to the lowest ID.
func PickWinner(players []Player, contenders map[string]bool) (string, bool) {
	var best *Player
	for i := range players {
		p := &players[i]
		if p.ForcedEliminated || (contenders != nil && !contenders[p.ID]) {
			continue
		}
		if best == nil || rankBefore(*p, *best) {
			best = p
		}
	}
	if best == nil {
		return "", false
	}
	return best.ID, true
}

// anyInPlay reports whether a contender can still act
func anyInPlay(players []Player, contenders map[string]bool) bool {
	for _, p := range players {
		if contenders != nil && !contenders[p.ID] {
			continue
		}
		if p.InPlay() {
			return true
		}
	}
	return false
}
