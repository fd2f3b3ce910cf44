package game

// Scoring and penalty arithmetic. These are pure functions: they never touch
// the registry or decide on elimination. A "depleted" result is only a signal;
// the engine applies the round's elimination policy.

// MaxHealth is the health ceiling (percent)
const MaxHealth = 100

// AwardPoints adds amount to the player's points. Awards are not clamped.
func AwardPoints(p Player, amount int) Player {
	p.Points += amount
	return p
}

// DeductHealth removes percent health, flooring at zero.
// The bool is true when health ends at zero.
func DeductHealth(p Player, percent int) (Player, bool) {
	p.Health = max(0, p.Health-percent)
	return p, p.Health == 0
}

// DeductLife removes one life, flooring at zero.
// The bool is true when no lives are left.
func DeductLife(p Player) (Player, bool) {
	p.Lives = max(0, p.Lives-1)
	return p, p.Lives == 0
}

// AdjustPoints applies a manual host correction, never going below zero.
func AdjustPoints(p Player, delta int) Player {
	p.Points = max(0, p.Points+delta)
	return p
}

// AdjustHealth applies a manual host correction clamped to [0, MaxHealth].
func AdjustHealth(p Player, delta int) Player {
	p.Health = min(MaxHealth, max(0, p.Health+delta))
	return p
}

