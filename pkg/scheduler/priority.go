package scheduler

// Priority bounds for governed tasks. Higher means more urgent.
const (
	minPriority = 1
	maxPriority = 10

	defaultPriority = 5
)

// PriorityFor returns the scheduling priority for an app type and
// foreground state. Unknown app types get the neutral default.
func PriorityFor(appType string, foreground bool) int {
	type pair struct{ fg, bg int }
	table := map[string]pair{
		"game":         {fg: 10, bg: 5},
		"social":       {fg: 8, bg: 3},
		"media":        {fg: 7, bg: 4},
		"productivity": {fg: 9, bg: 6},
	}

	p, ok := table[appType]
	if !ok {
		return defaultPriority
	}
	if foreground {
		return p.fg
	}
	return p.bg
}

func clampPriority(p int) int {
	if p < minPriority {
		return minPriority
	}
	if p > maxPriority {
		return maxPriority
	}
	return p
}
