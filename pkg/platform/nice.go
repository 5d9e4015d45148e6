package platform

// NiceForLevel maps a governor priority level (1 low to 10 high) onto
// the nice scale (19 low to -10 high). Out-of-range levels clamp.
func NiceForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	if level > 10 {
		level = 10
	}
	// Level 1 -> nice 8, level 5 -> nice 0, level 10 -> nice -10.
	return 10 - 2*level
}
