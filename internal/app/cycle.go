package app

// cycle moves cur by delta over n entries, wrapping in both directions.
func cycle(cur, n, delta int) int {
	if n <= 0 {
		return 0
	}
	return ((cur+delta)%n + n) % n
}

// next returns the name after cur in names, wrapping around.
func next(names []string, cur string) string {
	for i, n := range names {
		if n == cur {
			return names[cycle(i, len(names), 1)]
		}
	}
	if len(names) == 0 {
		return cur
	}
	return names[0]
}
