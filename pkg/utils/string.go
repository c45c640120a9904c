package utils

// Truncate shortens s to at most width bytes, trading the tail for an
// ellipsis. Widths too small to hold the ellipsis get a hard cut.
func Truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
