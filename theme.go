package rill

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The terminal's palette determines the actual RGB values. A negative index
// means "no color".
type Theme struct {
	User      int // User turn accent
	Assistant int // Assistant turn label
	Error     int // Failed turns and error status
	Success   int // Completed downloads
	Muted     int // Cancelled turns, status bar, placeholders
	Progress  int // Download progress bar
	Accent    int // Headings, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		User:      4,
		Assistant: 6,
		Error:     1,
		Success:   2,
		Muted:     8,
		Progress:  5,
		Accent:    5,
	}
}
