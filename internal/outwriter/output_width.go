package outwriter

import (
	"os"

	"golang.org/x/term"
)

// GetMaxTableRepositoryWidth calculates the maximum width for repository URIs
// in table output based on terminal width. withID reserves room for the
// package ID column.
func GetMaxTableRepositoryWidth(width int, withID bool) int {
	termWidth := width

	if termWidth <= 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Status, counts and averages with borders/padding
	baseWidth := 85
	if withID {
		baseWidth += 30
	}

	available := termWidth - baseWidth
	if available < 20 {
		return 20
	}
	if available > 70 {
		return 70
	}
	return available
}
