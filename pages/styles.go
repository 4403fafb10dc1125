package pages

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// chromeLines is how many lines the app shell adds around a page: the
// title and its blank line above, then a blank line, the paginator and the
// help bar below.
const chromeLines = 5

const (
	ctaColor   = "#3b5bfd"
	labelColor = "#b0b4c0"
	debugColor = "#F59E0B"
)

var (
	unlockedFill = lipgloss.AdaptiveColor{Light: "#f0f2ff", Dark: "#2f3760"}
	lockedFill   = lipgloss.AdaptiveColor{Light: "#f3f4f8", Dark: "#24262e"}
)

// Block fill hue and lightness; saturation carries the decay level.
const (
	blockHue       = 226
	blockLightness = 0.6
)

// IntensityColor maps a saturation level in percent to a block fill color.
func IntensityColor(level int) lipgloss.Color {
	sat := min(max(float64(level)/100, 0), 1)
	return lipgloss.Color(colorful.Hsl(blockHue, sat, blockLightness).Clamped().Hex())
}
