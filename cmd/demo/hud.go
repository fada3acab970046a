package main

import (
	"fmt"
	"strings"
)

// frameStats accumulates frame times and formats them for the window title.
type frameStats struct {
	frames  int
	elapsed float64
	fps     float64
	lines   []string
}

// Tick records one frame. It reports true once per second, when fps is
// refreshed.
func (s *frameStats) Tick(dt float64) bool {
	s.frames++
	s.elapsed += dt
	if s.elapsed < 1 {
		return false
	}
	s.fps = float64(s.frames) / s.elapsed
	s.frames, s.elapsed = 0, 0
	return true
}

func (s *frameStats) AddLine(format string, args ...any) {
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
}

// Title joins the collected lines and clears them.
func (s *frameStats) Title(prefix string) string {
	parts := append([]string{prefix, fmt.Sprintf("%.0f fps", s.fps)}, s.lines...)
	s.lines = s.lines[:0]
	return strings.Join(parts, " | ")
}
