package main

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sparkline renders a mini price graph.
type sparkline struct {
	data  []float64
	width int
	style lipgloss.Style
}

func newSparkline(width int) *sparkline {
	return &sparkline{
		width: width,
		style: lipgloss.NewStyle().Foreground(lipgloss.Color("36")),
	}
}

func (s *sparkline) setData(data []float64) {
	s.data = make([]float64, len(data))
	copy(s.data, data)
	if len(s.data) > s.width {
		s.data = s.data[len(s.data)-s.width:]
	}
}

func (s *sparkline) view() string {
	if len(s.data) == 0 {
		return s.style.Render(strings.Repeat("▁", s.width))
	}

	minVal, maxVal := s.data[0], s.data[0]
	for _, v := range s.data {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}

	var b strings.Builder
	for _, v := range s.data {
		idx := 0
		if maxVal > minVal {
			idx = int((v - minVal) / (maxVal - minVal) * float64(len(sparkBlocks)-1))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return s.style.Render(b.String())
}
