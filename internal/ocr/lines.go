package ocr

import (
	"image"
	"sort"
)

// groupLines clusters word rects into text lines. Two rects share a line
// when their vertical ranges overlap by at least half the shorter height.
// Lines come back top-to-bottom, words within a line left-to-right.
func groupLines(words []image.Rectangle) [][]image.Rectangle {
	if len(words) == 0 {
		return nil
	}

	sorted := make([]image.Rectangle, len(words))
	copy(sorted, words)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min.Y < sorted[j].Min.Y })

	var lines [][]image.Rectangle
	var spans []image.Rectangle // running vertical span per line
	for _, w := range sorted {
		placed := false
		for i, span := range spans {
			if sharesLine(span, w) {
				lines[i] = append(lines[i], w)
				spans[i] = span.Union(w)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, []image.Rectangle{w})
			spans = append(spans, w)
		}
	}

	for _, line := range lines {
		sort.Slice(line, func(i, j int) bool { return line[i].Min.X < line[j].Min.X })
	}
	return lines
}

// sharesLine reports whether two rects overlap vertically by at least
// half the shorter rect's height.
func sharesLine(a, b image.Rectangle) bool {
	top := max(a.Min.Y, b.Min.Y)
	bot := min(a.Max.Y, b.Max.Y)
	overlap := bot - top
	if overlap <= 0 {
		return false
	}
	shorter := min(a.Dy(), b.Dy())
	return overlap*2 >= shorter
}

// lineBounds returns the union rectangle covering all rects in a line.
func lineBounds(rects []image.Rectangle) image.Rectangle {
	var u image.Rectangle
	for _, r := range rects {
		u = u.Union(r)
	}
	return u
}
