package paint

// floodFill replaces the 4-connected region of identically coloured pixels
// around (x, y) with the stroke colour.
func (c *Canvas) floodFill(x, y int) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.flush(c.base)
	img := pixels(c.base)
	pix := img.Pix
	target := pixelAt(pix, img.PixOffset(x, y))
	fill := [4]uint8{c.color.R, c.color.G, c.color.B, c.color.A}
	if target == fill {
		return
	}

	stack := [][2]int{{x, y}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		px, py := p[0], p[1]
		if px < 0 || py < 0 || px >= c.width || py >= c.height {
			continue
		}
		off := img.PixOffset(px, py)
		if pixelAt(pix, off) != target {
			continue
		}
		copy(pix[off:off+4], fill[:])
		stack = append(stack, [2]int{px + 1, py}, [2]int{px - 1, py}, [2]int{px, py + 1}, [2]int{px, py - 1})
	}
	c.log.Debug("flood fill", "x", x, "y", y)
}

func pixelAt(pix []uint8, off int) [4]uint8 {
	return [4]uint8{pix[off], pix[off+1], pix[off+2], pix[off+3]}
}
