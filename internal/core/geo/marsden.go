package geo

import "math"

// MarsdenSquare returns the WMO 10°x10° Marsden square number containing p.
// Squares 1..288 cover 0-80N, 300..587 cover 0-80S and the polar caps use
// the 900 series.
func MarsdenSquare(p Point) int {
	col := mod(int(math.Floor(-p.Lon/10)), 36)
	switch {
	case p.Lat >= 80:
		return 900 + col + 1
	case p.Lat >= 0:
		row := int(math.Floor(p.Lat / 10))
		return row*36 + col + 1
	case p.Lat <= -80:
		return 936 + col + 1
	default:
		row := int(math.Floor(-p.Lat / 10))
		return 300 + row*36 + col
	}
}

// MarsdenOne returns the 1°x1° sub-square id: the Marsden square number times
// 100 plus the one-degree sub-square index (0..99).
func MarsdenOne(p Point) int {
	lat := int(math.Floor(math.Abs(p.Lat))) % 10
	lon := int(math.Floor(math.Abs(p.Lon))) % 10
	return MarsdenSquare(p)*100 + lat*10 + lon
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
