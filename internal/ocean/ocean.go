// Package ocean holds seawater equations used to derive sound speed from
// CTD style measurements.
package ocean

import "math"

// SoundSpeed returns the speed of sound in m/s using the nine-term Mackenzie
// (1981) equation. Temperature in °C, salinity in ppt, depth in m.
func SoundSpeed(temp, salinity, depth float64) float64 {
	t, s, d := temp, salinity-35, depth
	return 1448.96 +
		4.591*t -
		5.304e-2*t*t +
		2.374e-4*t*t*t +
		1.340*s +
		1.630e-2*d +
		1.675e-7*d*d -
		1.025e-2*t*s -
		7.139e-13*t*d*d*d
}

// DepthFromPressure converts pressure in decibar to depth in m at the given
// latitude (UNESCO 1983, Fofonoff and Millard).
func DepthFromPressure(pressure, lat float64) float64 {
	x := math.Sin(lat * math.Pi / 180)
	x *= x
	g := 9.780318*(1+(5.2788e-3+2.36e-5*x)*x) + 1.092e-6*pressure
	p := pressure
	return ((((-1.82e-15*p+2.279e-10)*p-2.2512e-5)*p + 9.72659) * p) / g
}
