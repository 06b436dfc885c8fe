package geometry

import "math"

func cosDeg(d int) float64 { return math.Cos(float64(d) * math.Pi / 180) }
func sinDeg(d int) float64 { return math.Sin(float64(d) * math.Pi / 180) }
