package dist

import "math"

// Modified Bessel functions of the first and second kind, order one.
// Polynomial approximations from Abramowitz & Stegun §9.8 (the usual
// Numerical Recipes coefficients), accurate to a few times 1e-7. The
// standard library only carries the unmodified J/Y family, and none of
// the numeric deps we use ship these.

// besselI1 returns I1(x).
func besselI1(x float64) float64 {
	ax := math.Abs(x)
	var ans float64
	if ax < 3.75 {
		y := x / 3.75
		y *= y
		ans = ax * (0.5 + y*(0.87890594+y*(0.51498869+y*(0.15084934+
			y*(0.2658733e-1+y*(0.301532e-2+y*0.32411e-3))))))
	} else {
		y := 3.75 / ax
		ans = 0.2282967e-1 + y*(-0.2895312e-1+y*(0.1787654e-1-y*0.420059e-2))
		ans = 0.39894228 + y*(-0.3988024e-1+y*(-0.362018e-2+
			y*(0.163801e-2+y*(-0.1031555e-1+y*ans))))
		ans *= math.Exp(ax) / math.Sqrt(ax)
	}
	if x < 0 {
		return -ans
	}
	return ans
}

// besselK1 returns K1(x) for x > 0.
func besselK1(x float64) float64 {
	if x <= 2.0 {
		y := x * x / 4.0
		return math.Log(x/2.0)*besselI1(x) + (1.0/x)*(1.0+y*(0.15443144+
			y*(-0.67278579+y*(-0.18156897+y*(-0.1919402e-1+
				y*(-0.110404e-2+y*(-0.4686e-4)))))))
	}
	return math.Exp(-x) * besselK1Scaled(x)
}

// besselK1Scaled returns e^x * K1(x) for x > 0. The scaled form stays
// representable for large x where K1 itself underflows.
func besselK1Scaled(x float64) float64 {
	if x <= 2.0 {
		return math.Exp(x) * besselK1(x)
	}
	y := 2.0 / x
	return (1.0 / math.Sqrt(x)) * (1.25331414 + y*(0.23498619+
		y*(-0.3655620e-1+y*(0.1504268e-1+y*(-0.780353e-2+
			y*(0.325614e-2+y*(-0.68245e-3)))))))
}
