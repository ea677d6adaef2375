// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package schedule

import (
	"math/rand"
)

// DefaultSplayPercent is the default jitter window applied to nominal
// query intervals.
const DefaultSplayPercent = 10

// splayValue jitters original within +/- splayPercent of itself. A
// percent outside (0, 100] disables splay. The result is never below
// one second, so a validated interval can never splay to a value the
// due-check would reject.
func splayValue(original, splayPercent int) int {
	if splayPercent <= 0 || splayPercent > 100 {
		return original
	}
	spread := original * splayPercent / 100
	if spread == 0 {
		return original
	}
	min := original - spread
	if min < 1 {
		min = 1
	}
	max := original + spread
	if max == min {
		return max
	}
	return min + rand.Intn(max-min)
}
