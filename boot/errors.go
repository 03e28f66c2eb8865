package boot

import "errors"

var (
	ErrRegionInverted = errors.New("region end precedes start")
	ErrRegionOverlap  = errors.New("regions overlap")
	ErrImageOverlap   = errors.New("initialized data image overlaps its destination")
	ErrStackOutside   = errors.New("stack top lies outside of ram")
)
