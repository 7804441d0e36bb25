package main

import "fmt"

// Color is a 0xRRGGBB value. Visual only; never consulted by game rules.
type Color uint32

// Hex formats the color as #rrggbb
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// ColorRegistry maps team ids to their display colors
type ColorRegistry interface {
	TeamColor(team PlayerID) Color
	Neutral() Color
}

// TeamColor returns the palette color for a team, cycling when teams outnumber colors
func (p Palette) TeamColor(team PlayerID) Color {
	if team <= NeutralID || len(p.Teams) == 0 {
		return p.NeutralColor
	}
	return p.Teams[(int(team)-1)%len(p.Teams)]
}

// Neutral returns the unowned color
func (p Palette) Neutral() Color {
	return p.NeutralColor
}
