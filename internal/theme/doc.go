// Package theme contains the colour maths behind the player sheet: relative
// luminance and contrast ratios, the default palettes, and gradient extraction
// from album art.
package theme
