// Package signature finds signature anchor phrases in a document's text
// layout and stamps a signature image next to each of them.
//
// Anchor boxes and placement rectangles use a top-left page space where Y
// grows downward. A placement is left-aligned with its anchor and
// vertically centred on the anchor's bottom edge:
//
//	left   = anchor.X0
//	top    = anchor.Y1 - Height/2 + VerticalAdjustment
//	right  = left + Width
//	bottom = top + Height
//
// The image is fitted inside the placement keeping its aspect ratio. All
// stamps are applied in memory and the document is written once, so a
// failure before the final write leaves no output file.
package signature
