/*
Package tile implements the planar 2bpp tile format used by the raw tile
tables extracted from the ROM.

Each tile is 8 by 8 pixels at two bits per pixel, stored as 16 bytes. A
row is a pair of bytes holding the low and high bit planes; bit 7 of each
byte is the leftmost pixel, so a pixel value is the high plane bit shifted
up by one ORed with the low plane bit, giving a palette index from 0 to 3.
*/
package tile

const (
	// Width and Height are the pixel dimensions of every tile.
	Width  = 8
	Height = Width

	// Size is the encoded length of one tile in bytes.
	Size = Width * Height * 2 / 8
)

// Pixels is an 8 by 8 grid of palette indices in row-major order.
type Pixels [Height][Width]uint8
