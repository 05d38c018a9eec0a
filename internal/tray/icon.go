package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"runtime"
)

// icon renders the 16x16 tray glyph, two stacked clipboard cards. Linux
// and macOS take PNG bytes directly; Windows wants an ICO container.
func icon() []byte {
	data := pngIcon()
	if runtime.GOOS == "windows" {
		return icoWrap(data)
	}
	return data
}

func pngIcon() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	back := image.NewUniform(color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff})
	front := image.NewUniform(color.RGBA{R: 0x2f, G: 0x2f, B: 0x2f, A: 0xff})
	face := image.NewUniform(color.RGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff})
	draw.Draw(img, image.Rect(2, 1, 12, 11), back, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(5, 4, 15, 14), front, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(6, 5, 14, 13), face, image.Point{}, draw.Src)

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// icoWrap wraps PNG data in a single-image ICO container; Windows accepts
// PNG-compressed entries.
func icoWrap(pngData []byte) []byte {
	hdr := make([]byte, 22)
	binary.LittleEndian.PutUint16(hdr[2:], 1) // ICO
	binary.LittleEndian.PutUint16(hdr[4:], 1) // one image
	hdr[6] = 16
	hdr[7] = 16
	binary.LittleEndian.PutUint16(hdr[10:], 1)  // planes
	binary.LittleEndian.PutUint16(hdr[12:], 32) // bits per pixel
	binary.LittleEndian.PutUint32(hdr[14:], uint32(len(pngData)))
	binary.LittleEndian.PutUint32(hdr[18:], 22) // payload offset
	return append(hdr, pngData...)
}
