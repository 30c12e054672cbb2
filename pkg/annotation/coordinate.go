package annotation

// MapToDocument converts a click on the rendered page image into document
// points. Clients report pixel positions on the raster served for the page,
// which is drawn at page.RenderScale, so the position is divided by that scale.
// No bounds checking happens here.
func MapToDocument(imageX, imageY float64, page PageDescriptor) (float64, float64) {
	scale := page.RenderScale
	if scale <= 0 {
		scale = 1
	}
	return imageX / scale, imageY / scale
}
