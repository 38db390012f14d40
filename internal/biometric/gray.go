package biometric

import (
	"image"
	"math"
)

// luma converts 8-bit RGB to BT.601 luminance.
func luma(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// grayscale returns the luminance of every pixel of img inside r, row-major.
func grayscale(img *image.RGBA, r image.Rectangle) []float64 {
	r = r.Intersect(img.Bounds())
	w, h := r.Dx(), r.Dy()
	out := make([]float64, 0, w*h)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		for x := 0; x < w; x++ {
			out = append(out, luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2]))
			i += 4
		}
	}
	return out
}

// grayImage converts the region r of img to an 8-bit grayscale image.
func grayImage(img *image.RGBA, r image.Rectangle) *image.Gray {
	r = r.Intersect(img.Bounds())
	dst := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	vals := grayscale(img, r)
	for i, v := range vals {
		dst.Pix[i] = uint8(math.Round(v))
	}
	return dst
}

// LaplacianVariance is the variance of the 4-neighbour Laplacian over the
// region r of img. Sharp images have strong edges and a high variance.
// Regions smaller than 3x3 yield 0.
func LaplacianVariance(img *image.RGBA, r image.Rectangle) float64 {
	r = r.Intersect(img.Bounds())
	w, h := r.Dx(), r.Dy()
	if w < 3 || h < 3 {
		return 0
	}
	g := grayscale(img, r)

	var sum, sumSq float64
	n := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := y*w + x
			lap := g[c-w] + g[c+w] + g[c-1] + g[c+1] - 4*g[c]
			sum += lap
			sumSq += lap * lap
			n++
		}
	}
	mean := sum / float64(n)
	return math.Max(0, sumSq/float64(n)-mean*mean)
}
