package theme

import (
	"image"
	"io"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	sampleSize    = 64
	clusterCount  = 5
	maxIterations = 12
	// darkLightness caps the Lab lightness of gradient stops in dark themes.
	darkLightness = 0.45
)

// FallbackGradient is used when an image doesn't have two distinct colours.
var FallbackGradient = []colorful.Color{MustHex("#595959"), MustHex("#0d0d0d")}

// Decode decodes a thumbnail. JPEG, PNG, GIF, BMP and WebP are supported.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}
	return img, nil
}

type labPixel struct {
	l, a, b float64
	weight  float64
}

type cluster struct {
	l, a, b    float64
	population int
}

// ExtractGradient extracts a two-stop vertical gradient out of img. The stops
// are the two most common colour clusters, lighter one first. Dark themes get
// both stops darkened so light foregrounds stay readable.
func ExtractGradient(img image.Image, dark bool) []colorful.Color {
	pixels := samplePixels(img)
	clusters := kmeans(pixels, clusterCount)

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].population > clusters[j].population
	})

	if len(clusters) < 2 || clusters[1].population == 0 {
		return append([]colorful.Color(nil), FallbackGradient...)
	}

	stops := []colorful.Color{
		colorful.Lab(clusters[0].l, clusters[0].a, clusters[0].b).Clamped(),
		colorful.Lab(clusters[1].l, clusters[1].a, clusters[1].b).Clamped(),
	}

	if Luminance(stops[0]) < Luminance(stops[1]) {
		stops[0], stops[1] = stops[1], stops[0]
	}

	if dark {
		for i, stop := range stops {
			stops[i] = darken(stop, darkLightness)
		}
	}

	return stops
}

func darken(c colorful.Color, maxL float64) colorful.Color {
	l, a, b := c.Lab()
	if l <= maxL {
		return c
	}
	return colorful.Lab(maxL, a*maxL/l, b*maxL/l).Clamped()
}

func samplePixels(img image.Image) []labPixel {
	thumb := resize.Thumbnail(sampleSize, sampleSize, img, resize.Bilinear)
	bounds := thumb.Bounds()

	pixels := make([]labPixel, 0, bounds.Dx()*bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := thumb.At(x, y)

			_, _, _, alpha := px.RGBA()
			if alpha < 0x8000 {
				continue
			}

			c, ok := colorful.MakeColor(px)
			if !ok {
				continue
			}

			l, a, b := c.Lab()
			pixels = append(pixels, labPixel{l, a, b, float64(alpha) / 0xffff})
		}
	}

	return pixels
}

// kmeans clusters the pixels in Lab space. The initial centroids are picked
// from lightness quantiles, so the result is deterministic.
func kmeans(pixels []labPixel, k int) []cluster {
	if len(pixels) == 0 {
		return nil
	}

	sorted := append([]labPixel(nil), pixels...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].l < sorted[j].l })

	clusters := make([]cluster, k)
	for i := range clusters {
		p := sorted[(2*i+1)*len(sorted)/(2*k)]
		clusters[i] = cluster{l: p.l, a: p.a, b: p.b}
	}

	assign := make([]int, len(pixels))

	var ls, as, bs, ws []float64

	for iter := 0; iter < maxIterations; iter++ {
		var moved bool

		for i, p := range pixels {
			nearest := nearestCluster(clusters, p)
			if iter == 0 || assign[i] != nearest {
				assign[i] = nearest
				moved = true
			}
		}

		for c := range clusters {
			ls, as, bs, ws = ls[:0], as[:0], bs[:0], ws[:0]

			for i, p := range pixels {
				if assign[i] != c {
					continue
				}
				ls = append(ls, p.l)
				as = append(as, p.a)
				bs = append(bs, p.b)
				ws = append(ws, p.weight)
			}

			clusters[c].population = len(ls)
			if len(ls) == 0 {
				continue
			}

			clusters[c].l = stat.Mean(ls, ws)
			clusters[c].a = stat.Mean(as, ws)
			clusters[c].b = stat.Mean(bs, ws)
		}

		if !moved {
			break
		}
	}

	return mergeClose(clusters)
}

// mergeClose folds clusters whose centroids are visually indistinguishable
// into the more populous one.
func mergeClose(clusters []cluster) []cluster {
	const minDistance = 0.08

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].population > clusters[j].population
	})

	merged := clusters[:0:0]

Outer:
	for _, c := range clusters {
		if c.population == 0 {
			continue
		}
		for i, m := range merged {
			if labDistance(c, m) < minDistance {
				merged[i].population += c.population
				continue Outer
			}
		}
		merged = append(merged, c)
	}

	return merged
}

func nearestCluster(clusters []cluster, p labPixel) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range clusters {
		dl, da, db := c.l-p.l, c.a-p.a, c.b-p.b
		if dist := dl*dl + da*da + db*db; dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

func labDistance(x, y cluster) float64 {
	dl, da, db := x.l-y.l, x.a-y.a, x.b-y.b
	return math.Sqrt(dl*dl + da*da + db*db)
}
