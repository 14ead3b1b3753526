package ops

import (
	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
	"github.com/skryldev/videoproc/tiling"
)

// binaryThresholdOp computes a global threshold via Otsu's method and maps
// every sample to 0 or 255 accordingly. Grounded on
// original_source/.../algorithms/histogram_equalization.cpp's histogram
// accumulation pattern and
// original_source/.../scripting/algorithms/binary_threshold.cpp.
type binaryThresholdOp struct{}

func (binaryThresholdOp) Name() string { return "binary_threshold" }

func (binaryThresholdOp) Overloads() []scripting.Overload {
	return []scripting.Overload{
		{
			ArgTypes: []scripting.ItemType{scripting.TypeGray, scripting.TypeString},
			Result:   scripting.TypeGray,
			Build: func(resultID int, args []scripting.ResolvedArg) (scripting.CompileFunc, error) {
				srcID := args[0].RefID

				return func(ctx *scripting.Context, pool *execpool.Pool) error {
					srcItem, err := ctx.MustGet(srcID)
					if err != nil {
						return err
					}
					src := srcItem.Image()

					cutoff := defaultCutoff(ctx)
					region := tiling.Region{X0: 0, Y0: 0, X1: src.W, Y1: src.H}
					hist := tiling.Reduce(pool, region, cutoff,
						func(tile tiling.Region) core.Histogram {
							var h core.Histogram
							for y := tile.Y0; y < tile.Y1; y++ {
								for x := tile.X0; x < tile.X1; x++ {
									h.Add(src.At(0, x, y))
								}
							}
							return h
						},
						core.Merge,
					)

					threshold := otsuThreshold(hist)
					out := core.NewImage(src.W, src.H, src.P, 1)
					tiling.Run(pool, region, cutoff, func(tile tiling.Region) {
						for y := tile.Y0; y < tile.Y1; y++ {
							for x := tile.X0; x < tile.X1; x++ {
								if src.At(0, x, y) > threshold {
									out.Set(0, x, y, 255)
								} else {
									out.Set(0, x, y, 0)
								}
							}
						}
					})

					ctx.Store(resultID, scripting.Item{Type: scripting.TypeGray, Gray: out})
					return nil
				}, nil
			},
		},
	}
}

// otsuThreshold finds the sample value that maximizes inter-class variance
// between the two partitions it splits hist into.
func otsuThreshold(hist core.Histogram) byte {
	total := hist.Total()
	if total == 0 {
		return 0
	}

	var sumAll float64
	for i, count := range hist.Bins {
		sumAll += float64(i) * float64(count)
	}

	var sumB, weightB float64
	var best byte
	var bestVariance float64

	for t := 0; t < core.HistogramBins; t++ {
		weightB += float64(hist.Bins[t])
		if weightB == 0 {
			continue
		}
		weightF := float64(total) - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t) * float64(hist.Bins[t])

		meanB := sumB / weightB
		meanF := (sumAll - sumB) / weightF
		diff := meanB - meanF
		variance := weightB * weightF * diff * diff

		if variance > bestVariance {
			bestVariance = variance
			best = byte(t)
		}
	}
	return best
}

func init() {
	scripting.Default.Register(binaryThresholdOp{})
}
