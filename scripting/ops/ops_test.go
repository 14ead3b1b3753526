package ops

import (
	"testing"

	"github.com/skryldev/videoproc/core"
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
)

func newEvalPool(t *testing.T) *execpool.Pool {
	t.Helper()
	pool := execpool.New(4)
	t.Cleanup(pool.Close)
	return pool
}

func evalGray(t *testing.T, src string, primary, secondary *core.Image, params map[string]float64) *core.Image {
	t.Helper()
	compiled, err := scripting.Compile(src, scripting.Default)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	proc := scripting.NewImageProcessor(scripting.Default)
	for k, v := range params {
		proc.AddParam(k, v)
	}
	item, err := proc.Evaluate(newEvalPool(t), compiled, primary, secondary)
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", src, err)
	}
	img := item.Image()
	if img == nil {
		t.Fatalf("Evaluate(%q) did not produce an image item", src)
	}
	return img
}

// ringImage builds the 4x4 grayscale image spec.md §8's mean/threshold
// scenarios use: a 2x2 block of 255s surrounded by a ring of 0s.
func ringImage() *core.Image {
	img := core.NewImage(4, 4, 0, core.ChannelsGray)
	vals := [4][4]byte{
		{0, 0, 0, 0},
		{0, 255, 255, 0},
		{0, 255, 255, 0},
		{0, 0, 0, 0},
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(0, x, y, vals[y][x])
		}
	}
	return img
}

// TestMean_3x3ConstantBorder is spec.md §8 scenario 2: the center pixel of
// a 3x3 mean filter with a constant border over the ring image must equal
// (255*4)/9 = 113.
func TestMean_3x3ConstantBorder(t *testing.T) {
	out := evalGray(t, `a = input(); b = mean(a, 3, 3, "constant"); b`, ringImage(), nil, nil)
	if got := out.At(0, 1, 1); got != 113 {
		t.Errorf("mean center pixel: got %d, want 113", got)
	}
}

// TestBinaryThreshold_Otsu is spec.md §8 scenario 3: the four interior
// pixels of the ring image become 255, the twelve border pixels become 0.
func TestBinaryThreshold_Otsu(t *testing.T) {
	out := evalGray(t, `a = input(); b = binary_threshold(a, "normal"); b`, ringImage(), nil, nil)

	var ones, zeros int
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v := out.At(0, x, y)
			interior := x >= 1 && x <= 2 && y >= 1 && y <= 2
			if interior {
				if v != 255 {
					t.Errorf("interior pixel (%d,%d): got %d, want 255", x, y, v)
				}
				ones++
			} else {
				if v != 0 {
					t.Errorf("border pixel (%d,%d): got %d, want 0", x, y, v)
				}
				zeros++
			}
		}
	}
	if ones != 4 || zeros != 12 {
		t.Fatalf("got %d interior / %d border pixels, want 4 / 12", ones, zeros)
	}
}

// TestDiff_IdenticalFramesIsZero is spec.md §8 scenario 4: diffing two
// identical frames yields an all-zero output.
func TestDiff_IdenticalFramesIsZero(t *testing.T) {
	frame := ringImage()
	out := evalGray(t, `a = input(); b = input(1); diff(a, b)`, frame, frame, nil)
	for y := 0; y < out.H; y++ {
		for x := 0; x < out.W; x++ {
			if v := out.At(0, x, y); v != 0 {
				t.Fatalf("diff of identical frames at (%d,%d): got %d, want 0", x, y, v)
			}
		}
	}
}

// TestHistogram_TileAssociativity is spec.md §8 scenario 5: a full-image
// histogram over a gradient must agree regardless of tile cutoff.
func TestHistogram_TileAssociativity(t *testing.T) {
	const n = 256
	img := core.NewImage(n, n, 0, core.ChannelsGray)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			img.Set(0, x, y, byte((x+y)%256))
		}
	}

	fine, err := evalHistogram(t, img, 32)
	if err != nil {
		t.Fatal(err)
	}
	coarse, err := evalHistogram(t, img, 512)
	if err != nil {
		t.Fatal(err)
	}
	if fine != coarse {
		t.Error("histogram result depends on tile cutoff")
	}
}

func evalHistogram(t *testing.T, img *core.Image, cutoff float64) (core.Histogram, error) {
	t.Helper()
	compiled, err := scripting.Compile(`a = input(); b = histogram(a); b`, scripting.Default)
	if err != nil {
		return core.Histogram{}, err
	}
	proc := scripting.NewImageProcessor(scripting.Default)
	proc.AddParam("cutoff_x", cutoff)
	proc.AddParam("cutoff_y", cutoff)
	item, err := proc.Evaluate(newEvalPool(t), compiled, img, nil)
	if err != nil {
		return core.Histogram{}, err
	}
	return item.Hist, nil
}

func TestMultiplyAdd_AffineClamp(t *testing.T) {
	src := core.NewImage(2, 1, 0, core.ChannelsGray)
	src.Set(0, 0, 0, 100)
	src.Set(0, 1, 0, 250)

	out := evalGray(t, `a = input(); b = multiply_add(a, 2.0, 10.0); b`, src, nil, nil)
	if got := out.At(0, 0, 0); got != 210 {
		t.Errorf("multiply_add(100): got %d, want 210", got)
	}
	if got := out.At(0, 1, 0); got != 255 {
		t.Errorf("multiply_add clamp(250): got %d, want 255 (clamped)", got)
	}
}

func TestThreshold_FixedCutoff(t *testing.T) {
	out := evalGray(t, `a = input(); b = threshold(a, 128); b`, ringImage(), nil, nil)
	if got := out.At(0, 1, 1); got != 255 {
		t.Errorf("threshold(255) above cutoff: got %d, want 255", got)
	}
	if got := out.At(0, 0, 0); got != 0 {
		t.Errorf("threshold(0) below cutoff: got %d, want 0", got)
	}
}

func TestAnd_MasksBorderAgainstThreshold(t *testing.T) {
	out := evalGray(t, `a = input(); m = binary_threshold(a, "normal"); c = and(a, m); c`, ringImage(), nil, nil)
	if got := out.At(0, 1, 1); got != 255 {
		t.Errorf("and at interior pixel: got %d, want 255", got)
	}
	if got := out.At(0, 0, 0); got != 0 {
		t.Errorf("and at border pixel: got %d, want 0", got)
	}
}

func TestPooling_MaxDownsample(t *testing.T) {
	out := evalGray(t, `a = input(); b = pooling(a, 2, 2); b`, ringImage(), nil, nil)
	if out.W != 2 || out.H != 2 {
		t.Fatalf("pooling output shape: got %dx%d, want 2x2", out.W, out.H)
	}
	if got := out.At(0, 0, 0); got != 255 {
		t.Errorf("pooling top-left 2x2 block: got %d, want 255 (contains the 255 corner)", got)
	}
}

func TestResize_Dimensions(t *testing.T) {
	out := evalGray(t, `a = input(); b = resize(a, 8, 8); b`, ringImage(), nil, nil)
	if out.W != 8 || out.H != 8 {
		t.Fatalf("resize output shape: got %dx%d, want 8x8", out.W, out.H)
	}
}

// TestMean_IgnoreBorderLeavesMarginUntouched exercises spec.md §4.9's
// "Border mode ignore leaves a half-kernel margin untouched": a 3x3 mean
// filter's one-pixel-wide border must stay at the destination's zero
// default rather than being overwritten with a partial-window average.
func TestMean_IgnoreBorderLeavesMarginUntouched(t *testing.T) {
	out := evalGray(t, `a = input(); b = mean(a, 3, 3, "ignore"); b`, ringImage(), nil, nil)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			margin := x == 0 || x == 3 || y == 0 || y == 3
			if !margin {
				continue
			}
			if got := out.At(0, x, y); got != 0 {
				t.Errorf("ignore-border margin pixel (%d,%d): got %d, want untouched (0)", x, y, got)
			}
		}
	}
	// The interior is a genuine 3x3 average over valid samples only.
	if got := out.At(0, 1, 1); got != 113 {
		t.Errorf("ignore-border interior pixel: got %d, want 113", got)
	}
}

func TestSobel_IgnoreBorderLeavesMarginUntouched(t *testing.T) {
	flat := core.NewImage(4, 4, 0, core.ChannelsGray)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			flat.Set(0, x, y, 128)
		}
	}
	out := evalGray(t, `a = input(); b = sobel(a, "ignore"); b`, flat, nil, nil)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			margin := x == 0 || x == 3 || y == 0 || y == 3
			if margin {
				if got := out.At(0, x, y); got != 0 {
					t.Errorf("ignore-border margin pixel (%d,%d): got %d, want untouched (0)", x, y, got)
				}
			}
		}
	}
}

func TestSobel_ZeroOnFlatImage(t *testing.T) {
	flat := core.NewImage(4, 4, 0, core.ChannelsGray)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			flat.Set(0, x, y, 128)
		}
	}
	out := evalGray(t, `a = input(); b = sobel(a, "constant"); b`, flat, nil, nil)
	for y := 1; y < 3; y++ {
		for x := 1; x < 3; x++ {
			if v := out.At(0, x, y); v != 0 {
				t.Errorf("sobel on flat interior pixel (%d,%d): got %d, want 0", x, y, v)
			}
		}
	}
}
