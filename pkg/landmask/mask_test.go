package landmask

import (
	stderrors "errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/landcells/pkg/errors"
	"github.com/matzehuels/landcells/pkg/geom"
)

func TestFromImage(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	nrgba.Set(1, 0, color.NRGBA{A: 1})
	nrgba.Set(2, 1, color.NRGBA{R: 10, A: 255})

	opaque := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White})
	transparent := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Transparent, color.White})
	transparent.SetColorIndex(0, 0, 1)

	tests := []struct {
		name      string
		img       image.Image
		wantErr   errors.Code
		wantLand  int
		landPoint image.Point
	}{
		{"nrgba", nrgba, "", 2, image.Point{X: 1, Y: 0}},
		{"alpha", image.NewAlpha(image.Rect(0, 0, 4, 4)), "", 0, image.Point{X: -1}},
		{"paletted with transparency", transparent, "", 1, image.Point{X: 0, Y: 0}},
		{"opaque palette", opaque, errors.ErrCodeImageFormat, 0, image.Point{}},
		{"gray", image.NewGray(image.Rect(0, 0, 2, 2)), errors.ErrCodeImageFormat, 0, image.Point{}},
		{"ycbcr", image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio420), errors.ErrCodeImageFormat, 0, image.Point{}},
		{"empty", image.NewNRGBA(image.Rect(0, 0, 0, 0)), errors.ErrCodeImageFormat, 0, image.Point{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := FromImage(tt.img)
			if tt.wantErr != "" {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FromImage() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromImage() error = %v", err)
			}
			if m.LandCount() != tt.wantLand {
				t.Errorf("LandCount() = %d, want %d", m.LandCount(), tt.wantLand)
			}
			if tt.landPoint.X >= 0 && !m.IsLand(tt.landPoint.X, tt.landPoint.Y) {
				t.Errorf("IsLand(%v) = false, want true", tt.landPoint)
			}
		})
	}
}

func TestFromImageOffsetBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(5, 5, 8, 8))
	img.Set(5, 5, color.NRGBA{A: 255})
	m, err := FromImage(img)
	if err != nil {
		t.Fatal(err)
	}
	if m.Width() != 3 || m.Height() != 3 {
		t.Errorf("size = %dx%d, want 3x3", m.Width(), m.Height())
	}
	if !m.IsLand(0, 0) {
		t.Error("IsLand(0, 0) = false, want true")
	}
}

func TestIsLandOutOfRange(t *testing.T) {
	m, err := FromRows("##", "##")
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}, {100, 100}} {
		if m.IsLand(p[0], p[1]) {
			t.Errorf("IsLand(%d, %d) = true, want false", p[0], p[1])
		}
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(0, 3, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New(0, 3) error = %v, want INVALID_INPUT", err)
	}
	if _, err := New(2, 2, make([]bool, 3)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New(2, 2, 3 cells) error = %v, want INVALID_INPUT", err)
	}
	if _, err := FromRows("##", "#"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("FromRows(ragged) error = %v, want INVALID_INPUT", err)
	}
}

func TestBoundary(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		area float64
	}{
		{"single pixel", []string{"...", ".#.", "..."}, 1},
		{"full square", []string{"###", "###", "###"}, 9},
		{"diagonal", []string{"#..", ".#.", "..#"}, 5},
		{"ring coast", []string{"###", "#.#", "###"}, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := FromRows(tt.rows...)
			if err != nil {
				t.Fatal(err)
			}
			b, err := m.Boundary()
			if err != nil {
				t.Fatalf("Boundary() error = %v", err)
			}
			if got := geom.SignedArea(b); got != tt.area {
				t.Errorf("area = %v, want %v", got, tt.area)
			}
			if !geom.IsConvex(b) {
				t.Errorf("boundary %v is not convex", b)
			}
			for _, p := range m.LandPixels() {
				if !geom.Contains(b, [2]float64{float64(p.X), float64(p.Y)}) {
					t.Errorf("land pixel %v outside boundary", p)
				}
			}
		})
	}
}

func TestBoundaryNoLand(t *testing.T) {
	m, _ := FromRows("..", "..")
	_, err := m.Boundary()
	var de *errors.DegenerateInputError
	if !stderrors.As(err, &de) {
		t.Fatalf("Boundary() error = %v, want DegenerateInputError", err)
	}
	if _, err := m.BoundaryFor(BoundaryBBox); !errors.Is(err, errors.ErrCodeDegenerateInput) {
		t.Errorf("BoundaryFor(bbox) error = %v, want DEGENERATE_INPUT", err)
	}
}

func TestBoundaryFor(t *testing.T) {
	m, _ := FromRows("....", ".#..", "....")
	hull, err := m.BoundaryFor("")
	if err != nil || geom.Area(hull) != 1 {
		t.Errorf("BoundaryFor(\"\") = %v, %v; want unit footprint", hull, err)
	}
	box, err := m.BoundaryFor(BoundaryBBox)
	if err != nil || geom.Area(box) != 12 {
		t.Errorf("BoundaryFor(bbox) = %v, %v; want 4x3 box", box, err)
	}
	if _, err := m.BoundaryFor("alpha-shape"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("BoundaryFor(unknown) error = %v, want INVALID_INPUT", err)
	}
}

func TestImageRoundTrip(t *testing.T) {
	m, _ := FromRows("#.", ".#")
	back, err := FromImage(m.Image())
	if err != nil {
		t.Fatal(err)
	}
	for y := range 2 {
		for x := range 2 {
			if back.IsLand(x, y) != m.IsLand(x, y) {
				t.Errorf("pixel (%d,%d) differs after round trip", x, y)
			}
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "map.png")
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(2, 2, color.NRGBA{G: 200, A: 255})
	writeImage(t, pngPath, func(f *os.File) error { return png.Encode(f, img) })

	m, decoded, err := LoadFile(pngPath)
	if err != nil {
		t.Fatalf("LoadFile(png) error = %v", err)
	}
	if decoded == nil || m.LandCount() != 1 || !m.IsLand(2, 2) {
		t.Errorf("LoadFile(png) land = %d, want pixel (2,2)", m.LandCount())
	}

	jpgPath := filepath.Join(dir, "map.jpg")
	writeImage(t, jpgPath, func(f *os.File) error { return jpeg.Encode(f, img, nil) })
	if _, _, err := LoadFile(jpgPath); !errors.Is(err, errors.ErrCodeImageFormat) {
		t.Errorf("LoadFile(jpeg) error = %v, want IMAGE_FORMAT", err)
	}

	if _, _, err := LoadFile(filepath.Join(dir, "missing.png")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("LoadFile(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func writeImage(t *testing.T, path string, enc func(*os.File) error) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := enc(f); err != nil {
		t.Fatal(err)
	}
}
