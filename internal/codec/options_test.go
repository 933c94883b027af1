package codec

import "testing"

func TestDeriveQuantizeTotalAndDeterministic(t *testing.T) {
	for q := 1; q <= 100; q++ {
		a := DeriveQuantize(q, false)
		b := DeriveQuantize(q, false)
		if a != b {
			t.Fatalf("quality %d not deterministic", q)
		}
		if a.PaletteCap < 2 || a.PaletteCap > 256 {
			t.Fatalf("quality %d: palette cap %d out of range", q, a.PaletteCap)
		}
		if a.Dithering < 0 || a.Dithering > 1 {
			t.Fatalf("quality %d: dithering %f out of range", q, a.Dithering)
		}
		if a.MinQuality >= a.TargetQuality {
			t.Fatalf("quality %d: window [%d,%d] inverted", q, a.MinQuality, a.TargetQuality)
		}
	}
}

func TestDeriveQuantizeMonotonicCap(t *testing.T) {
	prev := DeriveQuantize(1, false)
	for q := 2; q <= 100; q++ {
		cur := DeriveQuantize(q, false)
		if cur.PaletteCap < prev.PaletteCap {
			t.Fatalf("palette cap decreased from %d to %d between quality %d and %d",
				prev.PaletteCap, cur.PaletteCap, q-1, q)
		}
		if cur.Dithering < prev.Dithering {
			t.Fatalf("dithering decreased between quality %d and %d", q-1, q)
		}
		prev = cur
	}
}

func TestDeriveQuantizeEdgesDistinct(t *testing.T) {
	low := DeriveQuantize(1, false)
	high := DeriveQuantize(100, false)
	if low.PaletteCap == high.PaletteCap {
		t.Fatal("quality 1 and 100 should land in distinct tiers")
	}
}

func TestPhotoQualityThreshold(t *testing.T) {
	if PhotoQuality(97) {
		t.Fatal("97 should not be photo quality")
	}
	if !PhotoQuality(98) {
		t.Fatal("98 should be photo quality")
	}

	below := DeriveQuantize(97, false)
	above := DeriveQuantize(98, false)
	if below.Filter != FilterNone {
		t.Fatal("sub-photo tiers should be filterless")
	}
	if above.Filter != FilterAdaptive {
		t.Fatal("photo tier should use adaptive filtering")
	}
	if above.PaletteCap <= below.PaletteCap {
		t.Fatal("photo tier should have the larger palette")
	}
}

func TestDeriveQuantizeClampsQuality(t *testing.T) {
	if DeriveQuantize(-5, false) != DeriveQuantize(1, false) {
		t.Fatal("below-range quality should clamp to 1")
	}
	if DeriveQuantize(400, false) != DeriveQuantize(100, false) {
		t.Fatal("above-range quality should clamp to 100")
	}
}

func TestDeriveQuantizeMetadataOverride(t *testing.T) {
	if DeriveQuantize(50, false).Metadata != StripUnsafe {
		t.Fatal("default should strip unsafe chunks")
	}
	if DeriveQuantize(50, true).Metadata != KeepAll {
		t.Fatal("keep-metadata should preserve all chunks")
	}
}

func TestDeriveLossless(t *testing.T) {
	plain := DeriveLossless(false, false)
	if plain.Metadata != StripUnsafe || plain.Deflate.Exhaustive {
		t.Fatalf("unexpected default optimize options: %+v", plain)
	}
	if plain.Filter != FilterAdaptive {
		t.Fatal("optimize mode should use adaptive filtering")
	}

	zopfli := DeriveLossless(true, true)
	if zopfli.Metadata != KeepAll {
		t.Fatal("keep-metadata should preserve all chunks")
	}
	if !zopfli.Deflate.Exhaustive {
		t.Fatal("zopfli flag should enable exhaustive effort")
	}
}
