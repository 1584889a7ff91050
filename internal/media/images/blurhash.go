package images

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"github.com/bbrks/go-blurhash"
	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// blurHashSize is the target size for BlurHash computation.
// A small thumbnail produces nearly identical hashes in milliseconds.
const blurHashSize = 64

// ComputeBlurHash generates a BlurHash string from an image file on fs.
// Uses 4x3 components, about 20-30 characters.
func ComputeBlurHash(fs afero.Fs, imagePath string) (string, error) {
	file, err := fs.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	hash, err := blurhash.Encode(4, 3, resizeForBlurHash(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// resizeForBlurHash fits img inside blurHashSize on its longest side.
func resizeForBlurHash(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= blurHashSize && b.Dy() <= blurHashSize {
		return img
	}
	if b.Dx() >= b.Dy() {
		return imaging.Resize(img, blurHashSize, 0, imaging.Box)
	}
	return imaging.Resize(img, 0, blurHashSize, imaging.Box)
}

// BlurHasher binds ComputeBlurHash to a filesystem.
type BlurHasher struct {
	fs afero.Fs
}

// NewBlurHasher returns a BlurHasher reading from fs.
func NewBlurHasher(fs afero.Fs) *BlurHasher {
	return &BlurHasher{fs: fs}
}

// Compute hashes the image at path.
func (h *BlurHasher) Compute(path string) (string, error) {
	return ComputeBlurHash(h.fs, path)
}
