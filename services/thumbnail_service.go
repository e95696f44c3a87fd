package services

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".bmp": true,
}

func IsImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return imageExtensions[ext]
}

// thumbnailPathFor mirrors the file layout under the thumbnails dir.
func thumbnailPathFor(srcRel string) string {
	rel := strings.TrimPrefix(filepath.ToSlash(srcRel), filesDir+"/")
	base := strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(thumbnailsDir, filepath.FromSlash(base)+"_thumb.jpg")
}

// GenerateThumbnail writes a JPEG thumbnail for srcRel and returns its path.
func GenerateThumbnail(store FileStore, srcRel string) (string, error) {
	cfg := appConfig().Thumbnail

	src, err := store.Open(srcRel)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(img, cfg.Width, cfg.Height, imaging.Lanczos)

	dstRel := thumbnailPathFor(srcRel)
	dst, err := store.Create(dstRel)
	if err != nil {
		return "", err
	}
	encodeErr := imaging.Encode(dst, thumb, imaging.JPEG, imaging.JPEGQuality(cfg.Quality))
	closeErr := dst.Close()
	if encodeErr != nil || closeErr != nil {
		_ = store.Remove(dstRel)
		if encodeErr != nil {
			return "", fmt.Errorf("encode thumbnail: %w", encodeErr)
		}
		return "", closeErr
	}
	return dstRel, nil
}
