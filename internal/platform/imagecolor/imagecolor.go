// Package imagecolor derives an embed accent color from a remote image.
package imagecolor

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/EdlinOrg/prominentcolor"
	_ "golang.org/x/image/webp"
)

const maxImageBytes = 8 << 20

type Extractor struct {
	httpClient *http.Client
}

func NewExtractor(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Extractor{httpClient: &http.Client{Timeout: timeout}}
}

// AccentColor downloads the image and returns its dominant color as 0xRRGGBB.
func (e *Extractor) AccentColor(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}
	return Dominant(img)
}

// Dominant runs k-means over the image and picks the largest cluster.
func Dominant(img image.Image) (int, error) {
	items, err := prominentcolor.KmeansWithArgs(prominentcolor.ArgumentNoCropping, img)
	if err != nil {
		return 0, fmt.Errorf("failed to extract colors: %w", err)
	}
	if len(items) == 0 {
		return 0, fmt.Errorf("no colors found")
	}

	best := items[0]
	for _, item := range items[1:] {
		if item.Cnt > best.Cnt {
			best = item
		}
	}
	c := best.Color
	return int(c.R&0xff)<<16 | int(c.G&0xff)<<8 | int(c.B&0xff), nil
}
