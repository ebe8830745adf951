package pdfgen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/wings-of-memory/memorialbackend/models"
)

// Optimizer fetches remote images referenced by a memorial and inlines
// them as resized JPEG data URLs so the print renderer never waits on
// the network. Every failure is soft: the original URL is kept and the
// page falls back to loading it live.
type Optimizer struct {
	Client       *http.Client
	MaxDimension int
	JpegQuality  int
	GalleryCap   int
}

// NewOptimizer builds an optimizer with its own fetch client.
func NewOptimizer(fetchTimeout time.Duration, maxDimension, jpegQuality, galleryCap int) *Optimizer {
	return &Optimizer{
		Client:       &http.Client{Timeout: fetchTimeout},
		MaxDimension: maxDimension,
		JpegQuality:  jpegQuality,
		GalleryCap:   galleryCap,
	}
}

// OptimizeView rewrites the image references of a view in place:
// profile image, gallery images up to the cap, timeline event images,
// and family member photos. Fetches run concurrently and the call
// returns once all have settled.
func (o *Optimizer) OptimizeView(ctx context.Context, view *models.MemorialView) {
	var wg sync.WaitGroup

	optimize := func(target *string) {
		if target == nil || *target == "" {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			*target = o.OptimizeURL(ctx, *target)
		}()
	}

	optimize(&view.ProfileImage)

	galleryCount := len(view.Gallery)
	if o.GalleryCap > 0 && galleryCount > o.GalleryCap {
		galleryCount = o.GalleryCap
	}
	for i := 0; i < galleryCount; i++ {
		optimize(&view.Gallery[i].URL)
	}
	for i := range view.Timeline {
		optimize(&view.Timeline[i].Image)
	}
	for i := range view.FamilyTree {
		optimize(&view.FamilyTree[i].Image)
	}

	wg.Wait()
}

// OptimizeURL fetches one image and returns it as a JPEG data URL
// resized to fit the configured bounding box. Data URLs pass through
// untouched, and any fetch or decode failure returns the input URL.
func (o *Optimizer) OptimizeURL(ctx context.Context, url string) string {
	if strings.HasPrefix(url, "data:") {
		return url
	}

	data, err := o.fetch(ctx, url)
	if err != nil {
		log.Printf("Image optimization skipped for %s: %v", url, err)
		return url
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("Image optimization skipped for %s: decode failed: %v", url, err)
		return url
	}

	img = applyOrientation(img, data)

	if o.MaxDimension > 0 {
		img = imaging.Fit(img, o.MaxDimension, o.MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(o.JpegQuality)); err != nil {
		log.Printf("Image optimization skipped for %s: encode failed: %v", url, err)
		return url
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func (o *Optimizer) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; MemorialPDFBot/1.0)")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading image body: %w", err)
	}
	return data, nil
}

// applyOrientation normalizes JPEG pixel data per its EXIF orientation
// tag so the inlined copy renders upright. Images without EXIF data are
// returned unchanged.
func applyOrientation(img image.Image, raw []byte) image.Image {
	meta, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return img
	}
	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return img
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return img
	}

	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}
