package pdfgen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// A4 paper size in inches.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
)

// RendererOptions bounds each phase of a print run.
type RendererOptions struct {
	// ExecPath points at the browser binary; empty lets chromedp find one.
	ExecPath string
	// PageLoadTimeout caps setting the document content.
	PageLoadTimeout time.Duration
	// ImageWaitPerImage caps how long any single image may load.
	ImageWaitPerImage time.Duration
	// ImageWaitTotal caps the whole image-settling phase. Expiry is not
	// an error; the print proceeds with whatever has loaded.
	ImageWaitTotal time.Duration
	// RenderTimeout caps the full run including PrintToPDF.
	RenderTimeout time.Duration
}

// Renderer turns a rendered memorial document into PDF bytes.
type Renderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// pdfSession is one browser session. Close tears the browser down and
// must be safe to call after a failed Run.
type pdfSession interface {
	Run(ctx context.Context, html string) ([]byte, error)
	Close()
}

// ChromeRenderer prints memorial pages through a headless browser. A
// fresh browser session is started per render and torn down when the
// render finishes, successfully or not.
type ChromeRenderer struct {
	opts       RendererOptions
	newSession func(ctx context.Context) (pdfSession, error)
}

func NewChromeRenderer(opts RendererOptions) *ChromeRenderer {
	r := &ChromeRenderer{opts: opts}
	r.newSession = r.newChromeSession
	return r
}

func (r *ChromeRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if r.opts.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.RenderTimeout)
		defer cancel()
	}

	session, err := r.newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting browser session: %w", err)
	}
	defer session.Close()

	pdf, err := session.Run(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return pdf, nil
}

func (r *ChromeRenderer) newChromeSession(ctx context.Context) (pdfSession, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	return &chromeSession{
		ctx:  browserCtx,
		opts: r.opts,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
	}, nil
}

type chromeSession struct {
	ctx    context.Context
	opts   RendererOptions
	cancel func()
	once   sync.Once
}

func (s *chromeSession) Close() {
	s.once.Do(s.cancel)
}

func (s *chromeSession) Run(_ context.Context, html string) ([]byte, error) {
	if err := s.setContent(html); err != nil {
		return nil, err
	}
	s.waitForImages()
	return s.printToPDF()
}

func (s *chromeSession) setContent(html string) error {
	ctx := s.ctx
	if s.opts.PageLoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.PageLoadTimeout)
		defer cancel()
	}
	return chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
	)
}

// waitForImages lets in-page images settle before printing. Each image
// gets at most ImageWaitPerImage and the whole phase at most
// ImageWaitTotal; either expiring just means the print goes ahead.
func (s *chromeSession) waitForImages() {
	ctx := s.ctx
	if s.opts.ImageWaitTotal > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ImageWaitTotal)
		defer cancel()
	}

	perImageMillis := s.opts.ImageWaitPerImage.Milliseconds()
	script := fmt.Sprintf(imageSettleScript, perImageMillis)

	err := chromedp.Run(ctx,
		chromedp.Evaluate(script, nil, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		// Best effort; a broken image must not block the print.
		return
	}
}

func (s *chromeSession) printToPDF() ([]byte, error) {
	var pdf []byte
	err := chromedp.Run(s.ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithPaperWidth(paperWidthInches).
				WithPaperHeight(paperHeightInches).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

// imageSettleScript resolves once every <img> has loaded, errored, or
// outlived its per-image budget (%d milliseconds).
const imageSettleScript = `
(() => {
  const budget = %d;
  const images = Array.from(document.images);
  return Promise.all(images.map((img) => {
    if (img.complete) return Promise.resolve();
    return new Promise((resolve) => {
      const timer = setTimeout(resolve, budget);
      const done = () => { clearTimeout(timer); resolve(); };
      img.addEventListener('load', done, { once: true });
      img.addEventListener('error', done, { once: true });
    });
  })).then(() => true);
})()
`
