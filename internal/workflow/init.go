package workflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"golang.org/x/sync/errgroup"
)

const sourcePDF = "source.pdf"

// InitNode returns a state node that downloads an invoice PDF from blob
// storage, renders all pages to PNG images concurrently via ImageMagick,
// and stores the initial ExtractionState in the workflow state bag.
func InitNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		storageKey, tempDir, err := extractInitState(s)
		if err != nil {
			return s, fmt.Errorf("init: %w", err)
		}

		if err := downloadPDF(ctx, rt, storageKey, tempDir); err != nil {
			return s, fmt.Errorf("init: %w", err)
		}

		pages, err := renderPages(ctx, tempDir)
		if err != nil {
			return s, fmt.Errorf("init: %w", err)
		}

		rt.Logger.InfoContext(
			ctx, "init node complete",
			"storage_key", storageKey,
			"page_count", len(pages),
		)

		s = s.Set(KeyExtraction, ExtractionState{Pages: pages})

		return s, nil
	})
}

func downloadPDF(
	ctx context.Context,
	rt *Runtime,
	storageKey string,
	tempDir string,
) error {
	blob, err := rt.Storage.Download(ctx, storageKey)
	if err != nil {
		return fmt.Errorf("%w: download blob %s: %w", ErrSourceNotFound, storageKey, err)
	}
	defer blob.Body.Close()

	pdfPath := filepath.Join(tempDir, sourcePDF)
	pdfFile, err := os.Create(pdfPath)
	if err != nil {
		return fmt.Errorf("%w: create temp pdf: %w", ErrRenderFailed, err)
	}

	if _, err := io.Copy(pdfFile, blob.Body); err != nil {
		pdfFile.Close()
		return fmt.Errorf("%w: write temp pdf: %w", ErrRenderFailed, err)
	}
	pdfFile.Close()

	return nil
}

func extractInitState(s state.State) (string, string, error) {
	keyVal, ok := s.Get(KeyStorageKey)
	if !ok {
		return "", "", fmt.Errorf("%w: missing %s in state", ErrSourceNotFound, KeyStorageKey)
	}

	storageKey, ok := keyVal.(string)
	if !ok {
		return "", "", fmt.Errorf("%w: %s is not string", ErrSourceNotFound, KeyStorageKey)
	}

	tempDirVal, ok := s.Get(KeyTempDir)
	if !ok {
		return "", "", fmt.Errorf("%w: missing %s in state", ErrRenderFailed, KeyTempDir)
	}

	tempDir, ok := tempDirVal.(string)
	if !ok {
		return "", "", fmt.Errorf("%w: %s is not string", ErrRenderFailed, KeyTempDir)
	}

	return storageKey, tempDir, nil
}

func renderPages(ctx context.Context, tempDir string) ([]ExtractionPage, error) {
	pdfPath := filepath.Join(tempDir, sourcePDF)
	pdfDoc, err := document.OpenPDF(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", ErrRenderFailed, err)
	}
	defer pdfDoc.Close()

	renderer, err := image.NewImageMagickRenderer(config.DefaultImageConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: create renderer: %w", ErrRenderFailed, err)
	}

	allPages, err := pdfDoc.ExtractAllPages()
	if err != nil {
		return nil, fmt.Errorf("%w: extract pages: %w", ErrRenderFailed, err)
	}

	pageCount := len(allPages)
	pages := make([]ExtractionPage, pageCount)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(pageCount))

	for i, page := range allPages {
		pageNum := i + 1
		imgPath := filepath.Join(tempDir, fmt.Sprintf("page-%d.png", pageNum))
		pages[i] = ExtractionPage{
			PageNumber: pageNum,
			ImagePath:  imgPath,
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			data, err := page.ToImage(renderer, nil)
			if err != nil {
				return fmt.Errorf("render page %d: %w", pageNum, err)
			}

			if err := os.WriteFile(imgPath, data, 0600); err != nil {
				return fmt.Errorf("write page %d image: %w", pageNum, err)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	return pages, nil
}
