package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

// RescanNode returns a state node that re-renders flagged pages at a higher
// DPI on a white background and retries extraction once. Pages that fail
// again stay flagged and are reported in the final Result rather than
// aborting the workflow.
func RescanNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		es, err := extractState(s)
		if err != nil {
			return s, fmt.Errorf("rescan: %w", err)
		}

		tempDir, err := extractTempDir(s)
		if err != nil {
			return s, fmt.Errorf("rescan: %w", err)
		}

		flagged := es.RescanPages()

		if err := rescanPages(ctx, rt, es, tempDir); err != nil {
			return s, fmt.Errorf("rescan: %w", err)
		}

		rt.Logger.InfoContext(
			ctx, "rescan node complete",
			"pages_rescanned", len(flagged),
			"pages_failed", len(es.RescanPages()),
		)

		s = s.Set(KeyExtraction, *es)
		return s, nil
	})
}

func rescanConfig() config.ImageConfig {
	return config.ImageConfig{
		Format: "png",
		DPI:    400,
		Options: map[string]any{
			"background": "white",
		},
	}
}

func rescanPages(ctx context.Context, rt *Runtime, es *ExtractionState, tempDir string) error {
	pdfPath := filepath.Join(tempDir, sourcePDF)
	flagged := es.RescanPages()
	prompt := ComposePrompt()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(flagged)))

	for _, i := range flagged {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			pdfDoc, err := document.OpenPDF(pdfPath)
			if err != nil {
				return fmt.Errorf("page %d: open pdf: %w", es.Pages[i].PageNumber, err)
			}
			defer pdfDoc.Close()

			imgPath, err := rerender(pdfDoc, &es.Pages[i], tempDir)
			if err != nil {
				return fmt.Errorf("page %d: %w", es.Pages[i].PageNumber, err)
			}
			es.Pages[i].ImagePath = imgPath

			if err := extractPage(gctx, rt, prompt, &es.Pages[i]); err != nil {
				es.Pages[i].Failed = true
				es.Pages[i].FailureReason = err.Error()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrRescanFailed, err)
	}

	return nil
}

func extractTempDir(s state.State) (string, error) {
	val, ok := s.Get(KeyTempDir)
	if !ok {
		return "", fmt.Errorf("%w: missing %s in state", ErrRescanFailed, KeyTempDir)
	}

	tempDir, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not string", ErrRescanFailed, KeyTempDir)
	}

	return tempDir, nil
}

func rerender(pdfDoc document.Document, page *ExtractionPage, tempDir string) (string, error) {
	p, err := pdfDoc.ExtractPage(page.PageNumber)
	if err != nil {
		return "", fmt.Errorf("extract page %d: %w", page.PageNumber, err)
	}

	renderer, err := image.NewImageMagickRenderer(rescanConfig())
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	data, err := p.ToImage(renderer, nil)
	if err != nil {
		return "", fmt.Errorf("render page %d: %w", page.PageNumber, err)
	}

	imgPath := filepath.Join(tempDir, fmt.Sprintf("page-%d-rescan.png", page.PageNumber))
	if err := os.WriteFile(imgPath, data, 0600); err != nil {
		return "", fmt.Errorf("write rescanned page %d: %w", page.PageNumber, err)
	}

	return imgPath, nil
}
