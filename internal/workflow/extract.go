package workflow

import (
	"context"
	"fmt"
	"os"

	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/go-agents/pkg/agent"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/plantline/reckon/pkg/formatting"
)

type pageResponse struct {
	Lines       []RawLine `json:"lines"`
	TotalAmount *float64  `json:"total_amount"`
}

// ExtractNode returns a state node that performs parallel page-by-page line
// extraction using bounded errgroup concurrency. Each goroutine creates its
// own agent, encodes the page image to a data URI, and sends it to the
// vision model. A vision or parse failure marks the page for the rescan
// pass instead of aborting the workflow.
func ExtractNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		es, err := extractState(s)
		if err != nil {
			return s, fmt.Errorf("extract: %w", err)
		}

		if err := extractPages(ctx, rt, es); err != nil {
			return s, fmt.Errorf("extract: %w", err)
		}

		rt.Logger.InfoContext(
			ctx, "extract node complete",
			"page_count", len(es.Pages),
			"pages_flagged", len(es.RescanPages()),
		)

		s = s.Set(KeyExtraction, *es)
		return s, nil
	})
}

func extractState(s state.State) (*ExtractionState, error) {
	val, ok := s.Get(KeyExtraction)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s in state", ErrExtractFailed, KeyExtraction)
	}

	es, ok := val.(ExtractionState)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not ExtractionState", ErrExtractFailed, KeyExtraction)
	}

	return &es, nil
}

func extractPages(ctx context.Context, rt *Runtime, es *ExtractionState) error {
	prompt := ComposePrompt()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(es.Pages)))

	for i := range es.Pages {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			if err := extractPage(gctx, rt, prompt, &es.Pages[i]); err != nil {
				es.Pages[i].Failed = true
				es.Pages[i].FailureReason = err.Error()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrExtractFailed, err)
	}

	return nil
}

func extractPage(ctx context.Context, rt *Runtime, prompt string, page *ExtractionPage) error {
	a, err := agent.New(&rt.Agent)
	if err != nil {
		return fmt.Errorf("page %d: create agent: %w", page.PageNumber, err)
	}

	dataURI, err := encodePageImage(page.ImagePath)
	if err != nil {
		return fmt.Errorf("page %d: %w", page.PageNumber, err)
	}

	resp, err := a.Vision(ctx, prompt, []string{dataURI})
	if err != nil {
		return fmt.Errorf("page %d: vision call: %w", page.PageNumber, err)
	}

	parsed, err := formatting.Parse[pageResponse](resp.Content())
	if err != nil {
		return fmt.Errorf("page %d: parse response: %w", page.PageNumber, err)
	}

	applyPageResponse(page, parsed)
	return nil
}

func encodePageImage(imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	dataURI, err := encoding.EncodeImageDataURI(data, document.PNG)
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	return dataURI, nil
}

func applyPageResponse(page *ExtractionPage, resp pageResponse) {
	page.Lines = resp.Lines
	page.TotalAmount = resp.TotalAmount
	page.Failed = false
	page.FailureReason = ""
}
