package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"room-studio/internal/common/logging"
	"room-studio/internal/room/gemini"
	"room-studio/internal/room/layout"
	"room-studio/internal/room/vision"

	"github.com/spf13/cobra"
)

type analyzeOpts struct {
	output  string
	fixture string
	model   string
	apiKey  string
	policy  string
	timeout time.Duration
}

// newAnalyzeCmd отправляет фото анализатору и печатает проверенную раскладку.
// Если ответ не разбирается, сырой текст сохраняется рядом с результатом
// (out.json → out.txt) и команда завершается ошибкой.
func newAnalyzeCmd() *cobra.Command {
	opts := analyzeOpts{
		model:   gemini.DefaultVisionModel,
		policy:  string(layout.PolicyReject),
		timeout: 60 * time.Second,
	}

	cmd := &cobra.Command{
		Use:   "analyze IMAGE",
		Short: "Describe the furniture layout of a room photo as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.apiKey == "" {
				opts.apiKey = os.Getenv("GEMINI_API_KEY")
			}
			return runAnalyze(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write layout JSON to file instead of stdout")
	cmd.Flags().StringVar(&opts.fixture, "fixture", "", "use a canned analyzer response from file")
	cmd.Flags().StringVar(&opts.model, "model", opts.model, "vision model name")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "Gemini API key (default $GEMINI_API_KEY)")
	cmd.Flags().StringVar(&opts.policy, "policy", opts.policy, "out-of-range coordinates: reject or clamp")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "analyzer timeout")

	return cmd
}

func runAnalyze(cmd *cobra.Command, imagePath string, opts analyzeOpts) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	policy, err := layout.ParsePolicy(opts.policy)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	mimeType := http.DetectContentType(data)

	analyzer, err := newAnalyzer(ctx, opts)
	if err != nil {
		return err
	}

	start := time.Now()
	actx, cancel := context.WithTimeout(ctx, opts.timeout)
	res, err := analyzer.Analyze(actx, data, mimeType)
	cancel()
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	logger.Debug("analyzer responded", "model", res.Model, "bytes", len(res.Raw), "took", time.Since(start).Round(time.Millisecond))

	doc, err := vision.ParseLayout(res.Raw)
	if err == nil {
		doc, err = layout.Validate(doc, layout.Options{Policy: policy})
	}
	if err != nil {
		rawPath := sidecar(imagePath, ".txt")
		if opts.output != "" {
			rawPath = sidecar(opts.output, ".txt")
		}
		if werr := writeFile(rawPath, []byte(res.Raw)); werr != nil {
			logger.Warn("could not save raw response", "err", werr)
		} else {
			logger.Info("raw response saved", "path", rawPath)
		}
		return err
	}

	logger.Infof("Analyzed %d objects, style %s (%s)", len(doc.Objects), doc.Style, time.Since(start).Round(time.Millisecond))
	return writeJSON(cmd.OutOrStdout(), opts.output, doc)
}

func newAnalyzer(ctx context.Context, opts analyzeOpts) (vision.Analyzer, error) {
	if opts.fixture != "" {
		f, err := vision.NewFixtureFromFile(opts.fixture)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	models, err := gemini.NewModels(ctx, opts.apiKey)
	if err != nil {
		return nil, err
	}
	return vision.NewGemini(models, opts.model), nil
}
