package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/llm"
)

var (
	_ llm.Registry        = (*Client)(nil)
	_ llm.VisionExtractor = (*Client)(nil)
	_ llm.Analyzer        = (*Client)(nil)
)

// ListModels implements llm.Registry with GET /models.
func (c *Client) ListModels(ctx context.Context, credential string) ([]llm.ModelDescriptor, error) {
	rid := uuid.New().String()
	start := time.Now()

	var out struct {
		Data []llm.ModelDescriptor `json:"data"`
	}
	if err := c.api.Get(ctx, "models", nil, &out, option.WithAPIKey(credential)); err != nil {
		c.logger.Warn("llm.models.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("%w: list models: %v", common.ErrProviderUnavailable, err)
	}

	c.logger.Info("llm.models.ok",
		"req_id", rid,
		"models", len(out.Data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.Data, nil
}

// ExtractText implements llm.VisionExtractor: one user turn holding the
// instruction and the image, nothing else.
func (c *Client) ExtractText(ctx context.Context, credential string, req llm.VisionRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	prompt := req.Prompt
	if prompt == "" {
		prompt = constants.ImagePrompt
	}

	c.logger.Debug("llm.vision.start",
		"req_id", rid,
		"model", req.Model,
		"image_bytes", len(req.ImageURL),
	)

	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: req.ImageURL}),
			}),
		},
		Temperature: openai.Float(float64(c.cfg.OCRTemperature)),
		MaxTokens:   openai.Int(int64(c.cfg.OCRMaxTokens)),
	}, option.WithAPIKey(credential))
	if err != nil {
		c.logger.Warn("llm.vision.http_error",
			"req_id", rid, "model", req.Model, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("%w: %s: %v", common.ErrProviderUnavailable, req.Model, err)
	}
	if len(completion.Choices) == 0 {
		c.logger.Warn("llm.vision.no_choices",
			"req_id", rid, "model", req.Model,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", nil
	}

	content := completion.Choices[0].Message.Content
	c.logger.Info("llm.vision.ok",
		"req_id", rid,
		"model", req.Model,
		"text_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// Analyze implements llm.Analyzer. The completion is returned raw; the
// classifier owns recovery and validation.
func (c *Client) Analyze(ctx context.Context, credential string, req llm.AnalyzeRequest) (llm.AnalyzeResponse, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.analyze.start",
		"req_id", rid,
		"model", c.cfg.AnalysisModel,
		"temp", c.cfg.AnalysisTemperature,
		"text_len", len(req.Text),
		"allowed_categories", len(req.AllowedCategories),
	)

	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.cfg.AnalysisModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(llm.BuildAnalysisSystemPrompt(req.AllowedCategories)),
			openai.SystemMessage("JSON Schema:\n" + mustJSON(llm.BuildAnalysisJSONSchema())),
			openai.UserMessage(llm.BuildAnalysisUserPrompt(req.Text, c.cfg.MaxTextChars)),
		},
		Temperature: openai.Float(float64(c.cfg.AnalysisTemperature)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}, option.WithAPIKey(credential))
	if err != nil {
		c.logger.Error("llm.analyze.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.AnalyzeResponse{}, fmt.Errorf("analysis request: %w", err)
	}
	if len(completion.Choices) == 0 {
		c.logger.Error("llm.analyze.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.AnalyzeResponse{}, errors.New("no choices in analysis response")
	}

	model := completion.Model
	if model == "" {
		model = c.cfg.AnalysisModel
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	c.logger.Info("llm.analyze.ok",
		"req_id", rid,
		"model", model,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.AnalyzeResponse{Content: content, Model: model}, nil
}

// VerifyCredential sends a one-token completion to check that the key is accepted.
func (c *Client) VerifyCredential(ctx context.Context, credential, model string) error {
	if strings.TrimSpace(credential) == "" {
		return common.NewAppError(common.CodeMissingCredential, "an OpenRouter API key is required", common.ErrMissingCredential)
	}
	if model == "" {
		model = constants.DefaultOCRModel
	}

	_, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(constants.VerifyMessage),
		},
		MaxTokens: openai.Int(1),
	}, option.WithAPIKey(credential))
	if err == nil {
		c.logger.Info("llm.verify.ok", "model", model)
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) &&
		(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
		c.logger.Warn("llm.verify.rejected", "model", model, "status", apiErr.StatusCode)
		return fmt.Errorf("%w: credential rejected with status %d", common.ErrUnauthorized, apiErr.StatusCode)
	}
	c.logger.Warn("llm.verify.failed", "model", model, "error", err)
	return fmt.Errorf("verify credential: %w", err)
}
