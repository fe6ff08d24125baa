package live

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/igorsilveira/ada/pkg/config"
	"google.golang.org/genai"
)

// GenAIDialer opens Gemini Live sessions through the genai SDK.
type GenAIDialer struct {
	client *genai.Client
}

func NewGenAIDialer(ctx context.Context, apiKey, apiVersion string) (*GenAIDialer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("live: API key not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: apiVersion},
	})
	if err != nil {
		return nil, fmt.Errorf("live: creating genai client: %w", err)
	}
	return &GenAIDialer{client: client}, nil
}

func (d *GenAIDialer) Dial(ctx context.Context, model string, cfg *genai.LiveConnectConfig) (Conn, error) {
	session, err := d.client.Live.Connect(ctx, model, cfg)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// OptionsFromConfig maps the [live] config section onto session options.
func OptionsFromConfig(lc config.LiveConfig, logger *slog.Logger) Options {
	return Options{
		Model:        lc.Model,
		Config:       ConnectConfig(lc),
		Capabilities: lc.Capabilities,
		Logger:       logger,
	}
}

func ConnectConfig(lc config.LiveConfig) *genai.LiveConnectConfig {
	cfg := &genai.LiveConnectConfig{}
	for _, m := range lc.ResponseModalities {
		cfg.ResponseModalities = append(cfg.ResponseModalities, genai.Modality(strings.ToUpper(m)))
	}
	if lc.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(lc.SystemPrompt, genai.RoleUser)
	}
	if lc.InputTranscription {
		cfg.InputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	if lc.OutputTranscription {
		cfg.OutputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	return cfg
}
