package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"

	"github.com/pathwise/pathwise/internal/config"
	"github.com/pathwise/pathwise/internal/state"
)

// Backend resolves one model client per agent type from the configuration's
// model and temperature tables. Selection is fixed per agent type: an agent
// always resolves to the same (model, temperature) pair for the lifetime of
// the process.
type Backend struct {
	g   *genkit.Genkit
	cfg *config.Config
}

// NewBackend creates a Backend over an initialized Genkit instance.
func NewBackend(g *genkit.Genkit, cfg *config.Config) (*Backend, error) {
	if g == nil {
		return nil, errors.New("genkit instance is required")
	}
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	return &Backend{g: g, cfg: cfg}, nil
}

// ClientFor returns the model client serving the given agent type.
func (b *Backend) ClientFor(agent state.AgentID) ModelClient {
	return &boundClient{
		g:           b.g,
		modelName:   "googleai/" + b.cfg.ModelFor(agent),
		temperature: b.cfg.Temperature(agent),
		maxTokens:   b.cfg.MaxTokens,
	}
}

// boundClient is a ModelClient fixed to one model and temperature.
type boundClient struct {
	g           *genkit.Genkit
	modelName   string
	temperature float32
	maxTokens   int
}

// Generate implements ModelClient via genkit.Generate.
func (c *boundClient) Generate(ctx context.Context, messages []*ai.Message) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithMessages(messages...),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(c.temperature),
			MaxOutputTokens: int32(c.maxTokens),
		}),
	)
	if err != nil {
		return "", fmt.Errorf("model generation failed: %w", err)
	}
	return resp.Text(), nil
}
