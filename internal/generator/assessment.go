package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/llmclient"
)

// assessmentTypes are the threat categories the demo rotates through.
var assessmentTypes = []string{
	"Cyber attack on CNI",
	"Drones disrupting flights",
	"Cyber attacks on retail nodes",
	"Cyber attacks on utilities",
	"Acts of physical sabotage on infrastructure",
	"Disinformation campaigns against key politicians",
	"Disruption of democratic events",
}

// assessmentFormats are the raw document formats the source feeds arrive in.
var assessmentFormats = []string{"json", "yaml", "csv", "txt"}

const assessmentExtractionSchema = `{
  "type": "object",
  "properties": {
    "source": {"type": "string"},
    "target": {"type": "string"},
    "method": {"type": "string"},
    "timing": {"type": "string"}
  },
  "required": ["source", "target", "method", "timing"]
}`

// AssessmentGenerator synthesizes one threat assessment in two steps: a raw
// source document in a randomly chosen format, then a structured extraction
// of its key fields, mirroring how real feeds are ingested.
type AssessmentGenerator struct {
	client      llmclient.Client
	temperature float32
	logger      *zap.Logger
}

// NewAssessmentGenerator builds a generator on top of the given client.
func NewAssessmentGenerator(client llmclient.Client, temperature float32, logger *zap.Logger) *AssessmentGenerator {
	return &AssessmentGenerator{
		client:      client,
		temperature: temperature,
		logger:      logger.Named("generator.assessment"),
	}
}

// GenerateOne implements store.Generator.
func (g *AssessmentGenerator) GenerateOne(ctx context.Context) (*schemas.Assessment, error) {
	start := time.Now()
	assessmentType := assessmentTypes[rand.IntN(len(assessmentTypes))]
	format := assessmentFormats[rand.IntN(len(assessmentFormats))]

	rawPrompt := fmt.Sprintf(
		"Generate a sample threat assessment for the following type: %q. "+
			"The output must be in %s format. "+
			"It MUST contain the source of the attack, the target of the attack, the attack method and the attack timing, "+
			"but you MUST vary the field names/labels used to represent them. "+
			"Make the structure and content realistic for a threat assessment of this type. "+
			"Do not include any markdown code block markers in the output, just the raw content of the file.",
		assessmentType, format,
	)

	rawContent, err := g.client.Generate(ctx, llmclient.GenerationRequest{
		UserPrompt: rawPrompt,
		Options:    llmclient.GenerationOptions{Temperature: g.temperature},
	})
	if err != nil {
		return nil, fmt.Errorf("assessment generation: %w", err)
	}

	extractPrompt := fmt.Sprintf(
		"Extract the following information from this %s threat assessment: "+
			"source of the attack, target of the attack, attack method, attack timing. "+
			"Return the result as a JSON object with keys: 'source', 'target', 'method', 'timing'. "+
			"If a field cannot be found, use \"Unknown\".\n\nAssessment Content:\n%s",
		format, rawContent,
	)

	extracted, err := g.client.Generate(ctx, llmclient.GenerationRequest{
		UserPrompt: extractPrompt,
		Options: llmclient.GenerationOptions{
			Temperature:     0.1,
			ForceJSONFormat: true,
			ResponseSchema:  json.RawMessage(assessmentExtractionSchema),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("assessment extraction: %w", err)
	}

	var fields struct {
		Source string `json:"source"`
		Target string `json:"target"`
		Method string `json:"method"`
		Timing string `json:"timing"`
	}
	if err := json.Unmarshal([]byte(extracted), &fields); err != nil {
		return nil, fmt.Errorf("decode extracted assessment fields: %w", err)
	}

	assessment := &schemas.Assessment{
		AssessmentID:   newReportID(),
		AssessedAt:     schemas.DateOf(time.Now()),
		Type:           assessmentType,
		Source:         orUnknown(fields.Source),
		Target:         orUnknown(fields.Target),
		Method:         orUnknown(fields.Method),
		Timing:         orUnknown(fields.Timing),
		OriginalFormat: format,
		RawContent:     rawContent,
	}

	g.logger.Info("New assessment generated",
		zap.String("assessment_id", assessment.AssessmentID),
		zap.String("type", assessmentType),
		zap.Duration("duration", time.Since(start)),
	)
	return assessment, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
