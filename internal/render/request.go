package render

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mcuadros/go-defaults"
)

// Parameters is the fixed parameter set merged into every job. Zero fields
// take the value from the default tag.
type Parameters struct {
	NegativePrompt         string  `default:"low quality, blurry"`
	Model                  string  `default:"neverendingDreamNED_v122BakedVae"`
	VAEModel               string  `default:""`
	ClipSkip               bool    `default:"false"`
	Steps                  int     `default:"25"`
	GuidanceScale          float64 `default:"4.4"`
	DistilledGuidanceScale float64 `default:"3.5"`
	Width                  int     `default:"512"`
	Height                 int     `default:"512"`
	Sampler                string  `default:"euler"`
	Scheduler              string  `default:"simple"`
}

// DefaultParameters returns the stock parameter set.
func DefaultParameters() Parameters {
	var p Parameters
	defaults.SetDefaults(&p)
	return p
}

// withDefaults fills every zero field of p from the default tags.
func (p Parameters) withDefaults() Parameters {
	defaults.SetDefaults(&p)
	return p
}

// EstimatedSeconds is the heuristic render time for a job using p.
func (p Parameters) EstimatedSeconds() int {
	return p.Steps * 2
}

// GenerationRequest is the body POSTed to the render endpoint. Optional
// pointer fields are omitted when nil; the service rejects null values.
type GenerationRequest struct {
	Prompt                 string  `json:"prompt"`
	NegativePrompt         string  `json:"negative_prompt"`
	Seed                   uint32  `json:"seed"`
	Model                  string  `json:"use_stable_diffusion_model"`
	VAEModel               string  `json:"use_vae_model"`
	ClipSkip               bool    `json:"clip_skip"`
	Steps                  int     `json:"num_inference_steps"`
	GuidanceScale          float64 `json:"guidance_scale"`
	DistilledGuidanceScale float64 `json:"distilled_guidance_scale"`
	Width                  int     `json:"width"`
	Height                 int     `json:"height"`
	Sampler                string  `json:"sampler_name"`
	Scheduler              string  `json:"scheduler_name"`
	TaskID                 string  `json:"task_id"`

	ControlNetModel *string  `json:"use_controlnet_model,omitempty"`
	ControlAlpha    *float64 `json:"control_alpha,omitempty"`
	EmbeddingsModel *string  `json:"use_embeddings_model,omitempty"`
	LoraModel       *string  `json:"use_lora_model,omitempty"`
	FaceCorrection  *string  `json:"use_face_correction,omitempty"`
	Upscale         *string  `json:"use_upscale,omitempty"`
	Tiling          *string  `json:"tiling,omitempty"`
}

// NewGenerationRequest merges params with the prompt and style qualifier and
// assigns a fresh seed and task id.
func NewGenerationRequest(prompt, style string, params Parameters) GenerationRequest {
	params = params.withDefaults()
	id := uuid.New()
	return GenerationRequest{
		Prompt:                 ComposePrompt(prompt, style),
		NegativePrompt:         params.NegativePrompt,
		Seed:                   newSeed(),
		Model:                  params.Model,
		VAEModel:               params.VAEModel,
		ClipSkip:               params.ClipSkip,
		Steps:                  params.Steps,
		GuidanceScale:          params.GuidanceScale,
		DistilledGuidanceScale: params.DistilledGuidanceScale,
		Width:                  params.Width,
		Height:                 params.Height,
		Sampler:                params.Sampler,
		Scheduler:              params.Scheduler,
		TaskID:                 id.String(),
	}
}

// Validate reports the first constraint the request violates.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return newError(ErrValidation, "prompt cannot be empty", nil)
	}
	if !validDimension(r.Width) || !validDimension(r.Height) {
		return newError(ErrValidation, fmt.Sprintf("width and height must be positive multiples of 64, got %dx%d", r.Width, r.Height), nil)
	}
	if r.Steps <= 0 {
		return newError(ErrValidation, fmt.Sprintf("steps must be positive, got %d", r.Steps), nil)
	}
	if _, err := uuid.Parse(r.TaskID); err != nil {
		return newError(ErrValidation, "task id must be a UUID", err)
	}
	return nil
}

// EstimatedSeconds is the heuristic render time for the request.
func (r GenerationRequest) EstimatedSeconds() int {
	return r.Steps * 2
}

func validDimension(v int) bool {
	return v > 0 && v%64 == 0
}

// newSeed draws 32 random bits from a v4 UUID.
func newSeed() uint32 {
	id := uuid.New()
	return binary.BigEndian.Uint32(id[:4])
}
