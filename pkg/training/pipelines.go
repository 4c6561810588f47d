/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package training

// ConfigField describes one input of a pipeline's configuration form.
type ConfigField struct {
	Name         string `json:"name"`
	Label        string `json:"label"`
	Type         string `json:"type"`
	Placeholder  string `json:"placeholder,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

type Pipeline struct {
	Id          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Fields      []ConfigField `json:"fields"`
}

var pipelines = []Pipeline{
	{
		Id:          "img-gen",
		Name:        "Image Generation Fine-Tune",
		Description: "Fine-tune a diffusion model on your own image set.",
		Fields: []ConfigField{
			{Name: "baseModel", Label: "Base Model", Type: "select", DefaultValue: "sdxl-1.0"},
			{Name: "trainingImages", Label: "Training Images", Type: "number", Placeholder: "200"},
			{Name: "steps", Label: "Training Steps", Type: "number", DefaultValue: "2000"},
		},
	},
	{
		Id:          "voice-clone",
		Name:        "Voice Clone Studio",
		Description: "Clone a voice from recorded samples.",
		Fields: []ConfigField{
			{Name: "sampleMinutes", Label: "Sample Audio (minutes)", Type: "number", Placeholder: "30"},
			{Name: "language", Label: "Language", Type: "select", DefaultValue: "en"},
		},
	},
	{
		Id:          "chatbot-tune",
		Name:        "Chatbot Personality Tune",
		Description: "Shape a conversational model around a persona and knowledge base.",
		Fields: []ConfigField{
			{Name: "persona", Label: "Persona Description", Type: "text", Placeholder: "friendly support agent"},
			{Name: "knowledgeBase", Label: "Knowledge Base URL", Type: "text"},
		},
	},
	{
		Id:          "custom-model",
		Name:        "Custom Model Training",
		Description: "Bring your own architecture and dataset.",
		Fields: []ConfigField{
			{Name: "datasetUrl", Label: "Dataset URL", Type: "text"},
			{Name: "framework", Label: "Framework", Type: "select", DefaultValue: "pytorch"},
			{Name: "epochs", Label: "Epochs", Type: "number", DefaultValue: "10"},
		},
	},
}

// Pipelines returns the available training pipelines in display order.
func Pipelines() []Pipeline {
	results := make([]Pipeline, len(pipelines))
	copy(results, pipelines)
	return results
}

func FindPipeline(id string) (Pipeline, bool) {
	for _, pipeline := range pipelines {
		if pipeline.Id == id {
			return pipeline, true
		}
	}

	return Pipeline{}, false
}
