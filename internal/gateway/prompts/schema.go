package prompts

import genai "google.golang.org/genai"

// ArtifactSchema constrains streaming generation to the boron artifact
// shape: an envelope holding the ordered file action list.
var ArtifactSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"boronArtifact": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"id":    {Type: genai.TypeString},
				"title": {Type: genai.TypeString},
				"boronActions": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"type":     {Type: genai.TypeString, Enum: []string{"file"}},
							"filePath": {Type: genai.TypeString},
							"content":  {Type: genai.TypeString},
						},
						Required: []string{"filePath", "content"},
					},
				},
			},
			Required: []string{"boronActions"},
		},
	},
	Required: []string{"boronArtifact"},
}

// DecisionSchema is the single-field in/out-of-scope gate.
var DecisionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"decision": {
			Type:        genai.TypeBoolean,
			Description: "Whether the user input is related to project development. true for yes, false for no.",
		},
	},
	Required: []string{"decision"},
}

// SummarizeSchema holds the room title summarization output.
var SummarizeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summarized": {
			Type:        genai.TypeString,
			Description: "Summarized title with around 22 characters.",
		},
	},
	Required: []string{"summarized"},
}
