// Package prompt builds provider-tuned prompts for design analysis and code
// generation. All functions are pure: unrecognized provider ids fall back to
// a generic template instead of failing.
package prompt

import "strings"

const analysisTaskDescription = `Describe the layout structure, the component hierarchy, the color palette, typography, spacing, and any interactive elements. Be specific about positions, sizes, and visual relationships so a developer could rebuild the design from your description alone.`

const generationFileFormat = `Output each file as a markdown section: a heading line with the file name (for example "# App.tsx"), followed by the complete file content. Produce complete, runnable files with no placeholders.`

// AnalysisSystemPrompt returns the system prompt for the design-analysis call.
func AnalysisSystemPrompt(providerID string) string {
	switch normalize(providerID) {
	case "openai":
		return "You are an expert UI/UX analyst. You examine interface designs and produce precise, structured natural-language specifications. " + analysisTaskDescription
	case "togetherai":
		return "You are a senior front-end engineer reviewing a UI design. Write a thorough analysis a teammate could implement from. " + analysisTaskDescription
	case "ollama", "lmstudio":
		// Local models do better with short, direct instructions.
		return "You analyze UI designs. " + analysisTaskDescription
	default:
		return "You are a UI design analyst. " + analysisTaskDescription
	}
}

// GenerationSystemPrompt returns the system prompt for the code-generation call.
func GenerationSystemPrompt(providerID string) string {
	switch normalize(providerID) {
	case "openai":
		return "You are an expert React/TypeScript engineer. Given a UI design analysis, produce production-quality source files. " + generationFileFormat
	case "togetherai":
		return "You are a senior front-end engineer. Turn the given design analysis into working React/TypeScript code. " + generationFileFormat
	case "ollama", "lmstudio":
		return "You write React/TypeScript code from design descriptions. " + generationFileFormat
	default:
		return "You generate front-end source code from design analyses. " + generationFileFormat
	}
}

// AnalysisUserPrompt returns the user prompt for the analysis call. The
// optional context is free text from the caller (clarifications alongside an
// image, or the full design description when no image is supplied).
func AnalysisUserPrompt(providerID, context string) string {
	var sb strings.Builder
	switch normalize(providerID) {
	case "ollama", "lmstudio":
		sb.WriteString("Analyze this UI design.")
	default:
		sb.WriteString("Analyze the attached UI design and produce a detailed implementation-ready specification.")
	}
	if context = strings.TrimSpace(context); context != "" {
		sb.WriteString("\n\nAdditional context from the designer:\n")
		sb.WriteString(context)
	}
	return sb.String()
}

// GenerationUserPrompt returns the user prompt for the generation call.
func GenerationUserPrompt(providerID, analysisText string) string {
	var sb strings.Builder
	switch normalize(providerID) {
	case "ollama", "lmstudio":
		sb.WriteString("Generate the source files for this design analysis:\n\n")
	default:
		sb.WriteString("Generate complete source files implementing the following design analysis. Remember the file-heading output format.\n\n")
	}
	sb.WriteString(analysisText)
	return sb.String()
}

// RevisionUserPrompt returns the user prompt for a revision pass over
// previously generated files.
func RevisionUserPrompt(providerID, serializedFiles, feedback string) string {
	var sb strings.Builder
	sb.WriteString("Here are the current project files:\n\n")
	sb.WriteString(serializedFiles)
	sb.WriteString("\n\nRevise them according to this feedback:\n")
	sb.WriteString(feedback)
	sb.WriteString("\n\nReturn every file, changed or not, in the same file-heading format.")
	return sb.String()
}

// Parameters holds sampling parameters for a completion request.
type Parameters struct {
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// OptimalParameters returns tuned default sampling parameters for a provider
// and model. Caller-supplied values always override these.
func OptimalParameters(providerID, modelID string) Parameters {
	switch normalize(providerID) {
	case "openai":
		p := Parameters{Temperature: 0.7, MaxTokens: 4096, TopP: 1.0}
		if strings.HasPrefix(modelID, "gpt-4o") {
			p.MaxTokens = 8192
		}
		return p
	case "togetherai":
		return Parameters{Temperature: 0.7, MaxTokens: 4096, TopP: 0.9}
	case "ollama":
		// Local models drift at higher temperatures.
		return Parameters{Temperature: 0.5, MaxTokens: 4096, TopP: 0.9}
	case "lmstudio":
		return Parameters{Temperature: 0.5, MaxTokens: 4096, TopP: 0.95}
	default:
		return Parameters{Temperature: 0.7, MaxTokens: 4096}
	}
}

func normalize(providerID string) string {
	return strings.ToLower(strings.TrimSpace(providerID))
}
