package artifact

// StepKind tags the action a step performs. The artifact schema only
// emits file writes.
type StepKind string

const StepKindFile StepKind = "file"

// Step is one validated file-write instruction derived from a raw
// model action. FilePath is always non-empty and Content is always a
// string once a Step exists; a later Step with the same FilePath
// supersedes it, it is never mutated in place.
type Step struct {
	Kind     StepKind `json:"type"`
	FilePath string   `json:"filePath"`
	Content  string   `json:"content"`
}

// Metadata summarizes a parsed response.
type Metadata struct {
	TotalSteps int `json:"totalSteps"`
}

// Response is the parsed, validated form of one artifact payload.
type Response struct {
	Steps    []Step   `json:"steps"`
	Metadata Metadata `json:"metadata"`
}

// DedupeByPath keeps the last step seen for each file path while
// preserving first-seen order. Earlier duplicates are superseded.
func DedupeByPath(steps []Step) []Step {
	if len(steps) == 0 {
		return steps
	}
	order := make([]string, 0, len(steps))
	latest := make(map[string]Step, len(steps))
	for _, step := range steps {
		if step.FilePath == "" {
			continue
		}
		if _, seen := latest[step.FilePath]; !seen {
			order = append(order, step.FilePath)
		}
		latest[step.FilePath] = step
	}
	out := make([]Step, 0, len(order))
	for _, path := range order {
		out = append(out, latest[path])
	}
	return out
}
