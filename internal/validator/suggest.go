package validator

import "scandex/internal/domain"

// Suggestion is an advisory resolution for one validation issue. It never
// mutates state; acting on it is the caller's decision.
type Suggestion struct {
	Issue        Issue                       `json:"issue"`
	Suggested    domain.ConflictResolution   `json:"suggested_resolution"`
	Alternatives []domain.ConflictResolution `json:"alternatives"`
	Description  string                      `json:"description"`
}

// SuggestConflictResolutions maps each resolvable issue to a primary
// resolution strategy plus alternatives. Issues with no applicable strategy
// are omitted.
func (e *Engine) SuggestConflictResolutions(issues []Issue) []Suggestion {
	var suggestions []Suggestion
	for _, issue := range issues {
		switch issue.Type {
		case domain.ConflictDuplicateFilename:
			suggestions = append(suggestions, Suggestion{
				Issue:        issue,
				Suggested:    domain.ResolveAutoRename,
				Alternatives: []domain.ConflictResolution{domain.ResolvePromptUser, domain.ResolveSkipDuplicate},
				Description:  "automatically rename files to avoid conflicts",
			})
		case domain.ConflictInvalidPath, domain.ConflictInvalidCharacters,
			domain.ConflictReservedName, domain.ConflictPathTooLong:
			suggestions = append(suggestions, Suggestion{
				Issue:        issue,
				Suggested:    domain.ResolvePromptUser,
				Alternatives: []domain.ConflictResolution{domain.ResolveAutoRename, domain.ResolveSkipDuplicate},
				Description:  "prompt user to fix invalid path",
			})
		case domain.ConflictMissingRequired:
			suggestions = append(suggestions, Suggestion{
				Issue:        issue,
				Suggested:    domain.ResolvePromptUser,
				Alternatives: []domain.ConflictResolution{domain.ResolveSkipDuplicate},
				Description:  "prompt user to fill required fields",
			})
		}
	}
	return suggestions
}
