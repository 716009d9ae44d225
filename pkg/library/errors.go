package library

import "fmt"

// NotFoundError reports that Render was asked for a template name that
// isn't in the Library's map — either it was never present, or it failed
// to compile under IgnoreBadTemplates and was silently dropped.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template not found: %q", e.Name)
}
