package prompts

import "errors"

var (
	ErrTemplateNotFound        = errors.New("template not found")
	ErrNoTemplateForInstrument = errors.New("no analysis template available for this instrument")
	ErrNilTemplate             = errors.New("template is required")
)
