package workspace

import (
	"context"
	"strings"
)

// Transformer is the external image transformation service.
type Transformer interface {
	// Enhance edits image according to instruction. A nil instruction asks the
	// service to apply its own default enhancement.
	Enhance(ctx context.Context, image []byte, mimeType string, instruction *string) ([]byte, error)

	// RemoveObject erases the region marked by the white pixels of mask, a PNG
	// the size of the displayed image.
	RemoveObject(ctx context.Context, image []byte, mimeType string, mask []byte) ([]byte, error)
}

// Request is one packaged transformation call.
type Request struct {
	Generation  uint64
	Tool        ToolKind
	Image       Image
	Instruction *string
	Mask        []byte
}

// PrepareApply checks every precondition for the apply action and packages
// the request. It returns a precondition error without side effects when the
// action is not allowed.
func (s State) PrepareApply() (Request, error) {
	if s.Source == nil {
		return Request{}, ErrNoImage
	}
	if s.Processing {
		return Request{}, ErrBusy
	}

	req := Request{
		Generation: s.Generation,
		Tool:       s.Tool.Kind(),
		Image:      *s.Source,
	}

	switch t := s.Tool.(type) {
	case EnhanceTool:
		if strings.TrimSpace(s.Prompt) == "" {
			return Request{}, ErrEmptyPrompt
		}
		prompt := s.Prompt
		req.Instruction = &prompt

	case AutoEnhanceTool:
		// The service picks its own enhancement when no instruction is given.

	case AdjustTool:
		instruction, err := t.Adjustments.Instruction()
		if err != nil {
			return Request{}, err
		}
		req.Instruction = &instruction

	case RemoveObjectTool:
		mask, err := t.Mask.PNG()
		if err != nil {
			return Request{}, err
		}
		req.Mask = mask
	}

	return req, nil
}

// Send issues the request against svc.
func (r Request) Send(ctx context.Context, svc Transformer) ([]byte, error) {
	if r.Tool == ToolRemoveObject {
		return svc.RemoveObject(ctx, r.Image.Data, r.Image.MIMEType, r.Mask)
	}
	return svc.Enhance(ctx, r.Image.Data, r.Image.MIMEType, r.Instruction)
}

// UserMessage returns the text shown to the user for a failed request.
// Errors that carry their own user-facing text expose it through a
// UserMessage method.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if um, ok := err.(interface{ UserMessage() string }); ok {
		return um.UserMessage()
	}
	return sentence(err.Error())
}
