package render

import "context"

// Renderer converts a live Form into a byte representation (HTML, styled
// terminal text, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form *Form) ([]byte, error)
}
