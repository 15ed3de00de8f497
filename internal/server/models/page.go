package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
)

// Top-level page fields addressable by path expressions.
const (
	FieldPageName = "pageName"
	FieldSections = "sections"
	FieldImages   = "images"
	FieldVideos   = "videos"
	FieldPDFs     = "pdfs"
)

// Page is a named bag of multilingual content. Sections is a free-form
// document owned by the site's front end.
type Page struct {
	ID        string         `json:"id"`
	PageName  string         `json:"pageName"`
	Sections  map[string]any `json:"sections"`
	Images    []string       `json:"images"`
	Videos    []string       `json:"videos"`
	PDFs      []string       `json:"pdfs"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// EnsureDefaults replaces nil collections with empty ones so the page always
// serializes as {} and [] rather than null.
func (p *Page) EnsureDefaults() {
	if p.Sections == nil {
		p.Sections = map[string]any{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Videos == nil {
		p.Videos = []string{}
	}
	if p.PDFs == nil {
		p.PDFs = []string{}
	}
}

// Document exposes the mutable fields as a generic tree keyed by their JSON
// names, so path expressions such as "sections.hero.0.image" or "images.2"
// can be applied to it.
func (p *Page) Document() map[string]any {
	p.EnsureDefaults()
	return map[string]any{
		FieldPageName: p.PageName,
		FieldSections: p.Sections,
		FieldImages:   toAnySlice(p.Images),
		FieldVideos:   toAnySlice(p.Videos),
		FieldPDFs:     toAnySlice(p.PDFs),
	}
}

// IsPageField reports whether name is a top-level field a path may start with.
func IsPageField(name string) bool {
	switch name {
	case FieldPageName, FieldSections, FieldImages, FieldVideos, FieldPDFs:
		return true
	}
	return false
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// ApplyField writes a top-level value taken from Document back onto the page.
func (p *Page) ApplyField(field string, value any) error {
	switch field {
	case FieldPageName:
		name, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: pageName must be a string", common.ErrArgumentInvalid)
		}
		p.PageName = name
	case FieldSections:
		sections, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: sections must be an object", common.ErrArgumentInvalid)
		}
		p.Sections = sections
	case FieldImages, FieldVideos, FieldPDFs:
		list, err := toStringSlice(field, value)
		if err != nil {
			return err
		}
		switch field {
		case FieldImages:
			p.Images = list
		case FieldVideos:
			p.Videos = list
		default:
			p.PDFs = list
		}
	default:
		return fmt.Errorf("%w: unknown page field %q", common.ErrArgumentInvalid, field)
	}
	return nil
}

func toStringSlice(field string, value any) ([]string, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an array", common.ErrArgumentInvalid, field)
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%d must be a string", common.ErrArgumentInvalid, field, i)
		}
		out[i] = s
	}
	return out, nil
}
