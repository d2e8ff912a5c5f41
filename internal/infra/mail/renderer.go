// Package mail renders and delivers the account emails.
package mail

import (
	"embed"
	"html/template"
	"strings"

	"typeit/internal/domain/constants"
	"typeit/internal/errors"
)

// TemplateElement identifies a part of an email template.
type TemplateElement string

const (
	ElementSubject TemplateElement = "subject"
	ElementBody    TemplateElement = "body"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer turns a named template into a subject and an HTML body.
type Renderer struct {
	views map[string]*template.Template
}

// NewRenderer parses every embedded template up front so a broken template fails at startup.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{views: make(map[string]*template.Template)}

	for _, name := range []string{constants.MailTemplateVerification, constants.MailTemplateReset} {
		tmpl, err := template.New(name).ParseFS(templateFS, "templates/"+name+".tmpl")
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s template", name)
		}

		for _, element := range []TemplateElement{ElementSubject, ElementBody} {
			if tmpl.Lookup(string(element)) == nil {
				return nil, errors.Errorf("template %s is missing %s", name, element)
			}
		}

		r.views[name] = tmpl
	}

	return r, nil
}

// Render executes both elements of the named template.
func (r *Renderer) Render(name string, data any) (subject, body string, err error) {
	tmpl, ok := r.views[name]
	if !ok {
		return "", "", errors.Errorf("unknown mail template %q", name)
	}

	subject, err = r.execute(tmpl, ElementSubject, data)
	if err != nil {
		return "", "", err
	}

	body, err = r.execute(tmpl, ElementBody, data)
	if err != nil {
		return "", "", err
	}

	return strings.TrimSpace(subject), body, nil
}

func (r *Renderer) execute(tmpl *template.Template, element TemplateElement, data any) (string, error) {
	var sb strings.Builder
	if err := tmpl.ExecuteTemplate(&sb, string(element), data); err != nil {
		return "", errors.Wrapf(err, "render %s of %s", element, tmpl.Name())
	}

	return sb.String(), nil
}
