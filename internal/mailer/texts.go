package mailer

import (
	"bytes"
	"text/template"

	"github.com/pkg/errors"
)

// TextConfig carries the raw mail text templates. Each template may refer to
// {{.Section}} and, for per-member texts, {{.Prename}}.
type TextConfig struct {
	Section     string
	EchoSubject string
	EchoBody    string
	ForwardNote string
}

func DefaultTextConfig(section string) TextConfig {
	return TextConfig{
		Section:     section,
		EchoSubject: "[JDAV {{.Section}}] Bitte bestätige deine Daten",
		EchoBody: "Hallo {{.Prename}},\n\n" +
			"damit wir dich im Notfall erreichen, prüfe bitte deine bei der JDAV {{.Section}} " +
			"hinterlegten Daten und bestätige sie.\n\nDeine Jugendleiter",
		ForwardNote: "Diese Nachricht wurde über den Verteiler der JDAV {{.Section}} weitergeleitet.",
	}
}

// Texts holds parsed mail texts bound to one section.
type Texts struct {
	section string

	echoSubject *template.Template
	echoBody    *template.Template
	forwardNote *template.Template
}

func NewTexts(cfg TextConfig) (*Texts, error) {
	if cfg.Section == "" {
		return nil, errors.New("mail texts: section name is required")
	}

	t := &Texts{section: cfg.Section}
	var err error
	if t.echoSubject, err = template.New("echo_subject").Parse(cfg.EchoSubject); err != nil {
		return nil, errors.Wrap(err, "mail texts: echo subject")
	}
	if t.echoBody, err = template.New("echo_body").Parse(cfg.EchoBody); err != nil {
		return nil, errors.Wrap(err, "mail texts: echo body")
	}
	if t.forwardNote, err = template.New("forward_note").Parse(cfg.ForwardNote); err != nil {
		return nil, errors.Wrap(err, "mail texts: forward note")
	}
	return t, nil
}

type textData struct {
	Section string
	Prename string
}

func render(t *template.Template, data textData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "render %s", t.Name())
	}
	return buf.String(), nil
}

func (t *Texts) Section() string {
	return t.section
}

func (t *Texts) EchoSubject() (string, error) {
	return render(t.echoSubject, textData{Section: t.section})
}

func (t *Texts) EchoBody(prename string) (string, error) {
	return render(t.echoBody, textData{Section: t.section, Prename: prename})
}

func (t *Texts) ForwardNote() (string, error) {
	return render(t.forwardNote, textData{Section: t.section})
}
