package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
)

// Parser loads case files and validates them against the Case struct
// tags. A single parser can be reused across files.
type Parser struct {
	ctx      *cue.Context
	validate *validator.Validate
}

// NewParser creates a case file parser.
func NewParser() *Parser {
	return &Parser{
		ctx:      cuecontext.New(),
		validate: validator.New(),
	}
}

// Load reads, decodes, and validates the case file at path. The format
// is chosen by extension: .cue, .yaml, or .yml.
func (p *Parser) Load(path string) (*Case, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, flowsheet.NewConfigError(
			fmt.Sprintf("failed to read case file %s", path), err)
	}

	var c *Case
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		c, err = p.parseCUE(string(content), path)
	case ".yaml", ".yml":
		c, err = p.parseYAML(content, path)
	default:
		return nil, flowsheet.NewConfigError(
			fmt.Sprintf("unsupported case file extension %q", filepath.Ext(path)), nil).
			WithCode(flowsheet.ErrCodeInvalidArgument)
	}
	if err != nil {
		return nil, err
	}

	if err := p.validate.Struct(c); err != nil {
		return nil, flowsheet.NewConfigError(
			fmt.Sprintf("case file %s failed validation", path), err).
			WithCode(flowsheet.ErrCodeValidation)
	}
	return c, nil
}

// ParseInline parses and validates inline CUE content. Used by tests and
// by callers that assemble cases programmatically.
func (p *Parser) ParseInline(content string) (*Case, error) {
	c, err := p.parseCUE(content, "inline")
	if err != nil {
		return nil, err
	}
	if err := p.validate.Struct(c); err != nil {
		return nil, flowsheet.NewConfigError(
			"inline case failed validation", err).
			WithCode(flowsheet.ErrCodeValidation)
	}
	return c, nil
}

// parseCUE compiles CUE content and decodes the case. The case may sit
// at the document root or under a top-level "case" field.
func (p *Parser) parseCUE(content, filename string) (*Case, error) {
	val := p.ctx.CompileString(content, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return nil, cueToConfigError(filename, err)
	}

	if nested := val.LookupPath(cue.ParsePath("case")); nested.Exists() {
		val = nested
	}

	var c Case
	if err := val.Decode(&c); err != nil {
		return nil, cueToConfigError(filename, err)
	}
	return &c, nil
}

// parseYAML decodes YAML content into the case. Unknown fields are
// rejected so typos fail loudly.
func (p *Parser) parseYAML(content []byte, filename string) (*Case, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(content)))
	dec.KnownFields(true)

	var c Case
	if err := dec.Decode(&c); err != nil {
		return nil, flowsheet.NewConfigError(
			fmt.Sprintf("failed to decode YAML case %s", filename), err).
			WithCode(flowsheet.ErrCodeValidation)
	}
	return &c, nil
}

// cueToConfigError folds CUE's error list into one classified error with
// file positions preserved in the message.
func cueToConfigError(filename string, err error) error {
	var sb strings.Builder
	for i, e := range cueerrors.Errors(err) {
		if i > 0 {
			sb.WriteString("; ")
		}
		pos := cueerrors.Positions(e)
		if len(pos) > 0 {
			fmt.Fprintf(&sb, "%s:%d:%d: ", pos[0].Filename(), pos[0].Line(), pos[0].Column())
		}
		sb.WriteString(e.Error())
	}
	if sb.Len() == 0 {
		sb.WriteString(err.Error())
	}
	return flowsheet.NewConfigError(
		fmt.Sprintf("failed to parse case %s: %s", filename, sb.String()), nil).
		WithCode(flowsheet.ErrCodeValidation)
}
