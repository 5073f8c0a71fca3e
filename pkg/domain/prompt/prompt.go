// Package prompt renders a normalized specification into the five
// instruction layers of a prompt package.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/felixgeelhaar/agentforge/pkg/domain/capability"
	"github.com/felixgeelhaar/agentforge/pkg/domain/spec"
)

// Layer names, in rendering order.
const (
	LayerSystemBackbone  = "system_backbone"
	LayerDomainManual    = "domain_manual"
	LayerOutputContracts = "output_contracts"
	LayerToolPolicy      = "tool_policy"
	LayerExamples        = "examples"
)

// Layers returns every layer name in rendering order.
func Layers() []string {
	return []string{
		LayerSystemBackbone,
		LayerDomainManual,
		LayerOutputContracts,
		LayerToolPolicy,
		LayerExamples,
	}
}

// Package is the rendered instruction set. Every field is always present,
// possibly empty.
type Package struct {
	SystemBackbone  string `json:"system_backbone"`
	DomainManual    string `json:"domain_manual"`
	OutputContracts string `json:"output_contracts"`
	ToolPolicy      string `json:"tool_policy"`
	Examples        string `json:"examples"`
}

// Layer returns the text of the named layer.
func (p Package) Layer(name string) (string, bool) {
	switch name {
	case LayerSystemBackbone:
		return p.SystemBackbone, true
	case LayerDomainManual:
		return p.DomainManual, true
	case LayerOutputContracts:
		return p.OutputContracts, true
	case LayerToolPolicy:
		return p.ToolPolicy, true
	case LayerExamples:
		return p.Examples, true
	}
	return "", false
}

// TotalLength is the combined character count of all layers.
func (p Package) TotalLength() int {
	n := 0
	for _, name := range Layers() {
		text, _ := p.Layer(name)
		n += len([]rune(text))
	}
	return n
}

// SystemPrompt joins the non-empty layers into one prompt.
func (p Package) SystemPrompt() string {
	parts := make([]string, 0, 5)
	for _, name := range Layers() {
		if text, _ := p.Layer(name); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// KnowledgeMap lists uploaded files and the spec blocks they inform.
type KnowledgeMap struct {
	Files []KnowledgeFile `json:"files" yaml:"files"`
}

type KnowledgeFile struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Type       string   `json:"type" yaml:"type"`
	Summary    string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	SpecBlocks []string `json:"spec_blocks" yaml:"spec_blocks"`
}

//go:embed templates/*
var templatesFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
}).ParseFS(templatesFS, "templates/*.tmpl"))

type layerData struct {
	spec.Specification
	Capabilities []capability.Leaf
	Specialties  []string
	Knowledge    []KnowledgeFile
}

// Generate renders the five layers from the normalized spec, the effective
// capabilities and an optional knowledge map.
func Generate(n spec.Normalized, caps capability.Config, km *KnowledgeMap) Package {
	data := layerData{
		Specification: n.Specification,
		Capabilities:  caps.Enabled(),
	}
	if caps.DomainSpecific.Enabled {
		data.Specialties = nonBlank(caps.DomainSpecific.Tags)
	}
	if km != nil {
		data.Knowledge = km.Files
	}

	return Package{
		SystemBackbone:  render(LayerSystemBackbone, data),
		DomainManual:    render(LayerDomainManual, data),
		OutputContracts: render(LayerOutputContracts, data),
		ToolPolicy:      render(LayerToolPolicy, data),
		Examples:        render(LayerExamples, data),
	}
}

// render panics on execution errors: the templates are static and the data
// is plain values, so a failure is a defect in this package.
func render(layer string, data layerData) string {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, layer+".tmpl", data); err != nil {
		panic(fmt.Sprintf("render %s: %v", layer, err))
	}
	return tidy(buf.String())
}

// tidy strips trailing spaces and collapses runs of blank lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
