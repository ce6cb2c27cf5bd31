package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/kailas-cloud/reformhub/internal/domain"
	"github.com/kailas-cloud/reformhub/internal/domain/resource"
)

const suggestedVectorizer = "text2vec-openai"

// schemaSource is the slice of the store client the check reads.
type schemaSource interface {
	Version(ctx context.Context) (string, error)
	Classes(ctx context.Context) ([]string, error)
	Class(ctx context.Context, name string) (*models.Class, error)
}

// Check is one line of the report.
type Check struct {
	Name   string
	OK     bool
	Detail string
	// Warning checks are reported but do not affect readiness.
	Warning bool
}

// Report is the outcome of inspecting one class.
type Report struct {
	Version string
	Class   string
	Classes []string
	Checks  []Check
}

// Ready reports whether every non-warning check passed.
func (r *Report) Ready() bool {
	for _, c := range r.Checks {
		if !c.OK && !c.Warning {
			return false
		}
	}
	return true
}

// inspect reads the schema and evaluates semantic-search readiness.
// Only connection failures are returned as errors; a missing class is a failed check.
func inspect(ctx context.Context, src schemaSource, class string, haveOpenAIKey bool) (Report, error) {
	rep := Report{Class: class}

	version, err := src.Version(ctx)
	if err != nil {
		return rep, fmt.Errorf("read server version: %w", err)
	}
	rep.Version = version

	classes, err := src.Classes(ctx)
	if err != nil {
		return rep, fmt.Errorf("list classes: %w", err)
	}
	rep.Classes = classes

	cl, err := src.Class(ctx, class)
	switch {
	case errors.Is(err, domain.ErrNotFound) || (err == nil && cl == nil):
		rep.Checks = append(rep.Checks, Check{Name: "class", Detail: fmt.Sprintf("class %q does not exist", class)})
		return rep, nil
	case err != nil:
		return rep, fmt.Errorf("read class %s: %w", class, err)
	}
	rep.Checks = append(rep.Checks, Check{Name: "class", OK: true, Detail: fmt.Sprintf("class %q found", class)})

	vectorizers := classVectorizers(cl)
	if len(vectorizers) == 0 {
		rep.Checks = append(rep.Checks, Check{
			Name:   "vectorizer",
			Detail: "no vectorizer configured; hybrid search needs a query embedder",
		})
	} else {
		rep.Checks = append(rep.Checks, Check{
			Name:   "vectorizer",
			OK:     true,
			Detail: strings.Join(vectorizers, ", "),
		})
		if usesOpenAI(vectorizers) && !haveOpenAIKey {
			rep.Checks = append(rep.Checks, Check{
				Name:    "openai key",
				Warning: true,
				Detail:  "vectorizer calls OpenAI but no key is set to forward",
			})
		}
	}

	missing := missingTextProperties(cl)
	if len(missing) > 0 {
		rep.Checks = append(rep.Checks, Check{
			Name:   "text properties",
			Detail: "missing or not text: " + strings.Join(missing, ", "),
		})
	} else {
		rep.Checks = append(rep.Checks, Check{
			Name:   "text properties",
			OK:     true,
			Detail: strings.Join(resource.TextProperties, ", "),
		})
	}
	return rep, nil
}

// classVectorizers lists the class-level and named-vector vectorizers, "none" excluded.
func classVectorizers(cl *models.Class) []string {
	var out []string
	if v := strings.TrimSpace(cl.Vectorizer); v != "" && v != "none" {
		out = append(out, v)
	}
	names := make([]string, 0, len(cl.VectorConfig))
	for name := range cl.VectorConfig {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		m, ok := cl.VectorConfig[name].Vectorizer.(map[string]any)
		if !ok {
			continue
		}
		for module := range m {
			if module != "none" {
				out = append(out, name+"="+module)
			}
		}
	}
	return out
}

func usesOpenAI(vectorizers []string) bool {
	for _, v := range vectorizers {
		if strings.Contains(v, "openai") {
			return true
		}
	}
	return false
}

func missingTextProperties(cl *models.Class) []string {
	have := make(map[string]bool, len(cl.Properties))
	for _, p := range cl.Properties {
		if p == nil {
			continue
		}
		have[p.Name] = slices.Contains(p.DataType, "text") || slices.Contains(p.DataType, "text[]")
	}
	var missing []string
	for _, name := range resource.TextProperties {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// suggestedSchema is a class definition that passes every check.
func suggestedSchema(class string) *models.Class {
	props := make([]*models.Property, 0, len(resource.Properties))
	for _, name := range resource.Properties {
		dataType := []string{"text"}
		if name == resource.PropPublicationDate {
			dataType = []string{"date"}
		}
		props = append(props, &models.Property{Name: name, DataType: dataType})
	}
	return &models.Class{
		Class:      class,
		Vectorizer: suggestedVectorizer,
		ModuleConfig: map[string]any{
			suggestedVectorizer: map[string]any{
				"model":              "text-embedding-3-small",
				"vectorizeClassName": false,
			},
		},
		Properties: props,
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	metaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)

	schemaStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// render prints the report, plus a suggested schema when the class is not ready.
func render(w io.Writer, rep *Report) error {
	fmt.Fprintln(w, titleStyle.Render("Schema check: "+rep.Class))
	if rep.Version != "" {
		fmt.Fprintln(w, metaStyle.Render("weaviate "+rep.Version+", classes: "+strings.Join(rep.Classes, ", ")))
	}
	for _, c := range rep.Checks {
		mark := okStyle.Render("PASS")
		switch {
		case c.Warning && !c.OK:
			mark = warnStyle.Render("WARN")
		case !c.OK:
			mark = failStyle.Render("FAIL")
		}
		fmt.Fprintf(w, "%s %-16s %s\n", mark, c.Name, c.Detail)
	}

	if rep.Ready() {
		fmt.Fprintln(w, okStyle.Render("\nReady for semantic search."))
		return nil
	}

	fmt.Fprintln(w, failStyle.Render("\nNot ready for semantic search. Suggested schema:"))
	data, err := json.MarshalIndent(suggestedSchema(rep.Class), "", "  ")
	if err != nil {
		return fmt.Errorf("encode suggested schema: %w", err)
	}
	fmt.Fprintln(w, schemaStyle.Render(string(data)))
	return nil
}
