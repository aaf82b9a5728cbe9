package cache

import (
	"regexp"
	"strings"

	"github.com/biorempp/biorempp/internal/errs"
)

// Cache layer identifiers referenced by key templates in use-case documents.
const (
	LayerGraph     = "graph"
	LayerDataFrame = "dataframe"
)

// DefaultGraphKeyTemplate is used when a use-case document declares no key
// template for the graph layer.
const DefaultGraphKeyTemplate = "graph_{data_hash}_{filters_hash}"

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// RenderKeyTemplate substitutes the supported placeholders into a key
// template. Referencing a placeholder outside the provided set is a
// configuration error naming the offending placeholder.
func RenderKeyTemplate(template string, values map[string]string) (string, error) {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	rendered := template
	for _, match := range matches {
		placeholder := match[1]
		value, ok := values[placeholder]
		if !ok {
			return "", errs.Configurationf("cache: key template %q references unknown placeholder %q", template, placeholder)
		}
		rendered = strings.ReplaceAll(rendered, match[0], value)
	}
	return rendered, nil
}
