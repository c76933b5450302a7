// Package messages renders the bot's user-facing replies from an embedded
// YAML catalog.
package messages

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var embedded []byte

// Keys every catalog must define.
var RequiredKeys = []string{
	"welcome", "help", "unknown_command", "connect_first", "cancelled",
	"nothing_to_cancel", "stopping", "invalid_identifier", "table_not_found",
	"schema_failure", "invalid_integer", "invalid_float", "invalid_boolean",

	"connect.user", "connect.password", "connect.database", "connect.host",
	"connect.port", "connect.success", "connect.failure",

	"create.table", "create.columns", "create.success", "create.failure",

	"alter.table", "alter.action", "alter.invalid_action", "alter.add",
	"alter.invalid_add", "alter.remove", "alter.added", "alter.add_failure",
	"alter.removed", "alter.remove_failure",

	"insert.table", "insert.column", "insert.invalid_column", "insert.value",
	"insert.success", "insert.failure",

	"select.table", "select.columns", "select.column_not_found",
	"select.results", "select.empty", "select.failure",

	"update.table", "update.column", "update.invalid_column", "update.no_values",
	"update.values", "update.values_failure", "update.invalid_value",
	"update.new_value", "update.type_not_found", "update.success", "update.failure",
}

// Data is the template context of a message.
type Data map[string]any

// Catalog holds the parsed message templates.
type Catalog struct {
	templates map[string]*template.Template
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// Default returns the catalog built from the embedded messages.yaml.
func Default() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := Load(embedded)
		if err != nil {
			panic(fmt.Sprintf("embedded message catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load parses a YAML document of key: template pairs and checks that every
// required key is present.
func Load(data []byte) (*Catalog, error) {
	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse message catalog: %w", err)
	}

	c := &Catalog{templates: make(map[string]*template.Template, len(raw))}
	for key, text := range raw {
		tmpl, err := template.New(key).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("message %q: %w", key, err)
		}
		c.templates[key] = tmpl
	}

	var missing []string
	for _, key := range RequiredKeys {
		if _, ok := c.templates[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("message catalog is missing keys: %s", strings.Join(missing, ", "))
	}
	return c, nil
}

// Render executes the template for key. An unknown key or a template error
// renders the key itself so a reply is always sent.
func (c *Catalog) Render(key string, data Data) string {
	tmpl, ok := c.templates[key]
	if !ok {
		return key
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return key
	}
	return b.String()
}

// Has reports whether key is defined.
func (c *Catalog) Has(key string) bool {
	_, ok := c.templates[key]
	return ok
}

// Keys returns the defined keys in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.templates))
	for k := range c.templates {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
