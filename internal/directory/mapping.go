package directory

import (
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// seedCompanyIDs holds well-known directory company identifiers.
var seedCompanyIDs = map[string]string{
	"stripe":     "2135371",
	"shopify":    "784652",
	"hubspot":    "68529",
	"atlassian":  "1441",
	"salesforce": "2478",
	"google":     "1441",
	"microsoft":  "1035",
	"amazon":     "1586",
	"meta":       "10667",
	"facebook":   "10667",
	"apple":      "162479",
	"netflix":    "165158",
	"uber":       "1815218",
	"airbnb":     "2267049",
	"spotify":    "2943991",
	"slack":      "2612894",
	"zoom":       "2532259",
	"notion":     "10248794",
	"figma":      "3166135",
	"datadog":    "2405953",
}

// Mapping is a concurrency-safe company name to directory identifier table.
// Names are compared after Unicode case folding and whitespace collapsing.
type Mapping struct {
	mu  sync.RWMutex
	ids map[string]string
}

// NewMapping creates a table holding the built-in seed plus extra.
func NewMapping(extra map[string]string) *Mapping {
	m := &Mapping{ids: make(map[string]string, len(seedCompanyIDs)+len(extra))}
	for name, id := range seedCompanyIDs {
		m.ids[fold(name)] = id
	}
	for name, id := range extra {
		m.Add(name, id)
	}
	return m
}

// LoadMapping builds a table from the seed plus a YAML file of name: id
// pairs. An empty path loads only the seed.
func LoadMapping(path string) (*Mapping, error) {
	if path == "" {
		return NewMapping(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "directory: read mapping %s", path)
	}
	var extra map[string]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, eris.Wrapf(err, "directory: parse mapping %s", path)
	}
	return NewMapping(extra), nil
}

// Lookup returns the identifier registered for name.
func (m *Mapping) Lookup(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.ids[fold(name)]
	return id, ok
}

// Add registers id for name for the lifetime of the process.
func (m *Mapping) Add(name, id string) {
	key := fold(name)
	if key == "" || id == "" {
		return
	}
	m.mu.Lock()
	m.ids[key] = id
	m.mu.Unlock()
}

// Len returns the number of registered names.
func (m *Mapping) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// fold case-folds s and collapses whitespace. A Caser is stateful, so each
// call builds its own.
func fold(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}
