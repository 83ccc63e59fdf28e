package diag

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed faultcodes.yaml
var defaultTableYAML []byte

// CEL is a vendor check-engine-light blink code such as "8" or "8-1".
type CEL string

// Main returns the part before the '-' delimiter.
func (c CEL) Main() string {
	main, _, _ := strings.Cut(string(c), "-")
	return main
}

// Sub returns the part after the '-' delimiter, or "" when there is none.
func (c CEL) Sub() string {
	_, sub, _ := strings.Cut(string(c), "-")
	return sub
}

// FaultCode is one immutable table entry.
type FaultCode struct {
	Flag        Flag   `yaml:"flag" json:"flag"`
	DTC         string `yaml:"dtc" json:"dtc"`
	CEL         CEL    `yaml:"cel" json:"cel,omitempty"`
	Description string `yaml:"description" json:"description"`
}

func (f FaultCode) String() string {
	if f.CEL == "" {
		return fmt.Sprintf("%s %s", f.DTC, f.Description)
	}
	return fmt.Sprintf("%s (CEL %s) %s", f.DTC, f.CEL, f.Description)
}

type tableFile struct {
	Codes []FaultCode `yaml:"codes"`
}

// Table is the read-only fault code reference table with lookup indices.
type Table struct {
	entries []FaultCode
	byFlag  map[Flag]int
	byDTC   map[string][]int
	byCEL   map[string][]int
}

// NewTable indexes entries, which keep their definition order. Flags must be
// unique.
func NewTable(entries []FaultCode) (*Table, error) {
	t := &Table{
		entries: append([]FaultCode(nil), entries...),
		byFlag:  make(map[Flag]int, len(entries)),
		byDTC:   make(map[string][]int, len(entries)),
		byCEL:   make(map[string][]int),
	}

	for i, e := range t.entries {
		if _, dup := t.byFlag[e.Flag]; dup {
			return nil, fmt.Errorf("duplicate fault flag %d (%s)", e.Flag, e.DTC)
		}
		t.byFlag[e.Flag] = i
		t.byDTC[e.DTC] = append(t.byDTC[e.DTC], i)
		if e.CEL == "" {
			continue
		}
		t.byCEL[e.CEL.Main()] = append(t.byCEL[e.CEL.Main()], i)
		if e.CEL.Sub() != "" {
			t.byCEL[string(e.CEL)] = append(t.byCEL[string(e.CEL)], i)
		}
	}

	return t, nil
}

// LoadTable parses a YAML table with the same schema as the embedded one.
func LoadTable(r io.Reader) (*Table, error) {
	var file tableFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse fault code table: %w", err)
	}
	return NewTable(file.Codes)
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// DefaultTable returns the shared table built from the embedded reference
// data on first use.
func DefaultTable() *Table {
	defaultOnce.Do(func() {
		var file tableFile
		if err := yaml.Unmarshal(defaultTableYAML, &file); err != nil {
			panic(fmt.Sprintf("embedded fault code table: %v", err))
		}
		t, err := NewTable(file.Codes)
		if err != nil {
			panic(fmt.Sprintf("embedded fault code table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the entries in definition order.
func (t *Table) Entries() []FaultCode {
	return append([]FaultCode(nil), t.entries...)
}

// Lookup returns the entry for flag.
func (t *Table) Lookup(flag Flag) (FaultCode, bool) {
	i, ok := t.byFlag[flag]
	if !ok {
		return FaultCode{}, false
	}
	return t.entries[i], true
}

// ByDTC returns every entry with the given diagnostic trouble code.
func (t *Table) ByDTC(dtc string) []FaultCode {
	return t.collect(t.byDTC[dtc])
}

// ByCEL returns every entry matching a main ("8") or main-sub ("8-1") code.
func (t *Table) ByCEL(cel string) []FaultCode {
	return t.collect(t.byCEL[cel])
}

func (t *Table) collect(idx []int) []FaultCode {
	if len(idx) == 0 {
		return nil
	}
	out := make([]FaultCode, len(idx))
	for i, j := range idx {
		out[i] = t.entries[j]
	}
	return out
}

// Active returns the set of table entries whose flag is set in mask.
func (t *Table) Active(mask Mask) FaultSet {
	return FaultSet{table: t, mask: mask}
}
