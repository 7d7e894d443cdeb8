package scenegraph

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed support_table.yaml
var supportTableYAML []byte

type supportEntry struct {
	Support Support `yaml:"support"`
	Reason  string  `yaml:"reason"`
}

type supportTable struct {
	Families map[string]supportEntry `yaml:"families"`
}

var (
	tableOnce sync.Once
	table     supportTable
	tableErr  error
)

func loadTable() (supportTable, error) {
	tableOnce.Do(func() {
		tableErr = yaml.Unmarshal(supportTableYAML, &table)
		if tableErr != nil {
			tableErr = fmt.Errorf("parse support table: %w", tableErr)
		}
	})
	return table, tableErr
}

// Classify maps an effect family to its support tag and a short reason.
// Families not present in the table are Unsupported; the second return value
// reports whether the family was known.
func Classify(family string) (Support, string, bool) {
	tbl, err := loadTable()
	if err != nil {
		// Embedded table failing to parse is a build defect; classify
		// conservatively instead of panicking at runtime.
		return Unsupported, "support table unavailable", false
	}
	entry, ok := tbl.Families[family]
	if !ok {
		return Unsupported, "effect family not mapped yet", false
	}
	return entry.Support, entry.Reason, true
}
