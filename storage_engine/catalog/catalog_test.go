package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"HTAPDB/types"
)

func peopleSchema() types.Schema {
	return types.Schema{Columns: []types.ColumnDef{
		{Name: "name", Kind: types.KindText},
		{Name: "age", Kind: types.KindSmallInt, Nullable: true},
		{Name: "active", Kind: types.KindBoolean},
	}}
}

// TestCatalogPersistence tests that a schema set once is loaded by the next manager
func TestCatalogPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.schema.json")

	cm, err := NewCatalogManager(path)
	if err != nil {
		t.Fatalf("Failed to create catalog: %v", err)
	}
	if cm.HasSchema() {
		t.Errorf("New catalog should have no schema")
	}
	if err := cm.SetSchema(peopleSchema()); err != nil {
		t.Fatalf("Failed to set schema: %v", err)
	}

	reopened, err := NewCatalogManager(path)
	if err != nil {
		t.Fatalf("Failed to reload catalog: %v", err)
	}
	got := reopened.Schema()
	if len(got.Columns) != 3 || got.Columns[1] != peopleSchema().Columns[1] {
		t.Errorf("Schema mismatch after reload: %+v", got)
	}
}

func TestCatalogRejectsBadSchemas(t *testing.T) {
	cm, err := NewCatalogManager(filepath.Join(t.TempDir(), "s.json"))
	if err != nil {
		t.Fatalf("Failed to create catalog: %v", err)
	}
	bad := map[string][]types.ColumnDef{
		"empty name": {{Name: " ", Kind: types.KindText}},
		"reserved":   {{Name: "ID", Kind: types.KindInteger}},
		"duplicate":  {{Name: "a", Kind: types.KindText}, {Name: "A", Kind: types.KindText}},
		"no kind":    {{Name: "a"}},
	}
	for name, cols := range bad {
		if err := cm.SetSchema(types.Schema{Columns: cols}); types.KindOf(err) != types.KindInvalidArgument {
			t.Errorf("%s: expected invalid argument, got %v", name, err)
		}
	}
	if cm.HasSchema() {
		t.Errorf("Rejected schema was applied")
	}
}

func TestCheckRow(t *testing.T) {
	cm, _ := NewCatalogManager(filepath.Join(t.TempDir(), "s.json"))

	// no schema accepts anything
	if err := cm.CheckRow([]types.Value{types.Int(1)}); err != nil {
		t.Errorf("Schemaless check failed: %v", err)
	}
	cm.SetSchema(peopleSchema())

	tests := []struct {
		name string
		row  []types.Value
		ok   bool
	}{
		{"valid", []types.Value{types.Text("a"), types.SmallInt(3), types.Bool(true)}, true},
		{"narrower int", []types.Value{types.Text("a"), types.TinyInt(3), types.Bool(true)}, true},
		{"wider int", []types.Value{types.Text("a"), types.Int(3), types.Bool(true)}, false},
		{"nullable null", []types.Value{types.Text("a"), types.Null(), types.Bool(false)}, true},
		{"required null", []types.Value{types.Null(), types.Null(), types.Bool(false)}, false},
		{"wrong kind", []types.Value{types.Text("a"), types.SmallInt(3), types.Int(1)}, false},
		{"short", []types.Value{types.Text("a")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cm.CheckRow(tt.row)
			if tt.ok && err != nil {
				t.Errorf("Expected valid row, got %v", err)
			}
			if !tt.ok && types.KindOf(err) != types.KindInvalidArgument {
				t.Errorf("Expected invalid argument, got %v", err)
			}
		})
	}
}

func TestParseRow(t *testing.T) {
	cm, _ := NewCatalogManager(filepath.Join(t.TempDir(), "s.json"))

	vals, err := cm.ParseRow([]string{"7", "x"})
	if err != nil || vals[0].Kind() != types.KindInteger || vals[1].Kind() != types.KindText {
		t.Errorf("Inferred parse mismatch: %v %v", vals, err)
	}

	cm.SetSchema(peopleSchema())
	vals, err = cm.ParseRow([]string{"alice", "null", "true"})
	if err != nil {
		t.Fatalf("Failed to parse row: %v", err)
	}
	if vals[0].AsText() != "alice" || !vals[1].IsNull() || !vals[2].AsBool() {
		t.Errorf("Parsed row mismatch: %v", vals)
	}
	if _, err := cm.ParseRow([]string{"alice", "old", "true"}); err == nil {
		t.Errorf("Bad integer should fail")
	}
}

func TestCorruptSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := NewCatalogManager(path); types.KindOf(err) != types.KindDecode {
		t.Errorf("Expected decode error, got %v", err)
	}
}
