package catalog

import (
	"encoding/json"
	"os"
	"strings"

	"HTAPDB/logging"
	"HTAPDB/types"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

/*
The catalog persists the schema of the table: column names, kinds and
nullability. Rows are stored as plain value lists, so the catalog is what gives
column positions a name for display and what InsertValues checks rows against.

A database without a schema file has an empty schema and accepts any row.
*/

func NewCatalogManager(path string) (*CatalogManager, error) {
	cm := &CatalogManager{path: path, log: logging.WithComponent("catalog")}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cm, nil
	}
	if err != nil {
		return nil, types.NewError(types.KindIO, "load schema", errors.Wrapf(err, "read %s", path))
	}
	var schema types.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, types.NewError(types.KindDecode, "load schema", errors.Wrapf(err, "parse %s", path))
	}
	if err := validateSchema(schema); err != nil {
		return nil, err
	}
	cm.schema = schema
	cm.log.Debug("schema loaded", zap.String("path", path), zap.Int("columns", len(schema.Columns)))
	return cm, nil
}

func (cm *CatalogManager) Schema() types.Schema {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.schema
}

func (cm *CatalogManager) HasSchema() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.schema.Columns) > 0
}

// SetSchema replaces the schema and persists it.
func (cm *CatalogManager) SetSchema(schema types.Schema) error {
	if err := validateSchema(schema); err != nil {
		return err
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if err := cm.persist(schema); err != nil {
		return err
	}
	cm.schema = schema
	cm.log.Info("schema updated", zap.Strings("columns", schema.Headers()[1:]))
	return nil
}

func (cm *CatalogManager) persist(schema types.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal schema")
	}
	tmp := cm.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return types.NewError(types.KindIO, "persist schema", err)
	}
	if err := os.Rename(tmp, cm.path); err != nil {
		return types.NewError(types.KindIO, "persist schema", err)
	}
	return nil
}

// CheckRow verifies values against the schema: column count, kinds and
// nullability. Integer widths are interchangeable only upward.
func (cm *CatalogManager) CheckRow(values []types.Value) error {
	schema := cm.Schema()
	if len(schema.Columns) == 0 {
		return nil
	}
	if len(values) != len(schema.Columns) {
		return types.NewError(types.KindInvalidArgument, "check row",
			errors.Errorf("column count mismatch: expected %d, got %d", len(schema.Columns), len(values)))
	}
	for i, col := range schema.Columns {
		v := values[i]
		if v.IsNull() {
			if !col.Nullable {
				return types.NewError(types.KindInvalidArgument, "check row",
					errors.Errorf("column %s is not nullable", col.Name))
			}
			continue
		}
		if !assignable(v.Kind(), col.Kind) {
			return types.NewError(types.KindInvalidArgument, "check row",
				errors.Errorf("column %s is %s, got %s", col.Name, col.Kind, v.Kind()))
		}
	}
	return nil
}

// ParseRow reads one field per column using the schema's kinds. Without a
// schema every field is inferred.
func (cm *CatalogManager) ParseRow(fields []string) ([]types.Value, error) {
	schema := cm.Schema()
	values := make([]types.Value, len(fields))
	if len(schema.Columns) == 0 {
		for i, f := range fields {
			values[i] = types.InferValue(f)
		}
		return values, nil
	}
	if len(fields) != len(schema.Columns) {
		return nil, types.NewError(types.KindInvalidArgument, "parse row",
			errors.Errorf("column count mismatch: expected %d, got %d", len(schema.Columns), len(fields)))
	}
	for i, col := range schema.Columns {
		v, err := types.ParseValue(col.Kind, fields[i])
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", col.Name)
		}
		values[i] = v
	}
	return values, cm.CheckRow(values)
}

func assignable(got, want types.Kind) bool {
	if got == want {
		return true
	}
	rank := func(k types.Kind) int {
		switch k {
		case types.KindTinyInt:
			return 1
		case types.KindSmallInt:
			return 2
		case types.KindInteger:
			return 3
		}
		return 0
	}
	return rank(got) > 0 && rank(want) > 0 && rank(got) <= rank(want)
}

func validateSchema(schema types.Schema) error {
	seen := make(map[string]bool, len(schema.Columns))
	for i, col := range schema.Columns {
		name := strings.ToLower(strings.TrimSpace(col.Name))
		if name == "" {
			return types.NewError(types.KindInvalidArgument, "schema", errors.Errorf("column %d has no name", i))
		}
		if name == "id" {
			return types.NewError(types.KindInvalidArgument, "schema", errors.New("id is reserved for the row key"))
		}
		if seen[name] {
			return types.NewError(types.KindInvalidArgument, "schema", errors.Errorf("duplicate column %s", col.Name))
		}
		if col.Kind == types.KindNull {
			return types.NewError(types.KindInvalidArgument, "schema", errors.Errorf("column %s has no type", col.Name))
		}
		seen[name] = true
	}
	return nil
}
