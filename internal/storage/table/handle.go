package table

import (
	"fmt"
	"path/filepath"

	"github.com/xtxerr/ktimport/internal/validation"
)

// Handle addresses one table as /<owner>/<category>/<table>.
type Handle struct {
	Owner    string
	Category string
	Table    string
}

// NewHandle validates the path components and returns a handle.
func NewHandle(owner, category, table string) (Handle, error) {
	if err := validation.ValidateCategory(owner); err != nil {
		return Handle{}, fmt.Errorf("owner: %w", err)
	}
	if err := validation.ValidateCategory(category); err != nil {
		return Handle{}, fmt.Errorf("category: %w", err)
	}
	if err := validation.ValidateTableName(table); err != nil {
		return Handle{}, fmt.Errorf("table: %w", err)
	}
	return Handle{Owner: owner, Category: category, Table: table}, nil
}

// String returns the store path of the table, e.g. "/self/Health/weight".
func (h Handle) String() string {
	return "/" + h.Owner + "/" + h.Category + "/" + h.Table
}

// dir returns the table directory below root.
func (h Handle) dir(root string) string {
	return filepath.Join(root, h.Owner, h.Category, h.Table)
}
