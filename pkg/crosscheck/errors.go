package crosscheck

import (
	"errors"
	"fmt"

	"github.com/statedge/crosscheck-go/pkg/crosscheck/normalize"
	"github.com/statedge/crosscheck-go/pkg/crosscheck/parser"
)

// ErrNoCommonSheets indicates the two workbooks share no sheet names.
var ErrNoCommonSheets = errors.New("no common sheets between workbooks")

// ErrStructureNotDetected indicates a sheet without a locatable crosstab.
var ErrStructureNotDetected = parser.ErrStructureNotDetected

// ErrSheetNotFound indicates a requested sheet absent from a workbook.
var ErrSheetNotFound = parser.ErrSheetNotFound

// ErrNotNumeric indicates cell text that does not parse as a number.
var ErrNotNumeric = normalize.ErrNotNumeric

// ComparisonError wraps a per-sheet failure with its location. Per-sheet
// failures degrade the sheet to a skipped entry; they never abort the run.
type ComparisonError struct {
	// SheetName is the sheet being processed.
	SheetName string
	// Side is "published" or "recreated".
	Side string
	// Err is the underlying failure.
	Err error
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("sheet %q (%s): %v", e.SheetName, e.Side, e.Err)
}

func (e *ComparisonError) Unwrap() error {
	return e.Err
}

// NewComparisonError creates a ComparisonError.
func NewComparisonError(sheetName, side string, err error) *ComparisonError {
	return &ComparisonError{SheetName: sheetName, Side: side, Err: err}
}
