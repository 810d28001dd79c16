package sales

import (
	"fmt"

	"github.com/google/uuid"
)

// LineError attributes a failure to one requested line of a bill
type LineError struct {
	Index      int
	MedicineID uuid.UUID
	Err        error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (medicine %s): %v", e.Index, e.MedicineID, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
