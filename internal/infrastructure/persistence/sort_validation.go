package persistence

import (
	"strings"

	"github.com/pharmabill/backend/internal/domain/shared"
	"gorm.io/gorm/clause"
)

// SortColumns maps the sort keys clients may send to real column names.
// Both snake_case and the camelCase keys used by the API are accepted.
type SortColumns map[string]string

// MedicineSortColumns lists the sortable catalog columns
var MedicineSortColumns = SortColumns{
	"name":        "name",
	"batch_no":    "batch_no",
	"batchNo":     "batch_no",
	"category":    "category",
	"quantity":    "quantity",
	"price":       "price",
	"mrp":         "mrp",
	"expiry_date": "expiry_date",
	"expiryDate":  "expiry_date",
	"created_at":  "created_at",
	"createdAt":   "created_at",
	"updated_at":  "updated_at",
	"updatedAt":   "updated_at",
}

// SaleSortColumns lists the sortable ledger columns
var SaleSortColumns = SortColumns{
	"bill_number":   "bill_sequence",
	"billNumber":    "bill_sequence",
	"customer_name": "customer_name",
	"customerName":  "customer_name",
	"total":         "total",
	"created_at":    "created_at",
	"createdAt":     "created_at",
}

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField resolves a client sort key to a whitelisted column.
// Returns defaultColumn for anything not in the whitelist.
func ValidateSortField(sortField string, allowed SortColumns, defaultColumn string) string {
	if column, ok := allowed[strings.TrimSpace(sortField)]; ok {
		return column
	}
	return defaultColumn
}

// orderBy builds the ORDER BY for a listing. id is appended as a tie
// breaker so pages stay stable when the sort column has duplicates.
func orderBy(f shared.Filter, allowed SortColumns, defaultColumn string) clause.OrderBy {
	column := ValidateSortField(f.OrderBy, allowed, defaultColumn)
	desc := ValidateSortOrder(f.OrderDir) == "DESC"
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: column}, Desc: desc},
		{Column: clause.Column{Name: "id"}, Desc: desc},
	}}
}
