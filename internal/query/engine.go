// Package query derives the displayed slice of the vehicle queue: status
// bucket filter, then free-text search, then pagination. All functions are
// pure and work on a snapshot of the records loaded for one folio.
package query

import (
	"strconv"
	"strings"

	"enturne-backend/internal/model"
)

// Bucket is a dashboard filter over vehicle statuses.
type Bucket string

const (
	BucketTodos      Bucket = "todos"
	BucketEnProceso  Bucket = "en_proceso"
	BucketEntrando   Bucket = "entrando"
	BucketFinalizado Bucket = "finalizado"
	BucketPendiente  Bucket = "pendiente"
)

// DefaultPageSize matches the rows shown by the queue table.
const DefaultPageSize = 20

// ParseBucket maps a filter name to a Bucket. Unknown names select all records.
func ParseBucket(name string) Bucket {
	switch b := Bucket(name); b {
	case BucketEnProceso, BucketEntrando, BucketFinalizado, BucketPendiente:
		return b
	default:
		return BucketTodos
	}
}

// BucketOf classifies a status into exactly one of the four status buckets.
func BucketOf(status string) Bucket {
	switch status {
	case model.StatusEnProceso:
		return BucketEnProceso
	case model.StatusTransitoEntrando:
		return BucketEntrando
	case model.StatusFinalizado:
		return BucketFinalizado
	default:
		return BucketPendiente
	}
}

// ApplyFilter keeps the records of the given bucket in their original order.
func ApplyFilter(records []model.Vehicle, bucket Bucket) []model.Vehicle {
	bucket = ParseBucket(string(bucket))
	if bucket == BucketTodos {
		return records
	}

	out := make([]model.Vehicle, 0, len(records))
	for _, r := range records {
		if BucketOf(r.Status) == bucket {
			out = append(out, r)
		}
	}
	return out
}

// Search keeps the records where any searchable field contains q, ignoring case.
func Search(records []model.Vehicle, q string) []model.Vehicle {
	if q == "" {
		return records
	}
	needle := strings.ToLower(q)

	out := make([]model.Vehicle, 0, len(records))
	for _, r := range records {
		if matches(r, needle) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r model.Vehicle, needle string) bool {
	fields := []*string{
		r.DriverName, r.Plate, r.Trailer, r.ProductGroup, r.Product,
		r.Process, r.Client, r.Origin, r.Destination, r.Manifest,
		r.PackagingType, &r.Status, r.NationalID,
	}
	for _, f := range fields {
		if f != nil && strings.Contains(strings.ToLower(*f), needle) {
			return true
		}
	}
	if r.AxleCount != nil && strings.Contains(strconv.Itoa(*r.AxleCount), needle) {
		return true
	}
	return false
}

// Page is one page of records plus the numbers needed to render the pager.
type Page struct {
	Items      []model.Vehicle `json:"items"`
	Number     int             `json:"page"`
	Size       int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
	TotalItems int             `json:"totalItems"`
}

// TotalPages is ceil(n/size) with a floor of one page.
func TotalPages(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 1
	}
	return (n-1)/size + 1
}

// Paginate returns the 1-indexed page of records. Pages outside
// [1, TotalPages] come back empty.
func Paginate(records []model.Vehicle, size, number int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	page := Page{
		Items:      []model.Vehicle{},
		Number:     number,
		Size:       size,
		TotalPages: TotalPages(len(records), size),
		TotalItems: len(records),
	}
	if number < 1 || number > page.TotalPages {
		return page
	}

	start := (number - 1) * size
	if start >= len(records) {
		return page
	}
	end := min(start+size, len(records))
	page.Items = records[start:end]
	return page
}

// ClampPage brings a requested page number into [1, totalPages].
func ClampPage(number, totalPages int) int {
	if number < 1 {
		return 1
	}
	if totalPages >= 1 && number > totalPages {
		return totalPages
	}
	return number
}

// NextPage returns the page after current, staying put on the last page.
func NextPage(current, totalPages int) int {
	if current < totalPages {
		return current + 1
	}
	return current
}

// PrevPage returns the page before current, staying put on the first page.
func PrevPage(current int) int {
	if current > 1 {
		return current - 1
	}
	return current
}

// Totals feeds the stat cards.
type Totals struct {
	Total      int `json:"total"`
	Finalizado int `json:"finalizado"`
	EnProceso  int `json:"enProceso"`
	Entrando   int `json:"entrando"`
	Pendiente  int `json:"pendiente"`
}

// ComputeTotals counts the records per bucket. Pendiente is whatever is left.
func ComputeTotals(records []model.Vehicle) Totals {
	t := Totals{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case model.StatusFinalizado:
			t.Finalizado++
		case model.StatusEnProceso:
			t.EnProceso++
		case model.StatusTransitoEntrando:
			t.Entrando++
		}
	}
	t.Pendiente = t.Total - t.Finalizado - t.EnProceso - t.Entrando
	return t
}

// Query is the state of the queue view.
type Query struct {
	Bucket   Bucket
	Search   string
	Page     int
	PageSize int
}

// Result is what the queue view renders.
type Result struct {
	Page
	Filter   Bucket `json:"filter"`
	Search   string `json:"search"`
	NextPage int    `json:"nextPage"`
	PrevPage int    `json:"prevPage"`
	Totals   Totals `json:"totals"`
}

// Run filters, searches and paginates records. Totals always cover the
// whole record set so the stat cards do not change with the filter.
func Run(records []model.Vehicle, q Query) Result {
	bucket := ParseBucket(string(q.Bucket))
	matched := Search(ApplyFilter(records, bucket), q.Search)

	number := ClampPage(q.Page, TotalPages(len(matched), q.PageSize))
	page := Paginate(matched, q.PageSize, number)

	return Result{
		Page:     page,
		Filter:   bucket,
		Search:   q.Search,
		NextPage: NextPage(page.Number, page.TotalPages),
		PrevPage: PrevPage(page.Number),
		Totals:   ComputeTotals(records),
	}
}
