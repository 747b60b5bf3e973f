package query

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enturne-backend/internal/model"
)

func ptr[T any](v T) *T { return &v }

func sampleVehicles() []model.Vehicle {
	return []model.Vehicle{
		{ID: 1, Status: model.StatusFinalizado, Plate: ptr("ABC123"), DriverName: ptr("Pedro Gómez")},
		{ID: 2, Status: model.StatusEnProceso, Plate: ptr("XYZ88"), Client: ptr("Ecopetrol")},
		{ID: 3, Status: model.StatusTransitoEntrando, Plate: ptr("JKL456"), NationalID: ptr("80123456")},
		{ID: 4, Status: model.StatusAnunciado, Plate: nil, AxleCount: ptr(9)},
		{ID: 5, Status: model.StatusEnInspeccion, Product: ptr("Soda cáustica"), Manifest: ptr("MN-77")},
	}
}

func ids(vs []model.Vehicle) []int64 {
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}

func TestApplyFilter(t *testing.T) {
	records := sampleVehicles()

	testCases := []struct {
		bucket Bucket
		want   []int64
	}{
		{BucketTodos, []int64{1, 2, 3, 4, 5}},
		{BucketEnProceso, []int64{2}},
		{BucketEntrando, []int64{3}},
		{BucketFinalizado, []int64{1}},
		{BucketPendiente, []int64{4, 5}},
		{Bucket("inspeccion"), []int64{1, 2, 3, 4, 5}},
	}

	for _, tc := range testCases {
		t.Run(string(tc.bucket), func(t *testing.T) {
			assert.Equal(t, tc.want, ids(ApplyFilter(records, tc.bucket)))
		})
	}
}

func TestApplyFilter_BucketsPartitionRecords(t *testing.T) {
	var records []model.Vehicle
	for i, s := range model.Statuses() {
		records = append(records, model.Vehicle{ID: int64(i + 1), Status: s})
	}
	records = append(records, model.Vehicle{ID: 99, Status: ""})

	sum := 0
	for _, b := range []Bucket{BucketEnProceso, BucketEntrando, BucketFinalizado, BucketPendiente} {
		sum += len(ApplyFilter(records, b))
	}
	assert.Equal(t, len(records), sum)
}

func TestSearch(t *testing.T) {
	records := sampleVehicles()

	testCases := []struct {
		name  string
		query string
		want  []int64
	}{
		{"empty query is identity", "", []int64{1, 2, 3, 4, 5}},
		{"case insensitive plate", "abc", []int64{1}},
		{"accented driver name", "GÓMEZ", []int64{1}},
		{"client", "ecope", []int64{2}},
		{"national id", "8012", []int64{3}},
		{"axle count as decimal string", "9", []int64{4}},
		{"status text", "inspeccion", []int64{5}},
		{"manifest", "mn-7", []int64{5}},
		{"no match", "zzz", []int64{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Search(records, tc.query)))
		})
	}
}

func TestSearch_OperatesOnFilteredList(t *testing.T) {
	records := sampleVehicles()
	got := Search(ApplyFilter(records, BucketPendiente), "abc")
	assert.Empty(t, got, "ABC123 is finalizado and must not leak through the pendiente filter")
}

func TestPaginate(t *testing.T) {
	var records []model.Vehicle
	for i := 1; i <= 45; i++ {
		records = append(records, model.Vehicle{ID: int64(i)})
	}

	p := Paginate(records, 20, 1)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 45, p.TotalItems)
	assert.Len(t, p.Items, 20)

	last := Paginate(records, 20, 3)
	assert.Len(t, last.Items, 5)
	assert.Equal(t, int64(41), last.Items[0].ID)

	assert.Empty(t, Paginate(records, 20, 4).Items)
	assert.Empty(t, Paginate(records, 20, 0).Items)

	huge := Paginate(records, math.MaxInt, 1)
	assert.Equal(t, 1, huge.TotalPages)
	assert.Len(t, huge.Items, 45)
	assert.Empty(t, Paginate(records, math.MaxInt, 3).Items)
	assert.Equal(t, 1, NextPage(huge.Number, huge.TotalPages))
}

func TestPaginate_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 19, 20, 21, 57} {
		for _, size := range []int{1, 7, 20} {
			t.Run(fmt.Sprintf("n=%d size=%d", n, size), func(t *testing.T) {
				var records []model.Vehicle
				for i := 0; i < n; i++ {
					records = append(records, model.Vehicle{ID: int64(i)})
				}

				total := TotalPages(n, size)
				var joined []model.Vehicle
				for page := 1; page <= total; page++ {
					joined = append(joined, Paginate(records, size, page).Items...)
				}
				assert.Equal(t, ids(records), ids(joined))
			})
		}
	}
}

func TestPaginate_EmptyList(t *testing.T) {
	p := Paginate(nil, 20, 1)
	assert.Empty(t, p.Items)
	assert.NotNil(t, p.Items)
	assert.Equal(t, 1, p.TotalPages)
}

func TestNavigation(t *testing.T) {
	assert.Equal(t, 2, NextPage(1, 3))
	assert.Equal(t, 3, NextPage(3, 3))
	assert.Equal(t, 1, PrevPage(1))
	assert.Equal(t, 2, PrevPage(3))

	assert.Equal(t, 1, ClampPage(0, 3))
	assert.Equal(t, 3, ClampPage(9, 3))
	assert.Equal(t, 2, ClampPage(2, 3))
}

func TestComputeTotals(t *testing.T) {
	records := []model.Vehicle{
		{Status: model.StatusFinalizado},
		{Status: model.StatusEnProceso},
		{Status: model.StatusTransitoEntrando},
		{Status: model.StatusAnunciado},
	}

	assert.Equal(t, Totals{Total: 4, Finalizado: 1, EnProceso: 1, Entrando: 1, Pendiente: 1}, ComputeTotals(records))
	assert.Equal(t, len(ApplyFilter(records, BucketPendiente)), ComputeTotals(records).Pendiente)
}

func TestRun(t *testing.T) {
	var records []model.Vehicle
	for i := 1; i <= 25; i++ {
		status := model.StatusEnturnado
		if i%5 == 0 {
			status = model.StatusFinalizado
		}
		records = append(records, model.Vehicle{ID: int64(i), Status: status, Plate: ptr(fmt.Sprintf("TRK%03d", i))})
	}

	res := Run(records, Query{Bucket: BucketPendiente, Page: 9, PageSize: 10})
	require.Equal(t, 2, res.TotalPages)
	assert.Equal(t, 2, res.Number, "page is clamped to the last page")
	assert.Len(t, res.Items, 10)
	assert.Equal(t, 2, res.NextPage)
	assert.Equal(t, 1, res.PrevPage)
	assert.Equal(t, 25, res.Totals.Total)
	assert.Equal(t, 5, res.Totals.Finalizado)

	res = Run(records, Query{Bucket: "finalizado", Search: "trk02", Page: 1})
	assert.Equal(t, []int64{20, 25}, ids(res.Items))
	assert.Equal(t, BucketFinalizado, res.Filter)
	assert.Equal(t, DefaultPageSize, res.Size)
}
