package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var spec = Spec{
	DefaultSize: 5,
	DefaultSort: "name",
	Fields:      map[string]string{"name": "name", "leadTime": "lead_time"},
}

func TestResolveDefaults(t *testing.T) {
	r := spec.Resolve(-3, 0, "", "")
	assert.Equal(t, Request{Page: 0, Size: 5, Column: "name"}, r)
}

func TestResolveRejectsUnknownColumn(t *testing.T) {
	r := spec.Resolve(2, 500, "name; DROP TABLE suppliers", "DESC")
	assert.Equal(t, "name", r.Column)
	assert.Equal(t, MaxSize, r.Size)
	assert.True(t, r.Desc)
	assert.Equal(t, 200, r.Offset())
}

func TestResolveClampsHugePage(t *testing.T) {
	r := spec.Resolve(math.MaxInt, 100, "", "")
	assert.Equal(t, MaxPage, r.Page)
	assert.Positive(t, r.Offset())
	assert.LessOrEqual(t, r.Offset(), math.MaxInt32)
}

func TestContainsEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%steel%", Contains("STEEL"))
	assert.Equal(t, `%a\_b\%c\\%`, Contains(`a_b%c\`))
}

func TestResolveMapsPublicKey(t *testing.T) {
	r := spec.Resolve(0, 10, "leadTime", "asc")
	assert.Equal(t, "lead_time", r.Column)
	assert.False(t, r.Desc)
}

func TestNewComputesPages(t *testing.T) {
	p := New([]int(nil), Request{Page: 1, Size: 5}, 11)
	assert.Equal(t, 3, p.TotalPages)
	assert.NotNil(t, p.Content)

	doubled := Map(New([]int{1, 2}, Request{Size: 2}, 2), func(v int) int { return v * 2 })
	assert.Equal(t, []int{2, 4}, doubled.Content)
	assert.Equal(t, 1, doubled.TotalPages)
}
