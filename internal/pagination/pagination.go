package pagination

import (
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MaxSize = 100
	// MaxPage keeps Page*Size inside an int32 offset.
	MaxPage = math.MaxInt32 / MaxSize
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains returns a lower-cased LIKE pattern matching term anywhere in a
// column. Use it with `LIKE ? ESCAPE '\'`.
func Contains(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// Spec describes how a resource may be paged and sorted. Fields maps the
// public sort key to its column.
type Spec struct {
	DefaultSize int
	DefaultSort string
	Fields      map[string]string
}

type Request struct {
	Page   int
	Size   int
	Column string
	Desc   bool
}

// Resolve turns raw query values into a Request. Unknown sort keys fall
// back to the default instead of reaching SQL.
func (s Spec) Resolve(page, size int, sortBy, direction string) Request {
	if page < 0 {
		page = 0
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size <= 0 {
		size = s.DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	col, ok := s.Fields[sortBy]
	if !ok {
		col = s.Fields[s.DefaultSort]
	}
	if col == "" {
		col = "id"
	}

	return Request{
		Page:   page,
		Size:   size,
		Column: col,
		Desc:   strings.EqualFold(direction, "desc"),
	}
}

func (r Request) Offset() int { return r.Page * r.Size }

// Apply adds ordering, offset and limit to q.
func (r Request) Apply(q *gorm.DB) *gorm.DB {
	return q.Order(clause.OrderByColumn{Column: clause.Column{Name: r.Column}, Desc: r.Desc}).
		Offset(r.Offset()).
		Limit(r.Size)
}

type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

func New[T any](content []T, r Request, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if r.Size > 0 {
		pages = int(math.Ceil(float64(total) / float64(r.Size)))
	}
	return Page[T]{
		Content:       content,
		Page:          r.Page,
		Size:          r.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

// Map converts the content of a page, keeping its metadata.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Content))
	for _, v := range p.Content {
		out = append(out, fn(v))
	}
	return Page[U]{
		Content:       out,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}
}

// Find counts q, then loads the requested page into a slice of T with the
// given associations preloaded.
func Find[T any](q *gorm.DB, r Request, preload ...string) (Page[T], error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}
	fq := q.Session(&gorm.Session{})
	for _, assoc := range preload {
		fq = fq.Preload(assoc)
	}
	var items []T
	if err := r.Apply(fq).Find(&items).Error; err != nil {
		return Page[T]{}, err
	}
	return New(items, r, total), nil
}
