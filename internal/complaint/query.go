package complaint

import (
	"civicdesk/backend/internal/models"
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	ErrUnknownSortField = errors.New("unknown sort field")
	ErrInvalidSortOrder = errors.New("sort order must be asc or desc")
)

// FilterAll disables an equality filter, as does the empty string.
const FilterAll = "all"

// Criteria selects complaints. Equality filters match exactly; Search is a
// case-insensitive substring over the description and the reporter name.
type Criteria struct {
	Search   string `form:"search" binding:"max=200"`
	Category string `form:"category"`
	Status   string `form:"status"`
	Severity string `form:"severity"`
}

func active(v string) bool {
	return v != "" && v != FilterAll
}

// Matches reports whether c passes every active filter.
func (cr Criteria) Matches(c models.Complaint) bool {
	if active(cr.Category) && c.Category != cr.Category {
		return false
	}
	if active(cr.Status) && string(c.Status) != cr.Status {
		return false
	}
	if active(cr.Severity) && string(c.Severity) != cr.Severity {
		return false
	}
	if cr.Search == "" {
		return true
	}
	needle := strings.ToLower(cr.Search)
	return strings.Contains(strings.ToLower(c.Description), needle) ||
		strings.Contains(strings.ToLower(c.UserName), needle)
}

// Filter returns the complaints matching cr in input order. The input is not modified.
func Filter(list []models.Complaint, cr Criteria) []models.Complaint {
	out := make([]models.Complaint, 0, len(list))
	for _, c := range list {
		if cr.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}

type SortField string

const (
	SortPriority    SortField = "priorityScore"
	SortSupporters  SortField = "supporters"
	SortCreatedAt   SortField = "createdAt"
	SortResolvedAt  SortField = "resolvedAt"
	SortCategory    SortField = "category"
	SortSeverity    SortField = "severity"
	SortStatus      SortField = "status"
	SortDescription SortField = "description"
	SortUserName    SortField = "userName"
	SortID          SortField = "id"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

type fieldKind int

const (
	numericField fieldKind = iota
	timeField
	stringField
)

var sortFields = map[SortField]fieldKind{
	SortPriority:    numericField,
	SortSupporters:  numericField,
	SortCreatedAt:   timeField,
	SortResolvedAt:  timeField,
	SortCategory:    stringField,
	SortSeverity:    stringField,
	SortStatus:      stringField,
	SortDescription: stringField,
	SortUserName:    stringField,
	SortID:          stringField,
}

// ParseSortField validates a sort key. The empty string selects priorityScore.
func ParseSortField(s string) (SortField, error) {
	if s == "" {
		return SortPriority, nil
	}
	f := SortField(s)
	if _, ok := sortFields[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSortField, s)
	}
	return f, nil
}

// ParseSortOrder validates a direction. The empty string selects descending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(s)) {
	case "", Desc:
		return Desc, nil
	case Asc:
		return Asc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSortOrder, s)
}

// Sort orders list in place with a stable sort. Complaints missing a
// timestamp sort after those that have it in both directions.
func Sort(list []models.Complaint, field SortField, order SortOrder) error {
	kind, ok := sortFields[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSortField, field)
	}
	if order != Asc && order != Desc {
		return fmt.Errorf("%w: %q", ErrInvalidSortOrder, order)
	}
	sign := 1
	if order == Desc {
		sign = -1
	}

	var compare func(a, b models.Complaint) int
	switch kind {
	case numericField:
		compare = func(a, b models.Complaint) int {
			return sign * cmp.Compare(numericValue(a, field), numericValue(b, field))
		}
	case timeField:
		compare = func(a, b models.Complaint) int {
			ta, tb := timeValue(a, field), timeValue(b, field)
			switch {
			case ta == nil && tb == nil:
				return 0
			case ta == nil:
				return 1
			case tb == nil:
				return -1
			}
			return sign * ta.Compare(*tb)
		}
	case stringField:
		// Collators are not safe for concurrent use; one per call.
		coll := collate.New(language.English)
		compare = func(a, b models.Complaint) int {
			return sign * coll.CompareString(stringValue(a, field), stringValue(b, field))
		}
	}

	slices.SortStableFunc(list, compare)
	return nil
}

func numericValue(c models.Complaint, f SortField) int {
	if f == SortSupporters {
		return len(c.Supporters)
	}
	return c.PriorityScore
}

func timeValue(c models.Complaint, f SortField) *time.Time {
	if f == SortResolvedAt {
		return c.ResolvedAt
	}
	return c.CreatedAt
}

func stringValue(c models.Complaint, f SortField) string {
	switch f {
	case SortCategory:
		return c.Category
	case SortSeverity:
		return string(c.Severity)
	case SortStatus:
		return string(c.Status)
	case SortDescription:
		return c.Description
	case SortUserName:
		return c.UserName
	}
	return c.ID
}

// View is a filter plus an ordering, as requested by a dashboard table.
type View struct {
	Criteria
	Field SortField
	Order SortOrder
}

// DefaultView shows everything, most urgent first.
func DefaultView() View {
	return View{Field: SortPriority, Order: Desc}
}

// Apply filters list and sorts the result. The input is not modified.
func (v View) Apply(list []models.Complaint) ([]models.Complaint, error) {
	out := Filter(list, v.Criteria)
	if err := Sort(out, v.Field, v.Order); err != nil {
		return nil, err
	}
	return out, nil
}
