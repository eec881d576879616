package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"daily-tracker/internal/apperr"
)

var (
	ErrNotFound      = apperr.NotFound
	ErrDuplicateKey  = errors.New("repository: duplicate key")
	ErrInvalidFilter = errors.New("repository: invalid filter")
)

type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpLte Op = "<="
	OpLt  Op = "<"
)

// Filter is one (field, op, value) condition; conditions are ANDed.
type Filter struct {
	Field string
	Op    Op
	Value any
}

func Eq(field string, value any) Filter  { return Filter{Field: field, Op: OpEq, Value: value} }
func Gte(field string, value any) Filter { return Filter{Field: field, Op: OpGte, Value: value} }
func Lte(field string, value any) Filter { return Filter{Field: field, Op: OpLte, Value: value} }
func Lt(field string, value any) Filter  { return Filter{Field: field, Op: OpLt, Value: value} }

var identifier = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Store is a collection-oriented adapter over gorm: callers address tables
// by name and filter by column.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Query loads every row of collection matching filters into dest, which must
// be a pointer to a slice of the collection's model. orderBy is "column" or
// "column asc|desc".
func (s *Store) Query(ctx context.Context, collection string, filters []Filter, orderBy string, dest any) error {
	if !identifier.MatchString(collection) {
		return fmt.Errorf("%w: collection %q", ErrInvalidFilter, collection)
	}
	q := s.db.WithContext(ctx).Table(collection)
	for _, f := range filters {
		cond, err := f.clause()
		if err != nil {
			return err
		}
		q = q.Where(cond, normalizeValue(f.Value))
	}
	if orderBy != "" {
		order, err := orderClause(orderBy)
		if err != nil {
			return err
		}
		q = q.Order(order)
	}
	if err := q.Find(dest).Error; err != nil {
		return fmt.Errorf("query %s: %w", collection, err)
	}
	return nil
}

// Add inserts doc, which must carry its own id.
func (s *Store) Add(ctx context.Context, collection string, doc any) error {
	if err := s.db.WithContext(ctx).Table(collection).Create(doc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("add %s: %w", collection, ErrDuplicateKey)
		}
		return fmt.Errorf("add %s: %w", collection, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	for field, value := range fields {
		if !identifier.MatchString(field) {
			return fmt.Errorf("%w: field %q", ErrInvalidFilter, field)
		}
		fields[field] = normalizeValue(value)
	}
	res := s.db.WithContext(ctx).Table(collection).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update %s: %w", collection, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s %s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res := s.db.WithContext(ctx).Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", quoteCollection(collection)), id)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", collection, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete %s %s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, collection, id string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Table(collection).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("lookup %s: %w", collection, err)
	}
	return n > 0, nil
}

func (f Filter) clause() (string, error) {
	if !identifier.MatchString(f.Field) {
		return "", fmt.Errorf("%w: field %q", ErrInvalidFilter, f.Field)
	}
	switch f.Op {
	case OpEq, OpGte, OpLte, OpLt:
		return fmt.Sprintf("%s %s ?", f.Field, f.Op), nil
	default:
		return "", fmt.Errorf("%w: op %q", ErrInvalidFilter, f.Op)
	}
}

func orderClause(orderBy string) (string, error) {
	parts := strings.Fields(strings.ToLower(orderBy))
	if len(parts) == 0 || len(parts) > 2 || !identifier.MatchString(parts[0]) {
		return "", fmt.Errorf("%w: order %q", ErrInvalidFilter, orderBy)
	}
	if len(parts) == 2 && parts[1] != "asc" && parts[1] != "desc" {
		return "", fmt.Errorf("%w: order %q", ErrInvalidFilter, orderBy)
	}
	return strings.Join(parts, " "), nil
}

func quoteCollection(collection string) string {
	if !identifier.MatchString(collection) {
		return `""`
	}
	return collection
}

// normalizeValue keeps instants in UTC so string-stored timestamps compare
// in chronological order.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC()
	default:
		return v
	}
}
