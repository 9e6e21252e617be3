package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/openfleet/fleetcore/internal/db"
	"github.com/openfleet/fleetcore/internal/fault"
	"github.com/openfleet/fleetcore/internal/model"
)

// ErrMultipleResults signals that a query expected to match at most one row
// matched several. This is a caller bug, not a data condition.
var ErrMultipleResults = errors.New("query matched multiple rows")

type scanner interface {
	Scan(dest ...any) error
}

// Mapper binds one entity type to its table. Columns lists every persisted
// column in the order Scan consumes them; Timestamped mappers get created
// and updated stamped by the repository on writes.
type Mapper[T model.Entity] struct {
	Table       string
	Columns     []string
	Timestamped bool
	Scan        func(row scanner) (T, error)
}

// Repository is the generic statement engine behind every per-entity store.
// It resolves its querier from the surrounding unit of work on each call, so
// one repository value is safe for concurrent use across transactions.
type Repository[T model.Entity] struct {
	mapper Mapper[T]
	sb     sq.StatementBuilderType
	now    func() time.Time
}

// NewRepository builds a repository over the given mapping.
func NewRepository[T model.Entity](mapper Mapper[T]) *Repository[T] {
	return &Repository[T]{
		mapper: mapper,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:    time.Now,
	}
}

// Page is one offset-paginated result window plus the total match count.
type Page[T model.Entity] struct {
	Items []T
	Total int64
}

// TokenPage is one keyset-paginated result window. NextToken is nil on the
// final page.
type TokenPage[T model.Entity] struct {
	Items     []T
	NextToken *int64
}

// stamp returns the write instant, truncated to the precision the column
// round-trips at so an entity read back yields the same ETag.
func (r *Repository[T]) stamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func (r *Repository[T]) qualifiedColumns() []string {
	cols := make([]string, 0, len(r.mapper.Columns))
	for _, c := range r.mapper.Columns {
		cols = append(cols, r.mapper.Table+"."+c)
	}
	return cols
}

func (r *Repository[T]) returning() string {
	return "RETURNING " + strings.Join(r.qualifiedColumns(), ", ")
}

func (r *Repository[T]) idColumn() string {
	return r.mapper.Table + ".id"
}

// IDClause filters on the primary key of this repository's table.
func (r *Repository[T]) IDClause(id int64) Clause {
	return Clause{Condition: sq.Eq{r.idColumn(): id}}
}

// IDsClause filters on a set of primary keys of this repository's table.
func (r *Repository[T]) IDsClause(ids []int64) Clause {
	return Clause{Condition: sq.Eq{r.idColumn(): ids}}
}

func (r *Repository[T]) buildFields(b model.Builder) (model.Fields, error) {
	if err := b.Validate(); err != nil {
		return nil, fault.Validation(err, "invalid %s fields", r.mapper.Table)
	}
	return b.Fields(), nil
}

// Create inserts one row and returns it as stored.
func (r *Repository[T]) Create(ctx context.Context, b model.Builder) (T, error) {
	var zero T
	q, err := db.FromContext(ctx)
	if err != nil {
		return zero, err
	}
	fields, err := r.buildFields(b)
	if err != nil {
		return zero, err
	}
	if r.mapper.Timestamped {
		now := r.stamp()
		fields["created"] = now
		fields["updated"] = now
	}

	stmt, args, err := r.sb.Insert(r.mapper.Table).
		SetMap(map[string]any(fields)).
		Suffix(r.returning()).
		ToSql()
	if err != nil {
		return zero, fmt.Errorf("building insert for %s: %w", r.mapper.Table, err)
	}

	created, err := r.mapper.Scan(q.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		return zero, r.mapWriteError(err, "creating %s", r.mapper.Table)
	}
	return created, nil
}

// CreateMany inserts all builders in one statement and returns the stored
// rows in insertion order. Every builder must populate the same field set.
func (r *Repository[T]) CreateMany(ctx context.Context, builders []model.Builder) ([]T, error) {
	if len(builders) == 0 {
		return nil, nil
	}
	q, err := db.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]model.Fields, 0, len(builders))
	for _, b := range builders {
		fields, err := r.buildFields(b)
		if err != nil {
			return nil, err
		}
		rows = append(rows, fields)
	}

	fieldColumns := make([]string, 0, len(rows[0]))
	for c := range rows[0] {
		fieldColumns = append(fieldColumns, c)
	}
	sort.Strings(fieldColumns)

	columns := fieldColumns
	var now time.Time
	if r.mapper.Timestamped {
		now = r.stamp()
		columns = append(append([]string{}, fieldColumns...), "created", "updated")
	}

	insert := r.sb.Insert(r.mapper.Table).Columns(columns...)
	for _, fields := range rows {
		if len(fields) != len(fieldColumns) {
			return nil, fault.Validation(nil, "bulk create of %s requires identical field sets", r.mapper.Table)
		}
		values := make([]any, 0, len(columns))
		for _, c := range fieldColumns {
			v, ok := fields[c]
			if !ok {
				return nil, fault.Validation(nil, "bulk create of %s requires identical field sets", r.mapper.Table)
			}
			values = append(values, v)
		}
		if r.mapper.Timestamped {
			values = append(values, now, now)
		}
		insert = insert.Values(values...)
	}

	stmt, args, err := insert.Suffix(r.returning()).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building bulk insert for %s: %w", r.mapper.Table, err)
	}
	created, err := r.queryAll(ctx, q, stmt, args)
	if err != nil {
		return nil, r.mapWriteError(err, "creating %s batch", r.mapper.Table)
	}
	return created, nil
}

// GetByID fetches one row by primary key.
func (r *Repository[T]) GetByID(ctx context.Context, id int64) (T, error) {
	return r.GetOne(ctx, QuerySpec{Where: r.IDClause(id)})
}

// GetOne fetches the single row matching the spec. It fails with
// ErrMultipleResults when the predicate is not selective enough, so callers
// find out about ambiguous filters instead of silently acting on an
// arbitrary row.
func (r *Repository[T]) GetOne(ctx context.Context, spec QuerySpec) (T, error) {
	var zero T
	q, err := db.FromContext(ctx)
	if err != nil {
		return zero, err
	}

	builder := spec.ApplyToSelect(r.sb.Select(r.qualifiedColumns()...).From(r.mapper.Table)).Limit(2)
	stmt, args, err := builder.ToSql()
	if err != nil {
		return zero, fmt.Errorf("building select for %s: %w", r.mapper.Table, err)
	}

	matches, err := r.queryAll(ctx, q, stmt, args)
	if err != nil {
		return zero, fmt.Errorf("fetching %s: %w", r.mapper.Table, err)
	}
	switch len(matches) {
	case 0:
		return zero, fault.NotFound("%s not found", r.mapper.Table)
	case 1:
		return matches[0], nil
	default:
		return zero, fmt.Errorf("fetching %s: %w", r.mapper.Table, ErrMultipleResults)
	}
}

// GetMany fetches every row matching the spec.
func (r *Repository[T]) GetMany(ctx context.Context, spec QuerySpec) ([]T, error) {
	q, err := db.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	builder := spec.ApplyToSelect(r.sb.Select(r.qualifiedColumns()...).From(r.mapper.Table))
	for _, o := range spec.OrderBy {
		builder = builder.OrderBy(o.sql())
	}
	stmt, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select for %s: %w", r.mapper.Table, err)
	}
	items, err := r.queryAll(ctx, q, stmt, args)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", r.mapper.Table, err)
	}
	return items, nil
}

// List fetches one offset-paginated window plus the total count of matching
// rows. Pages are 1-based; ordering always ends with the primary key so the
// windows tile the result set deterministically.
func (r *Repository[T]) List(ctx context.Context, page, size int64, spec QuerySpec) (Page[T], error) {
	if page < 1 || size < 1 {
		return Page[T]{}, fault.Validation(nil, "page and size must be positive")
	}
	q, err := db.FromContext(ctx)
	if err != nil {
		return Page[T]{}, err
	}

	countStmt, countArgs, err := spec.ApplyToSelect(
		r.sb.Select("COUNT(*)").From(r.mapper.Table),
	).ToSql()
	if err != nil {
		return Page[T]{}, fmt.Errorf("building count for %s: %w", r.mapper.Table, err)
	}
	var total int64
	if err := q.QueryRowContext(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return Page[T]{}, fmt.Errorf("counting %s: %w", r.mapper.Table, err)
	}

	builder := spec.ApplyToSelect(r.sb.Select(r.qualifiedColumns()...).From(r.mapper.Table))
	for _, o := range spec.OrderBy {
		builder = builder.OrderBy(o.sql())
	}
	builder = builder.OrderBy(r.idColumn() + " ASC").
		Limit(uint64(size)).
		Offset(uint64((page - 1) * size))
	stmt, args, err := builder.ToSql()
	if err != nil {
		return Page[T]{}, fmt.Errorf("building list for %s: %w", r.mapper.Table, err)
	}

	items, err := r.queryAll(ctx, q, stmt, args)
	if err != nil {
		return Page[T]{}, fmt.Errorf("listing %s: %w", r.mapper.Table, err)
	}
	return Page[T]{Items: items, Total: total}, nil
}

// ListWithToken fetches one keyset-paginated window ordered by descending
// primary key. A nil token starts from the newest row; the returned token
// resumes exactly where this window ended, immune to concurrent inserts.
func (r *Repository[T]) ListWithToken(ctx context.Context, size int64, token *int64, spec QuerySpec) (TokenPage[T], error) {
	if size < 1 {
		return TokenPage[T]{}, fault.Validation(nil, "size must be positive")
	}
	q, err := db.FromContext(ctx)
	if err != nil {
		return TokenPage[T]{}, err
	}

	builder := spec.ApplyToSelect(r.sb.Select(r.qualifiedColumns()...).From(r.mapper.Table))
	if token != nil {
		builder = builder.Where(sq.LtOrEq{r.idColumn(): *token})
	}
	// Fetch one extra row: its id is the next window's resume point.
	builder = builder.OrderBy(r.idColumn() + " DESC").Limit(uint64(size + 1))
	stmt, args, err := builder.ToSql()
	if err != nil {
		return TokenPage[T]{}, fmt.Errorf("building token list for %s: %w", r.mapper.Table, err)
	}

	items, err := r.queryAll(ctx, q, stmt, args)
	if err != nil {
		return TokenPage[T]{}, fmt.Errorf("listing %s: %w", r.mapper.Table, err)
	}

	result := TokenPage[T]{Items: items}
	if int64(len(items)) > size {
		next := items[size].GetID()
		result.Items = items[:size]
		result.NextToken = &next
	}
	return result, nil
}

// UpdateByID applies the builder's populated fields to one row by primary
// key and returns the row as stored.
func (r *Repository[T]) UpdateByID(ctx context.Context, id int64, b model.Builder) (T, error) {
	return r.UpdateOne(ctx, QuerySpec{Where: r.IDClause(id)}, b)
}

// UpdateOne applies the builder to the single row matching the spec.
func (r *Repository[T]) UpdateOne(ctx context.Context, spec QuerySpec, b model.Builder) (T, error) {
	var zero T
	updated, err := r.UpdateMany(ctx, spec, b)
	if err != nil {
		return zero, err
	}
	switch len(updated) {
	case 0:
		return zero, fault.NotFound("%s not found", r.mapper.Table)
	case 1:
		return updated[0], nil
	default:
		return zero, fmt.Errorf("updating %s: %w", r.mapper.Table, ErrMultipleResults)
	}
}

// UpdateMany applies the builder to every row matching the spec in one
// statement and returns the rows as stored.
func (r *Repository[T]) UpdateMany(ctx context.Context, spec QuerySpec, b model.Builder) ([]T, error) {
	q, err := db.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	fields, err := r.buildFields(b)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fault.Validation(nil, "no fields to update on %s", r.mapper.Table)
	}
	if r.mapper.Timestamped {
		fields["updated"] = r.stamp()
	}

	builder := spec.ApplyToUpdate(r.sb.Update(r.mapper.Table).SetMap(map[string]any(fields)))
	stmt, args, err := builder.Suffix(r.returning()).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update for %s: %w", r.mapper.Table, err)
	}

	items, err := r.queryAll(ctx, q, stmt, args)
	if err != nil {
		return nil, r.mapWriteError(err, "updating %s", r.mapper.Table)
	}
	return items, nil
}

// DeleteByID removes one row by primary key, failing when it does not exist.
func (r *Repository[T]) DeleteByID(ctx context.Context, id int64) error {
	q, err := db.FromContext(ctx)
	if err != nil {
		return err
	}
	stmt, args, err := r.sb.Delete(r.mapper.Table).Where(sq.Eq{r.idColumn(): id}).ToSql()
	if err != nil {
		return fmt.Errorf("building delete for %s: %w", r.mapper.Table, err)
	}
	res, err := q.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", r.mapper.Table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s: %w", r.mapper.Table, err)
	}
	if affected == 0 {
		return fault.NotFound("%s %d not found", r.mapper.Table, id)
	}
	return nil
}

// DeleteOne removes the single row matching the spec and returns it.
func (r *Repository[T]) DeleteOne(ctx context.Context, spec QuerySpec) (T, error) {
	var zero T
	deleted, err := r.DeleteMany(ctx, spec)
	if err != nil {
		return zero, err
	}
	switch len(deleted) {
	case 0:
		return zero, fault.NotFound("%s not found", r.mapper.Table)
	case 1:
		return deleted[0], nil
	default:
		return zero, fmt.Errorf("deleting %s: %w", r.mapper.Table, ErrMultipleResults)
	}
}

// DeleteMany removes every row matching the spec in one statement and
// returns the removed rows. Zero matches is not an error here; strictness
// belongs to the single-target variants.
func (r *Repository[T]) DeleteMany(ctx context.Context, spec QuerySpec) ([]T, error) {
	q, err := db.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	// Joined tables ride in a USING list. The builder fixes the target at
	// construction time, so the list is spliced into the table expression.
	target := r.mapper.Table
	if tables := spec.JoinTables(); len(tables) > 0 {
		target += " USING " + strings.Join(tables, ", ")
	}
	builder := spec.ApplyToDelete(r.sb.Delete(target))
	stmt, args, err := builder.Suffix(r.returning()).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building delete for %s: %w", r.mapper.Table, err)
	}

	items, err := r.queryAll(ctx, q, stmt, args)
	if err != nil {
		return nil, fmt.Errorf("deleting %s: %w", r.mapper.Table, err)
	}
	return items, nil
}

func (r *Repository[T]) queryAll(ctx context.Context, q db.Querier, stmt string, args []any) ([]T, error) {
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := r.mapper.Scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository[T]) mapWriteError(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fault.NotFound("%s not found", r.mapper.Table)
	}
	if isUniqueViolation(err) {
		return fault.AlreadyExists("%s already exists", r.mapper.Table)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
