package index

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/memgraph/helper"
	"github.com/siherrmann/memgraph/model"
	loadSql "github.com/siherrmann/memgraph/sql"
)

// collectionPattern restricts collection names to safe identifiers,
// they end up in table names.
var collectionPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// fieldPattern restricts payload field paths used in filters.
var fieldPattern = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)

// PostgresIndex implements Index on PostgreSQL with the pgvector
// extension. Each collection is one table plus a registry row recording
// its configured vector dimension.
type PostgresIndex struct {
	db *helper.Database
}

// NewPostgresIndex creates a new Postgres-backed index handler.
// It loads the index-related SQL functions and creates the collection
// registry. If force is true, it will reload the SQL functions even if
// they already exist.
func NewPostgresIndex(db *helper.Database, force bool) (*PostgresIndex, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	idx := &PostgresIndex{db: db}

	err := loadSql.LoadPointsSql(db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load points sql", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = db.Instance.ExecContext(ctx, `SELECT init_point_collections();`)
	if err != nil {
		return nil, helper.NewError("init collection registry", err)
	}

	db.Logger.Info("Initialized PostgresIndex")

	return idx, nil
}

// EnsureCollection creates the collection table and registry entry if
// they do not exist yet.
func (h *PostgresIndex) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	if dimension <= 0 {
		return helper.NewError("ensure collection", fmt.Errorf("invalid vector dimension %d", dimension))
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_points($1, $2);`, collection, dimension)
	if err != nil {
		return helper.NewError("ensure collection", err)
	}

	h.db.Logger.Info("Checked/created collection", slog.String("collection", collection), slog.Int("dimension", dimension))

	return nil
}

// CollectionInfo returns the collection's configured dimension and
// current point count.
func (h *PostgresIndex) CollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	info := &CollectionInfo{Name: collection}

	row := h.db.Instance.QueryRowContext(ctx, `SELECT dimension FROM point_collections WHERE name = $1`, collection)
	if err := row.Scan(&info.Dimension); err != nil {
		return nil, helper.NewError("collection info", err)
	}

	row = h.db.Instance.QueryRowContext(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, tableName(collection)))
	if err := row.Scan(&info.Points); err != nil {
		return nil, helper.NewError("count points", err)
	}

	return info, nil
}

// DeleteCollection drops the collection table and its registry entry.
func (h *PostgresIndex) DeleteCollection(ctx context.Context, collection string) error {
	if err := validCollection(collection); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT drop_points($1);`, collection)
	if err != nil {
		return helper.NewError("drop collection", err)
	}

	h.db.Logger.Info("Dropped collection", slog.String("collection", collection))

	return nil
}

// Upsert writes points by id. An existing id is overwritten in place,
// never duplicated.
func (h *PostgresIndex) Upsert(ctx context.Context, collection string, points []*Point) error {
	if err := validCollection(collection); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	query := fmt.Sprintf(
		`INSERT INTO %s (id, embedding, payload) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, payload = EXCLUDED.payload`,
		tableName(collection),
	)

	for _, point := range points {
		_, err := h.db.Instance.ExecContext(ctx, query,
			int64(point.ID),
			pgvector.NewVector(point.Vector),
			point.Payload,
		)
		if err != nil {
			return helper.NewError(fmt.Sprintf("upsert point %d", point.ID), err)
		}
	}

	return nil
}

// Search returns up to limit points matching filter, ranked by cosine
// similarity to vector.
func (h *PostgresIndex) Search(ctx context.Context, collection string, vector []float32, filter *Filter, limit int) ([]*ScoredPoint, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	args := []interface{}{pgvector.NewVector(vector)}
	where, err := buildFilterSQL(filter, &args)
	if err != nil {
		return nil, err
	}

	args = append(args, limit)
	query := fmt.Sprintf(
		`SELECT id, payload, 1 - (embedding <=> $1) AS similarity FROM %s%s ORDER BY embedding <=> $1 LIMIT $%d`,
		tableName(collection), where, len(args),
	)

	rows, err := h.db.Instance.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, helper.NewError("search points", err)
	}
	defer rows.Close()

	var results []*ScoredPoint
	for rows.Next() {
		var id int64
		point := &ScoredPoint{Point: Point{Payload: model.Metadata{}}}
		if err := rows.Scan(&id, &point.Payload, &point.Score); err != nil {
			return nil, helper.NewError("scan point", err)
		}
		point.ID = uint64(id)
		results = append(results, point)
	}

	return results, rows.Err()
}

// Scroll pages through points matching filter in id order. The cursor
// is the last seen id; an empty returned cursor means the scan is done.
func (h *PostgresIndex) Scroll(ctx context.Context, collection string, filter *Filter, limit int, cursor string) ([]*Point, string, error) {
	if err := validCollection(collection); err != nil {
		return nil, "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var after int64
	if cursor != "" {
		parsed, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return nil, "", helper.NewError("parse scroll cursor", err)
		}
		after = parsed
	}

	args := []interface{}{after}
	where, err := buildFilterSQL(filter, &args)
	if err != nil {
		return nil, "", err
	}
	if where == "" {
		where = " WHERE id > $1"
	} else {
		where += " AND id > $1"
	}

	args = append(args, limit)
	query := fmt.Sprintf(
		`SELECT id, payload FROM %s%s ORDER BY id LIMIT $%d`,
		tableName(collection), where, len(args),
	)

	rows, err := h.db.Instance.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", helper.NewError("scroll points", err)
	}
	defer rows.Close()

	var points []*Point
	var lastID int64
	for rows.Next() {
		var id int64
		point := &Point{Payload: model.Metadata{}}
		if err := rows.Scan(&id, &point.Payload); err != nil {
			return nil, "", helper.NewError("scan point", err)
		}
		point.ID = uint64(id)
		lastID = id
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return nil, "", helper.NewError("scroll points", err)
	}

	next := ""
	if len(points) == limit {
		next = strconv.FormatInt(lastID, 10)
	}

	return points, next, nil
}

// DeletePoints removes points by id.
func (h *PostgresIndex) DeletePoints(ctx context.Context, collection string, ids []uint64) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	signed := make([]int64, len(ids))
	for i, id := range ids {
		signed[i] = int64(id)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, tableName(collection))
	_, err := h.db.Instance.ExecContext(ctx, query, pq.Array(signed))
	if err != nil {
		return helper.NewError("delete points", err)
	}

	return nil
}

// DeleteByFilter removes every point matching filter. An empty filter
// is rejected, a full wipe must go through DeleteCollection.
func (h *PostgresIndex) DeleteByFilter(ctx context.Context, collection string, filter *Filter) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	if filter.Empty() {
		return helper.NewError("delete by filter", fmt.Errorf("empty filter would delete the whole collection"))
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var args []interface{}
	where, err := buildFilterSQL(filter, &args)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s%s`, tableName(collection), where)
	_, err = h.db.Instance.ExecContext(ctx, query, args...)
	if err != nil {
		return helper.NewError("delete by filter", err)
	}

	return nil
}

func validCollection(collection string) error {
	if collection == "" {
		return helper.NewError("collection validation", fmt.Errorf("collection name is required"))
	}
	if !collectionPattern.MatchString(collection) {
		return helper.NewError("collection validation", fmt.Errorf("invalid collection name %q", collection))
	}
	return nil
}

func tableName(collection string) string {
	return "points_" + collection
}

// buildFilterSQL renders the filter grammar into a WHERE clause.
// Must clauses are ANDed, Should clauses are ORed; when both are
// present the Should group joins the conjunction as one AND term.
func buildFilterSQL(filter *Filter, args *[]interface{}) (string, error) {
	if filter.Empty() {
		return "", nil
	}

	var must []string
	for _, cond := range filter.Must {
		clause, err := conditionSQL(cond, args)
		if err != nil {
			return "", err
		}
		must = append(must, clause)
	}

	var should []string
	for _, cond := range filter.Should {
		clause, err := conditionSQL(cond, args)
		if err != nil {
			return "", err
		}
		should = append(should, clause)
	}

	terms := must
	if len(should) > 0 {
		terms = append(terms, "("+strings.Join(should, " OR ")+")")
	}

	return " WHERE " + strings.Join(terms, " AND "), nil
}

func conditionSQL(cond Condition, args *[]interface{}) (string, error) {
	if len(cond.Or) > 0 {
		clauses := make([]string, 0, len(cond.Or))
		for _, alt := range cond.Or {
			clause, err := conditionSQL(alt, args)
			if err != nil {
				return "", err
			}
			clauses = append(clauses, clause)
		}
		return "(" + strings.Join(clauses, " OR ") + ")", nil
	}

	if !fieldPattern.MatchString(cond.Field) {
		return "", helper.NewError("filter validation", fmt.Errorf("invalid filter field %q", cond.Field))
	}

	path := "{" + strings.ReplaceAll(cond.Field, ".", ",") + "}"

	if len(cond.Any) > 0 {
		*args = append(*args, pq.Array(cond.Any))
		return fmt.Sprintf(`payload #>> '%s' = ANY($%d)`, path, len(*args)), nil
	}

	*args = append(*args, cond.Match)
	return fmt.Sprintf(`payload #>> '%s' = $%d`, path, len(*args)), nil
}
