package celldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jalad-shrimali/cdr-insight/cdr"
	"github.com/jalad-shrimali/cdr-insight/logger"
)

const lookupQuery = `
        SELECT address, latitude, longitude, azimuth
          FROM cellids
         WHERE cellid=? OR REPLACE(cellid,'-','')=?
         LIMIT 1`

// Tower is one resolved cell site. Coord is nil when the stored latitude or
// longitude does not parse.
type Tower struct {
	CellID  string     `json:"cell_id"`
	Address string     `json:"address"`
	Azimuth string     `json:"azimuth,omitempty"`
	Coord   *cdr.Coord `json:"coord,omitempty"`
	Decoded *CellID    `json:"decoded,omitempty"`
}

// DB is a read-only handle on a cellids database.
type DB struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens path read-only and checks that it is reachable.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("open cell DB %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open cell DB %s: %w", path, err)
	}
	return &DB{db: db, log: logger.With("celldb")}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// Lookup resolves id as stored or with its hyphens removed. A miss returns
// ok=false and no error.
func (d *DB) Lookup(ctx context.Context, id string) (t Tower, ok bool, err error) {
	id = cdr.Unquote(id)
	if id == "" {
		return t, false, nil
	}
	var addr, lat, lon, az sql.NullString
	err = d.db.QueryRowContext(ctx, lookupQuery, id, strings.ReplaceAll(id, "-", "")).Scan(&addr, &lat, &lon, &az)
	if errors.Is(err, sql.ErrNoRows) {
		return t, false, nil
	}
	if err != nil {
		return t, false, fmt.Errorf("lookup cell %s: %w", id, err)
	}

	t = Tower{CellID: id, Address: addr.String, Azimuth: az.String}
	la, err1 := strconv.ParseFloat(strings.TrimSpace(lat.String), 64)
	lo, err2 := strconv.ParseFloat(strings.TrimSpace(lon.String), 64)
	if err1 == nil && err2 == nil {
		t.Coord = &cdr.Coord{Lat: la, Long: lo}
	}
	if c, ok := ParseCellID(id); ok {
		t.Decoded = &c
	}
	return t, true, nil
}

// Towers resolves every distinct first and last cell ID of t. The table is
// not modified; unresolved IDs are simply absent from the result.
func (d *DB) Towers(ctx context.Context, t *cdr.Table) (map[string]Tower, error) {
	out := map[string]Tower{}
	seen := map[string]struct{}{}
	for _, r := range t.Snapshot() {
		for _, id := range []string{r.FirstCellID, r.LastCellID} {
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if err := ctx.Err(); err != nil {
				return out, err
			}
			tw, ok, err := d.Lookup(ctx, id)
			if err != nil {
				return out, err
			}
			if ok {
				out[id] = tw
			}
		}
	}
	d.log.Debug("resolved cell towers", slog.Int("distinct", len(seen)), slog.Int("found", len(out)))
	return out, nil
}
