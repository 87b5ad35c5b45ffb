package ledger

import (
	"database/sql"
	"fmt"
	"math/big"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a durable Store backed by a single sqlite file. It exists so
// a keeper restart does not forget which orders were already settled.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

const createOrdersTable = `
	CREATE TABLE IF NOT EXISTS orders (
		source_chain_id INTEGER NOT NULL,
		order_id        TEXT    NOT NULL,
		sender          TEXT    NOT NULL,
		token_in        TEXT    NOT NULL,
		amount_in       TEXT    NOT NULL,
		token_out       TEXT    NOT NULL,
		amount_out      TEXT    NOT NULL,
		recipient       TEXT    NOT NULL,
		fill_deadline   INTEGER NOT NULL,
		status          TEXT    NOT NULL,
		created_at      INTEGER NOT NULL,
		filled_at       INTEGER NOT NULL DEFAULT 0,
		settled_at      INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (source_chain_id, order_id)
	)
`

// OpenSQLite opens (and if needed initializes) the ledger database at path.
// The sqlite ":memory:" path works for tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	// A single connection sidesteps sqlite's writer locking.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createOrdersTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Insert(o Order) (bool, error) {
	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	res, err := s.db.Exec(`
		INSERT OR IGNORE INTO orders
			(source_chain_id, order_id, sender, token_in, amount_in, token_out,
			 amount_out, recipient, fill_deadline, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.SourceChainID, o.OrderID, o.Sender, o.TokenIn, bigString(o.AmountIn),
		o.TokenOut, bigString(o.AmountOut), o.Recipient, o.FillDeadline,
		string(StatusOpened), createdAt.Unix())
	if err != nil {
		return false, fmt.Errorf("failed to insert order %s: %w", o.OrderID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const selectOrder = `
	SELECT source_chain_id, order_id, sender, token_in, amount_in, token_out,
	       amount_out, recipient, fill_deadline, status, created_at, filled_at, settled_at
	FROM orders
`

func (s *SQLiteStore) Get(sourceChainID uint64, orderID string) (Order, error) {
	row := s.db.QueryRow(selectOrder+`WHERE source_chain_id = ? AND order_id = ?`,
		sourceChainID, orderID)
	return scanOrder(row)
}

func (s *SQLiteStore) FindByOrderID(orderID string) (Order, error) {
	row := s.db.QueryRow(selectOrder+`WHERE order_id = ? ORDER BY rowid ASC LIMIT 1`,
		orderID)
	return scanOrder(row)
}

func (s *SQLiteStore) SetStatus(sourceChainID uint64, orderID string, next Status) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow(`SELECT status FROM orders WHERE source_chain_id = ? AND order_id = ?`,
		sourceChainID, orderID).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !Status(current).CanTransitionTo(next) {
		return fmt.Errorf("%w: order %s on chain %d is %s, cannot become %s",
			ErrBadTransition, orderID, sourceChainID, current, next)
	}

	stampColumn := ""
	switch next {
	case StatusFilled:
		stampColumn = "filled_at"
	case StatusSettled:
		stampColumn = "settled_at"
	}

	query := `UPDATE orders SET status = ? WHERE source_chain_id = ? AND order_id = ?`
	if stampColumn != "" {
		query = fmt.Sprintf(`UPDATE orders SET status = ?, %s = %d WHERE source_chain_id = ? AND order_id = ?`,
			stampColumn, s.now().Unix())
	}
	if _, err := tx.Exec(query, string(next), sourceChainID, orderID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) All() ([]Order, error) {
	rows, err := s.db.Query(selectOrder + `ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		o                              Order
		amountIn, amountOut, status    string
		createdAt, filledAt, settledAt int64
	)
	err := row.Scan(&o.SourceChainID, &o.OrderID, &o.Sender, &o.TokenIn, &amountIn,
		&o.TokenOut, &amountOut, &o.Recipient, &o.FillDeadline, &status,
		&createdAt, &filledAt, &settledAt)
	if err == sql.ErrNoRows {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}

	o.Status = Status(status)
	o.AmountIn, _ = new(big.Int).SetString(amountIn, 10)
	o.AmountOut, _ = new(big.Int).SetString(amountOut, 10)
	o.CreatedAt = time.Unix(createdAt, 0)
	if filledAt > 0 {
		o.FilledAt = time.Unix(filledAt, 0)
	}
	if settledAt > 0 {
		o.SettledAt = time.Unix(settledAt, 0)
	}
	return o, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
