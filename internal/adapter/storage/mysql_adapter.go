package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/myatthu/stallkeeper/internal/core/domain"
)

const mysqlDuplicateEntry = 1062

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) CreateItem(ctx context.Context, item domain.Item) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory_items (id, user_id, name, quantity, price, category, image_url, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.Name, item.Quantity, item.Price,
		item.Category, item.ImageURL, item.Status,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateItem(ctx context.Context, item domain.Item) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET name = ?, quantity = ?, price = ?, category = ?, image_url = ?, status = ?, updated_at = NOW()
		WHERE id = ? AND user_id = ?`,
		item.Name, item.Quantity, item.Price, item.Category, item.ImageURL,
		item.Status, item.ID, item.UserID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// RowsAffected is also zero when the update is a no-op, so confirm
		// the row is actually missing before reporting not found.
		existing, err := m.GetItem(ctx, item.UserID, item.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (m *MySQLAdapter) DeleteItem(ctx context.Context, userID, itemID string) error {
	result, err := m.db.ExecContext(ctx, `
		DELETE FROM inventory_items WHERE id = ? AND user_id = ?`,
		itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *MySQLAdapter) GetItem(ctx context.Context, userID, itemID string) (*domain.Item, error) {
	var item domain.Item
	err := m.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, quantity, price, category, image_url, status, created_at, updated_at
		FROM inventory_items WHERE id = ? AND user_id = ?`, itemID, userID,
	).Scan(&item.ID, &item.UserID, &item.Name, &item.Quantity, &item.Price,
		&item.Category, &item.ImageURL, &item.Status, &item.CreatedAt, &item.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &item, nil
}

func (m *MySQLAdapter) ListItems(ctx context.Context, userID string, category domain.Category, includeDepleted bool) ([]domain.Item, error) {
	query := `
		SELECT id, user_id, name, quantity, price, category, image_url, status, created_at, updated_at
		FROM inventory_items WHERE user_id = ?`
	args := []any{userID}

	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if !includeDepleted {
		query += ` AND status = 'active'`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.Quantity, &item.Price,
			&item.Category, &item.ImageURL, &item.Status, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// RecordSale moves stock to sold inside one transaction: the decrement is
// conditional on sufficient quantity, never read-then-write, so two
// concurrent sales cannot both drain the same stock.
func (m *MySQLAdapter) RecordSale(ctx context.Context, userID, itemID string, quantity int) (*domain.Sale, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var (
		name     string
		price    decimal.Decimal
		category domain.Category
	)
	err = tx.QueryRowContext(ctx, `
		SELECT name, price, category
		FROM inventory_items WHERE id = ? AND user_id = ? FOR UPDATE`,
		itemID, userID,
	).Scan(&name, &price, &category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}

	// status references quantity after its assignment, so IF sees the
	// decremented value.
	result, err := tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity = quantity - ?,
		    status = IF(quantity = 0, 'depleted', 'active'),
		    updated_at = NOW()
		WHERE id = ? AND user_id = ? AND quantity >= ?`,
		quantity, itemID, userID, quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("decrement stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, domain.ErrInsufficientStock
	}

	sale := domain.Sale{
		ID:              uuid.NewString(),
		UserID:          userID,
		ItemID:          itemID,
		ItemName:        name,
		QuantityReduced: quantity,
		Earned:          price.Mul(decimal.NewFromInt(int64(quantity))),
		Category:        category,
	}
	err = tx.QueryRowContext(ctx, `SELECT NOW()`).Scan(&sale.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("read tx time: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, user_id, item_id, item_name, quantity_reduced, earned, category, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.UserID, sale.ItemID, sale.ItemName,
		sale.QuantityReduced, sale.Earned, sale.Category, sale.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert sale: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sale: %w", err)
	}
	return &sale, nil
}

// RestoreSale undoes one sale: stock is re-credited first, then the sale
// row is removed, all inside one transaction. A sale whose item cannot be
// resolved anymore is still removed, reported as not restored.
func (m *MySQLAdapter) RestoreSale(ctx context.Context, userID, saleID string) (*domain.RestoreResult, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sale, err := lockSale(ctx, tx, userID, saleID)
	if err != nil {
		return nil, err
	}

	restored, err := restoreItemTx(ctx, tx, *sale)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `
		DELETE FROM sales WHERE id = ? AND user_id = ?`, saleID, userID)
	if err != nil {
		return nil, fmt.Errorf("delete sale: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows != 1 {
		return nil, domain.ErrConsistency
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit restore: %w", err)
	}
	return &domain.RestoreResult{Sale: *sale, Restored: restored}, nil
}

// RestoreCategory undoes every sale in a category as one unit: all stock
// restores run before any sale row is deleted, and any failure rolls the
// whole reset back so the history is never partially deleted.
func (m *MySQLAdapter) RestoreCategory(ctx context.Context, userID string, category domain.Category) (*domain.ResetSummary, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, user_id, item_id, item_name, quantity_reduced, earned, category, timestamp
		FROM sales WHERE user_id = ? AND category = ? FOR UPDATE`,
		userID, category,
	)
	if err != nil {
		return nil, fmt.Errorf("query category sales: %w", err)
	}

	var sales []domain.Sale
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.UserID, &sale.ItemID, &sale.ItemName,
			&sale.QuantityReduced, &sale.Earned, &sale.Category, &sale.Timestamp); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	rows.Close()

	summary := domain.ResetSummary{Category: category}
	for _, sale := range sales {
		restored, err := restoreItemTx(ctx, tx, sale)
		if err != nil {
			return nil, err
		}
		if restored {
			summary.UnitsRestored += sale.QuantityReduced
		} else {
			summary.Skipped++
		}
	}

	result, err := tx.ExecContext(ctx, `
		DELETE FROM sales WHERE user_id = ? AND category = ?`, userID, category)
	if err != nil {
		return nil, fmt.Errorf("delete category sales: %w", err)
	}
	deleted, _ := result.RowsAffected()
	if deleted != int64(len(sales)) {
		return nil, domain.ErrConsistency
	}
	summary.SalesRemoved = len(sales)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reset: %w", err)
	}
	return &summary, nil
}

func (m *MySQLAdapter) ListSales(ctx context.Context, userID string) ([]domain.Sale, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, user_id, item_id, item_name, quantity_reduced, earned, category, timestamp
		FROM sales WHERE user_id = ? ORDER BY timestamp DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.UserID, &sale.ItemID, &sale.ItemName,
			&sale.QuantityReduced, &sale.Earned, &sale.Category, &sale.Timestamp); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (m *MySQLAdapter) EarningsByCategory(ctx context.Context, userID string) ([]domain.CategoryEarnings, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT category, COUNT(*), COALESCE(SUM(quantity_reduced), 0), COALESCE(SUM(earned), 0)
		FROM sales WHERE user_id = ?
		GROUP BY category ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("query earnings: %w", err)
	}
	defer rows.Close()

	var earnings []domain.CategoryEarnings
	for rows.Next() {
		var e domain.CategoryEarnings
		if err := rows.Scan(&e.Category, &e.Sales, &e.Units, &e.Total); err != nil {
			return nil, fmt.Errorf("scan earnings: %w", err)
		}
		earnings = append(earnings, e)
	}
	return earnings, rows.Err()
}

func (m *MySQLAdapter) AppendActivity(ctx context.Context, entry domain.ActivityEntry) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, user_id, action, details, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.Action, entry.Details, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListActivities(ctx context.Context, userID string) ([]domain.ActivityEntry, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, user_id, action, details, timestamp
		FROM activity_logs WHERE user_id = ? ORDER BY timestamp DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		var entry domain.ActivityEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.Details, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (m *MySQLAdapter) ResetActivities(ctx context.Context, userID string) (int64, error) {
	result, err := m.db.ExecContext(ctx, `
		DELETE FROM activity_logs WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete activities: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func (m *MySQLAdapter) CreateUser(ctx context.Context, user domain.User) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash,
	)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := m.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE email = ?`, email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

func lockSale(ctx context.Context, tx *sql.Tx, userID, saleID string) (*domain.Sale, error) {
	var sale domain.Sale
	err := tx.QueryRowContext(ctx, `
		SELECT id, user_id, item_id, item_name, quantity_reduced, earned, category, timestamp
		FROM sales WHERE id = ? AND user_id = ? FOR UPDATE`,
		saleID, userID,
	).Scan(&sale.ID, &sale.UserID, &sale.ItemID, &sale.ItemName,
		&sale.QuantityReduced, &sale.Earned, &sale.Category, &sale.Timestamp)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query sale: %w", err)
	}
	return &sale, nil
}

// restoreItemTx re-credits stock for one sale within tx. Sales carry the
// item id; rows recorded before ids were stored fall back to matching by
// owner, name and category. Returns false when no item could be resolved.
func restoreItemTx(ctx context.Context, tx *sql.Tx, sale domain.Sale) (bool, error) {
	if sale.ItemID != "" {
		result, err := tx.ExecContext(ctx, `
			UPDATE inventory_items
			SET quantity = quantity + ?, status = 'active', updated_at = NOW()
			WHERE id = ? AND user_id = ?`,
			sale.QuantityReduced, sale.ItemID, sale.UserID,
		)
		if err != nil {
			return false, fmt.Errorf("restore stock: %w", err)
		}
		rows, _ := result.RowsAffected()
		return rows > 0, nil
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity = quantity + ?, status = 'active', updated_at = NOW()
		WHERE user_id = ? AND name = ? AND category = ?`,
		sale.QuantityReduced, sale.UserID, sale.ItemName, sale.Category,
	)
	if err != nil {
		return false, fmt.Errorf("restore stock by name: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
