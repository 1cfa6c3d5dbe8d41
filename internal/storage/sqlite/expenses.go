package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/groupledger/groupledger/internal/models"
	"github.com/groupledger/groupledger/internal/money"
	"github.com/groupledger/groupledger/internal/storage"
)

// dateFormat is the canonical column format for expense dates.
const dateFormat = "2006-01-02"

// CreateExpense inserts an expense, its line items, and the recomputed
// member balances in a single transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, balances map[string]decimal.Decimal) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses (id, group_id, description, total_amount, currency, converted_amount, date, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		expense.ID, expense.GroupID, expense.Description, money.String(expense.TotalAmount),
		expense.Currency, nullAmount(expense.ConvertedAmount), expense.Date.Format(dateFormat), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertLineItems(ctx, tx, expense); err != nil {
		return err
	}
	if err := applyBalances(ctx, tx, balances); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateExpense rewrites the expense header, replaces its line items
// wholesale, and applies the recomputed balances in a single transaction.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense, balances map[string]decimal.Decimal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE expenses SET description = ?, total_amount = ?, currency = ?, converted_amount = ?, date = ? WHERE id = ?",
		expense.Description, money.String(expense.TotalAmount), expense.Currency,
		nullAmount(expense.ConvertedAmount), expense.Date.Format(dateFormat), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM payers WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to delete payers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM participants WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to delete participants: %w", err)
	}

	if err := insertLineItems(ctx, tx, expense); err != nil {
		return err
	}
	if err := applyBalances(ctx, tx, balances); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense with its line items and applies the
// recomputed balances in a single transaction.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string, balances map[string]decimal.Decimal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Line items cascade from the expense row.
	res, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}

	if err := applyBalances(ctx, tx, balances); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// insertLineItems writes the expense's payers and participants.
func insertLineItems(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i := range expense.Payers {
		p := &expense.Payers[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		p.ExpenseID = expense.ID
		_, err := tx.ExecContext(ctx,
			"INSERT INTO payers (id, expense_id, member_id, amount, converted_amount) VALUES (?, ?, ?, ?, ?)",
			p.ID, p.ExpenseID, p.MemberID, money.String(p.Amount), nullAmount(p.ConvertedAmount),
		)
		if err != nil {
			return fmt.Errorf("failed to insert payer: %w", err)
		}
	}

	for i := range expense.Participants {
		p := &expense.Participants[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		p.ExpenseID = expense.ID
		_, err := tx.ExecContext(ctx,
			"INSERT INTO participants (id, expense_id, member_id, share) VALUES (?, ?, ?, ?)",
			p.ID, p.ExpenseID, p.MemberID, money.String(p.Share),
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	return nil
}

// applyBalances writes the recomputed balance for every member in the map.
// Member IDs are sorted so write order is deterministic.
func applyBalances(ctx context.Context, tx *sql.Tx, balances map[string]decimal.Decimal) error {
	memberIDs := make([]string, 0, len(balances))
	for id := range balances {
		memberIDs = append(memberIDs, id)
	}
	sort.Strings(memberIDs)

	for _, id := range memberIDs {
		res, err := tx.ExecContext(ctx,
			"UPDATE members SET balance = ? WHERE id = ?",
			money.String(balances[id]), id,
		)
		if err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read balance update result: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("balance update for member %s: %w", id, storage.ErrNotFound)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID, including payers and participants.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	exp := &models.Expense{}
	var total, date string
	var converted sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, group_id, description, total_amount, currency, converted_amount, date, created_at FROM expenses WHERE id = ?",
		expenseID,
	).Scan(&exp.ID, &exp.GroupID, &exp.Description, &total, &exp.Currency, &converted, &date, &exp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if err := s.fillExpense(ctx, exp, total, converted, date); err != nil {
		return nil, err
	}
	return exp, nil
}

// ListExpensesByGroup retrieves a group's expenses, newest date first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, group_id, description, total_amount, currency, converted_amount, date, created_at FROM expenses WHERE group_id = ? ORDER BY date DESC, created_at DESC, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	var totals, dates []string
	var converteds []sql.NullString
	for rows.Next() {
		var exp models.Expense
		var total, date string
		var converted sql.NullString
		if err := rows.Scan(&exp.ID, &exp.GroupID, &exp.Description, &total, &exp.Currency, &converted, &date, &exp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, exp)
		totals = append(totals, total)
		dates = append(dates, date)
		converteds = append(converteds, converted)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for i := range expenses {
		if err := s.fillExpense(ctx, &expenses[i], totals[i], converteds[i], dates[i]); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

// fillExpense parses the scanned amount/date columns and loads line items.
func (s *SQLiteStore) fillExpense(ctx context.Context, exp *models.Expense, total string, converted sql.NullString, date string) error {
	var err error
	if exp.TotalAmount, err = parseAmount("total_amount", total); err != nil {
		return err
	}
	if exp.ConvertedAmount, err = parseNullAmount("converted_amount", converted); err != nil {
		return err
	}
	if exp.Date, err = time.Parse(dateFormat, date); err != nil {
		return fmt.Errorf("corrupt date value %q: %w", date, err)
	}

	payerRows, err := s.db.QueryContext(ctx,
		"SELECT id, expense_id, member_id, amount, converted_amount FROM payers WHERE expense_id = ? ORDER BY id",
		exp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get payers: %w", err)
	}
	defer payerRows.Close()

	for payerRows.Next() {
		var p models.Payer
		var amount string
		var pc sql.NullString
		if err := payerRows.Scan(&p.ID, &p.ExpenseID, &p.MemberID, &amount, &pc); err != nil {
			return fmt.Errorf("failed to scan payer: %w", err)
		}
		if p.Amount, err = parseAmount("amount", amount); err != nil {
			return err
		}
		if p.ConvertedAmount, err = parseNullAmount("converted_amount", pc); err != nil {
			return err
		}
		exp.Payers = append(exp.Payers, p)
	}
	if err := payerRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate payers: %w", err)
	}

	partRows, err := s.db.QueryContext(ctx,
		"SELECT id, expense_id, member_id, share FROM participants WHERE expense_id = ? ORDER BY id",
		exp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer partRows.Close()

	for partRows.Next() {
		var p models.Participant
		var share string
		if err := partRows.Scan(&p.ID, &p.ExpenseID, &p.MemberID, &share); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		if p.Share, err = parseAmount("share", share); err != nil {
			return err
		}
		exp.Participants = append(exp.Participants, p)
	}
	if err := partRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}
	return nil
}
