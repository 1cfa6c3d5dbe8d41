package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/groupledger/groupledger/internal/models"
	"github.com/groupledger/groupledger/internal/money"
	"github.com/groupledger/groupledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func seedGroup(t *testing.T, store *SQLiteStore, memberNames ...string) *models.Group {
	t.Helper()
	group := &models.Group{Name: "Trip", Currency: "USD"}
	for _, name := range memberNames {
		group.Members = append(group.Members, models.Member{Name: name})
	}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup generates IDs and zero balances", func(t *testing.T) {
		group := seedGroup(t, store, "Alice", "Bob")

		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
		for _, m := range group.Members {
			if m.ID == "" {
				t.Error("Expected member ID to be generated")
			}
			if !m.Balance.IsZero() {
				t.Errorf("Expected zero balance, got %s", m.Balance)
			}
		}
	})

	t.Run("GetGroup retrieves members with balances", func(t *testing.T) {
		created := seedGroup(t, store, "Carol", "Dave")

		got, err := store.GetGroup(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Currency != "USD" {
			t.Errorf("Currency mismatch: got %s, want USD", got.Currency)
		}
		if len(got.Members) != 2 {
			t.Fatalf("Members count mismatch: got %d, want 2", len(got.Members))
		}
	})

	t.Run("GetGroup returns not found for unknown ID", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected storage.ErrNotFound, got %v", err)
		}
	})

	t.Run("AddMember starts at zero balance", func(t *testing.T) {
		group := seedGroup(t, store, "Erin")

		member := &models.Member{GroupID: group.ID, Name: "Frank"}
		if err := store.AddMember(ctx, member); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}

		got, err := store.GetMember(ctx, member.ID)
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		if !got.Balance.IsZero() {
			t.Errorf("Expected zero balance, got %s", got.Balance)
		}
	})
}

func TestSQLiteStoreExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store, "Alice", "Bob")
	alice, bob := group.Members[0], group.Members[1]

	newExpense := func(desc string, date time.Time) *models.Expense {
		return &models.Expense{
			GroupID:     group.ID,
			Description: desc,
			TotalAmount: mustDec(t, "100.00"),
			Currency:    "USD",
			Date:        date,
			Payers: []models.Payer{
				{MemberID: alice.ID, Amount: mustDec(t, "100.00")},
			},
			Participants: []models.Participant{
				{MemberID: alice.ID, Share: mustDec(t, "50.00")},
				{MemberID: bob.ID, Share: mustDec(t, "50.00")},
			},
		}
	}
	balances := map[string]decimal.Decimal{
		alice.ID: mustDec(t, "50.00"),
		bob.ID:   mustDec(t, "-50.00"),
	}

	t.Run("CreateExpense persists line items and balances together", func(t *testing.T) {
		exp := newExpense("Dinner", time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
		if err := store.CreateExpense(ctx, exp, balances); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if exp.ID == "" {
			t.Error("Expected expense ID to be generated")
		}

		got, err := store.GetExpense(ctx, exp.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if len(got.Payers) != 1 || len(got.Participants) != 2 {
			t.Fatalf("Line item counts mismatch: got %d payers, %d participants", len(got.Payers), len(got.Participants))
		}
		if money.String(got.TotalAmount) != "100.00" {
			t.Errorf("TotalAmount mismatch: got %s", money.String(got.TotalAmount))
		}

		member, err := store.GetMember(ctx, bob.ID)
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		if money.String(member.Balance) != "-50.00" {
			t.Errorf("Balance mismatch: got %s, want -50.00", money.String(member.Balance))
		}
	})

	t.Run("Amounts survive the storage boundary exactly", func(t *testing.T) {
		exp := newExpense("Precision", time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC))
		exp.TotalAmount = mustDec(t, "0.10")
		converted := mustDec(t, "0.30")
		exp.ConvertedAmount = &converted

		if err := store.CreateExpense(ctx, exp, balances); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		got, err := store.GetExpense(ctx, exp.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if money.String(got.TotalAmount) != "0.10" {
			t.Errorf("TotalAmount drifted: got %s, want 0.10", money.String(got.TotalAmount))
		}
		if got.ConvertedAmount == nil || money.String(*got.ConvertedAmount) != "0.30" {
			t.Errorf("ConvertedAmount drifted: got %v", got.ConvertedAmount)
		}
	})

	t.Run("UpdateExpense replaces line items wholesale", func(t *testing.T) {
		exp := newExpense("Groceries", time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC))
		if err := store.CreateExpense(ctx, exp, balances); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		exp.Participants = []models.Participant{
			{MemberID: alice.ID, Share: mustDec(t, "30.00")},
			{MemberID: bob.ID, Share: mustDec(t, "70.00")},
		}
		updated := map[string]decimal.Decimal{
			alice.ID: mustDec(t, "70.00"),
			bob.ID:   mustDec(t, "-70.00"),
		}
		if err := store.UpdateExpense(ctx, exp, updated); err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}

		got, err := store.GetExpense(ctx, exp.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if len(got.Participants) != 2 {
			t.Fatalf("Participants count mismatch: got %d, want 2", len(got.Participants))
		}
		shares := map[string]string{}
		for _, p := range got.Participants {
			shares[p.MemberID] = money.String(p.Share)
		}
		if shares[bob.ID] != "70.00" {
			t.Errorf("Share mismatch: got %s, want 70.00", shares[bob.ID])
		}
	})

	t.Run("UpdateExpense returns not found for unknown ID", func(t *testing.T) {
		exp := newExpense("Ghost", time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC))
		exp.ID = "nonexistent-id"
		err := store.UpdateExpense(ctx, exp, balances)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected storage.ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteExpense removes line items via cascade", func(t *testing.T) {
		exp := newExpense("Taxi", time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC))
		if err := store.CreateExpense(ctx, exp, balances); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		zero := map[string]decimal.Decimal{
			alice.ID: mustDec(t, "0.00"),
			bob.ID:   mustDec(t, "0.00"),
		}
		if err := store.DeleteExpense(ctx, exp.ID, zero); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}

		if _, err := store.GetExpense(ctx, exp.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected storage.ErrNotFound after delete, got %v", err)
		}
		member, err := store.GetMember(ctx, bob.ID)
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		if money.String(member.Balance) != "0.00" {
			t.Errorf("Balance mismatch after delete: got %s, want 0.00", money.String(member.Balance))
		}
	})

	t.Run("Failed balance write rolls back the expense insert", func(t *testing.T) {
		exp := newExpense("Doomed", time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))
		bad := map[string]decimal.Decimal{
			"no-such-member": mustDec(t, "1.00"),
		}
		if err := store.CreateExpense(ctx, exp, bad); err == nil {
			t.Fatal("Expected CreateExpense to fail")
		}

		if _, err := store.GetExpense(ctx, exp.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected rolled-back expense to be absent, got %v", err)
		}
	})

	t.Run("ListExpensesByGroup orders by date descending", func(t *testing.T) {
		fresh := newTestStore(t)
		g := seedGroup(t, fresh, "Alice", "Bob")
		a, b := g.Members[0], g.Members[1]
		bal := map[string]decimal.Decimal{a.ID: mustDec(t, "0.00"), b.ID: mustDec(t, "0.00")}

		dates := []time.Time{
			time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC),
		}
		for i, d := range dates {
			exp := &models.Expense{
				GroupID:     g.ID,
				Description: "exp",
				TotalAmount: mustDec(t, "10.00"),
				Currency:    "USD",
				Date:        d,
				Payers:      []models.Payer{{MemberID: a.ID, Amount: mustDec(t, "10.00")}},
				Participants: []models.Participant{
					{MemberID: b.ID, Share: mustDec(t, "10.00")},
				},
			}
			if err := fresh.CreateExpense(ctx, exp, bal); err != nil {
				t.Fatalf("CreateExpense %d failed: %v", i, err)
			}
		}

		expenses, err := fresh.ListExpensesByGroup(ctx, g.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(expenses) != 3 {
			t.Fatalf("Expected 3 expenses, got %d", len(expenses))
		}
		for i := 1; i < len(expenses); i++ {
			if expenses[i].Date.After(expenses[i-1].Date) {
				t.Errorf("Expenses out of order: %s before %s", expenses[i-1].Date, expenses[i].Date)
			}
		}
	})

	t.Run("DeleteGroup cascades to members and expenses", func(t *testing.T) {
		fresh := newTestStore(t)
		g := seedGroup(t, fresh, "Alice", "Bob")
		a, b := g.Members[0], g.Members[1]
		exp := &models.Expense{
			GroupID:     g.ID,
			Description: "exp",
			TotalAmount: mustDec(t, "10.00"),
			Currency:    "USD",
			Date:        time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			Payers:      []models.Payer{{MemberID: a.ID, Amount: mustDec(t, "10.00")}},
			Participants: []models.Participant{
				{MemberID: b.ID, Share: mustDec(t, "10.00")},
			},
		}
		bal := map[string]decimal.Decimal{a.ID: mustDec(t, "10.00"), b.ID: mustDec(t, "-10.00")}
		if err := fresh.CreateExpense(ctx, exp, bal); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		if err := fresh.DeleteGroup(ctx, g.ID); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if _, err := fresh.GetGroup(ctx, g.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected group to be gone, got %v", err)
		}
		if _, err := fresh.GetMember(ctx, a.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected member to be gone, got %v", err)
		}
		if _, err := fresh.GetExpense(ctx, exp.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected expense to be gone, got %v", err)
		}
	})
}
