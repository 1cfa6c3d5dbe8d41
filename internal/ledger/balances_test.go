package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupledger/groupledger/internal/models"
	"github.com/groupledger/groupledger/internal/money"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}

func usdGroup(memberIDs ...string) *models.Group {
	g := &models.Group{ID: "g1", Name: "Trip", Currency: "USD"}
	for _, id := range memberIDs {
		g.Members = append(g.Members, models.Member{ID: id, GroupID: g.ID, Name: id})
	}
	return g
}

func expense(t *testing.T, id, currency, total string, payers []models.Payer, participants []models.Participant) models.Expense {
	t.Helper()
	return models.Expense{
		ID:           id,
		GroupID:      "g1",
		Description:  "test",
		TotalAmount:  dec(t, total),
		Currency:     currency,
		Date:         time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Payers:       payers,
		Participants: participants,
	}
}

func TestRecomputeSingleExpense(t *testing.T) {
	group := usdGroup("alice", "bob")
	expenses := []models.Expense{
		expense(t, "e1", "USD", "100.00",
			[]models.Payer{{MemberID: "alice", Amount: dec(t, "100.00")}},
			[]models.Participant{
				{MemberID: "alice", Share: dec(t, "50.00")},
				{MemberID: "bob", Share: dec(t, "50.00")},
			},
		),
	}

	balances, err := Recompute(group, expenses)
	require.NoError(t, err)

	assert.Equal(t, "50.00", money.String(balances["alice"]))
	assert.Equal(t, "-50.00", money.String(balances["bob"]))
}

func TestRecomputeEmptyHistoryIsAllZero(t *testing.T) {
	group := usdGroup("alice", "bob", "carol")

	balances, err := Recompute(group, nil)
	require.NoError(t, err)

	require.Len(t, balances, 3)
	for id, b := range balances {
		assert.Equal(t, "0.00", money.String(b), "member %s", id)
	}
}

func TestRecomputeCrossCurrencyUsesConvertedAmount(t *testing.T) {
	group := usdGroup("alice", "bob")
	expenses := []models.Expense{
		expense(t, "e1", "EUR", "90.00",
			[]models.Payer{{MemberID: "alice", Amount: dec(t, "90.00"), ConvertedAmount: decPtr(t, "100.00")}},
			[]models.Participant{
				{MemberID: "alice", Share: dec(t, "50.00")},
				{MemberID: "bob", Share: dec(t, "50.00")},
			},
		),
	}

	balances, err := Recompute(group, expenses)
	require.NoError(t, err)

	// The 90.00 EUR raw amount must not leak into the USD balances.
	assert.Equal(t, "50.00", money.String(balances["alice"]))
	assert.Equal(t, "-50.00", money.String(balances["bob"]))
}

func TestRecomputeCrossCurrencyMissingConvertedAmount(t *testing.T) {
	group := usdGroup("alice", "bob")
	expenses := []models.Expense{
		expense(t, "e1", "EUR", "90.00",
			[]models.Payer{{MemberID: "alice", Amount: dec(t, "90.00")}},
			[]models.Participant{{MemberID: "bob", Share: dec(t, "90.00")}},
		),
	}

	_, err := Recompute(group, expenses)
	assert.ErrorIs(t, err, money.ErrMissingConvertedAmount)
}

func TestRecomputeUnknownMember(t *testing.T) {
	group := usdGroup("alice")
	expenses := []models.Expense{
		expense(t, "e1", "USD", "10.00",
			[]models.Payer{{MemberID: "mallory", Amount: dec(t, "10.00")}},
			[]models.Participant{{MemberID: "alice", Share: dec(t, "10.00")}},
		),
	}

	_, err := Recompute(group, expenses)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mallory")
}

func TestRecomputeIsIdempotent(t *testing.T) {
	group := usdGroup("alice", "bob", "carol")
	expenses := []models.Expense{
		expense(t, "e1", "USD", "99.99",
			[]models.Payer{{MemberID: "alice", Amount: dec(t, "99.99")}},
			[]models.Participant{
				{MemberID: "alice", Share: dec(t, "33.33")},
				{MemberID: "bob", Share: dec(t, "33.33")},
				{MemberID: "carol", Share: dec(t, "33.33")},
			},
		),
		expense(t, "e2", "EUR", "30.00",
			[]models.Payer{{MemberID: "bob", Amount: dec(t, "30.00"), ConvertedAmount: decPtr(t, "33.50")}},
			[]models.Participant{
				{MemberID: "bob", Share: dec(t, "16.75")},
				{MemberID: "carol", Share: dec(t, "16.75")},
			},
		),
	}

	first, err := Recompute(group, expenses)
	require.NoError(t, err)
	second, err := Recompute(group, expenses)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for id, b := range first {
		assert.Equal(t, money.String(b), money.String(second[id]), "member %s", id)
	}
}

func TestRecomputeConservation(t *testing.T) {
	group := usdGroup("alice", "bob", "carol", "dave")
	expenses := []models.Expense{
		expense(t, "e1", "USD", "100.00",
			[]models.Payer{{MemberID: "alice", Amount: dec(t, "100.00")}},
			[]models.Participant{
				{MemberID: "alice", Share: dec(t, "25.00")},
				{MemberID: "bob", Share: dec(t, "25.00")},
				{MemberID: "carol", Share: dec(t, "25.00")},
				{MemberID: "dave", Share: dec(t, "25.00")},
			},
		),
		expense(t, "e2", "USD", "10.01",
			[]models.Payer{
				{MemberID: "bob", Amount: dec(t, "5.01")},
				{MemberID: "carol", Amount: dec(t, "5.00")},
			},
			[]models.Participant{
				{MemberID: "alice", Share: dec(t, "3.34")},
				{MemberID: "bob", Share: dec(t, "3.34")},
				{MemberID: "dave", Share: dec(t, "3.33")},
			},
		),
	}

	balances, err := Recompute(group, expenses)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b)
	}
	tolerance := dec(t, "0.01").Mul(decimal.NewFromInt(int64(len(group.Members))))
	assert.True(t, sum.Abs().LessThanOrEqual(tolerance),
		"balances sum to %s, outside tolerance %s", sum.String(), tolerance.String())
}

func TestRecomputeRoundsOncePerMember(t *testing.T) {
	group := usdGroup("alice", "bob")
	// Two thirds accumulate before rounding: 3.335 + 3.335 = 6.67, not
	// 3.34 + 3.34 = 6.68.
	expenses := []models.Expense{
		expense(t, "e1", "USD", "3.34",
			[]models.Payer{{MemberID: "alice", Amount: dec(t, "3.335")}},
			[]models.Participant{{MemberID: "bob", Share: dec(t, "3.335")}},
		),
		expense(t, "e2", "USD", "3.34",
			[]models.Payer{{MemberID: "alice", Amount: dec(t, "3.335")}},
			[]models.Participant{{MemberID: "bob", Share: dec(t, "3.335")}},
		),
	}

	balances, err := Recompute(group, expenses)
	require.NoError(t, err)

	assert.Equal(t, "6.67", money.String(balances["alice"]))
	assert.Equal(t, "-6.67", money.String(balances["bob"]))
}
