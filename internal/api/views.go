package api

import (
	"github.com/shopspring/decimal"

	"github.com/groupledger/groupledger/internal/models"
	"github.com/groupledger/groupledger/internal/money"
)

// Amounts cross the wire as fixed two-decimal strings, never JSON numbers,
// so clients cannot lose precision to float parsing.

type memberView struct {
	ID        string `json:"id"`
	GroupID   string `json:"groupId"`
	Name      string `json:"name"`
	Balance   string `json:"balance"`
	CreatedAt int64  `json:"createdAt"`
}

type groupView struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Currency  string       `json:"currency"`
	Members   []memberView `json:"members"`
	CreatedAt int64        `json:"createdAt"`
}

type payerView struct {
	ID              string  `json:"id"`
	MemberID        string  `json:"memberId"`
	Amount          string  `json:"amount"`
	ConvertedAmount *string `json:"convertedAmount,omitempty"`
}

type participantView struct {
	ID       string `json:"id"`
	MemberID string `json:"memberId"`
	Share    string `json:"share"`
}

type expenseView struct {
	ID              string            `json:"id"`
	GroupID         string            `json:"groupId"`
	Description     string            `json:"description"`
	TotalAmount     string            `json:"totalAmount"`
	Currency        string            `json:"currency"`
	ConvertedAmount *string           `json:"convertedAmount,omitempty"`
	Date            string            `json:"date"`
	Payers          []payerView       `json:"payers"`
	Participants    []participantView `json:"participants"`
	CreatedAt       int64             `json:"createdAt"`
}

func viewAmount(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := money.String(*d)
	return &s
}

func viewMember(m *models.Member) memberView {
	return memberView{
		ID:        m.ID,
		GroupID:   m.GroupID,
		Name:      m.Name,
		Balance:   money.String(m.Balance),
		CreatedAt: m.CreatedAt,
	}
}

func viewGroup(g *models.Group) groupView {
	members := make([]memberView, len(g.Members))
	for i := range g.Members {
		members[i] = viewMember(&g.Members[i])
	}
	return groupView{
		ID:        g.ID,
		Name:      g.Name,
		Currency:  g.Currency,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func viewExpense(e *models.Expense) expenseView {
	payers := make([]payerView, len(e.Payers))
	for i, p := range e.Payers {
		payers[i] = payerView{
			ID:              p.ID,
			MemberID:        p.MemberID,
			Amount:          money.String(p.Amount),
			ConvertedAmount: viewAmount(p.ConvertedAmount),
		}
	}
	participants := make([]participantView, len(e.Participants))
	for i, p := range e.Participants {
		participants[i] = participantView{
			ID:       p.ID,
			MemberID: p.MemberID,
			Share:    money.String(p.Share),
		}
	}
	return expenseView{
		ID:              e.ID,
		GroupID:         e.GroupID,
		Description:     e.Description,
		TotalAmount:     money.String(e.TotalAmount),
		Currency:        e.Currency,
		ConvertedAmount: viewAmount(e.ConvertedAmount),
		Date:            e.Date.Format("2006-01-02"),
		Payers:          payers,
		Participants:    participants,
		CreatedAt:       e.CreatedAt,
	}
}
