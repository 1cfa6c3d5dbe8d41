package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/groupledger/groupledger/internal/money"
	"github.com/groupledger/groupledger/internal/service"
)

const dateFormat = "2006-01-02"

type createGroupPayload struct {
	Name     string   `json:"name"`
	Currency string   `json:"currency"`
	Members  []string `json:"members"`
}

type addMemberPayload struct {
	Name string `json:"name"`
}

type payerPayload struct {
	MemberID        string  `json:"memberId"`
	Amount          string  `json:"amount"`
	ConvertedAmount *string `json:"convertedAmount"`
}

type participantPayload struct {
	MemberID string `json:"memberId"`
	Share    string `json:"share"`
}

type createExpensePayload struct {
	GroupID         string               `json:"groupId"`
	Description     string               `json:"description"`
	TotalAmount     string               `json:"totalAmount"`
	Currency        string               `json:"currency"`
	ConvertedAmount *string              `json:"convertedAmount"`
	Date            string               `json:"date"`
	Payers          []payerPayload       `json:"payers"`
	Participants    []participantPayload `json:"participants"`
}

type updateExpensePayload struct {
	Description     *string              `json:"description"`
	TotalAmount     *string              `json:"totalAmount"`
	Currency        *string              `json:"currency"`
	ConvertedAmount *string              `json:"convertedAmount"`
	Date            *string              `json:"date"`
	Payers          []payerPayload       `json:"payers"`
	Participants    []participantPayload `json:"participants"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var payload createGroupPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, service.InvalidInputf("invalid request body: %v", err))
		return
	}

	group, err := s.groups.CreateGroup(r.Context(), service.CreateGroupInput{
		Name:     payload.Name,
		Currency: payload.Currency,
		Members:  payload.Members,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewGroup(group))
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.ListGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]groupView, len(groups))
	for i := range groups {
		views[i] = viewGroup(&groups[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.groups.GetGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewGroup(group))
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.groups.DeleteGroup(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var payload addMemberPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, service.InvalidInputf("invalid request body: %v", err))
		return
	}

	member, err := s.groups.AddMember(r.Context(), r.PathValue("id"), payload.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewMember(member))
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	member, err := s.groups.GetMember(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewMember(member))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var payload createExpensePayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, service.InvalidInputf("invalid request body: %v", err))
		return
	}

	input, err := payload.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	expense, err := s.expenses.Create(r.Context(), *input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewExpense(expense))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.expenses.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewExpense(expense))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.ListByGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]expenseView, len(expenses))
	for i := range expenses {
		views[i] = viewExpense(&expenses[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var payload updateExpensePayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, service.InvalidInputf("invalid request body: %v", err))
		return
	}

	input, err := payload.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	expense, err := s.expenses.Update(r.Context(), r.PathValue("id"), *input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewExpense(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (p *createExpensePayload) toInput() (*service.CreateExpenseInput, error) {
	total, err := money.Parse(p.TotalAmount)
	if err != nil {
		return nil, service.InvalidInputf("invalid total amount: %v", err)
	}
	converted, err := parseOptionalAmount(p.ConvertedAmount)
	if err != nil {
		return nil, service.InvalidInputf("invalid converted amount: %v", err)
	}
	date, err := time.Parse(dateFormat, p.Date)
	if err != nil {
		return nil, service.InvalidInputf("invalid date %q: expected YYYY-MM-DD", p.Date)
	}
	payers, err := parsePayers(p.Payers)
	if err != nil {
		return nil, err
	}
	participants, err := parseParticipants(p.Participants)
	if err != nil {
		return nil, err
	}

	return &service.CreateExpenseInput{
		GroupID:         p.GroupID,
		Description:     p.Description,
		TotalAmount:     total,
		Currency:        p.Currency,
		ConvertedAmount: converted,
		Date:            date,
		Payers:          payers,
		Participants:    participants,
	}, nil
}

func (p *updateExpensePayload) toInput() (*service.UpdateExpenseInput, error) {
	input := &service.UpdateExpenseInput{
		Description: p.Description,
		Currency:    p.Currency,
	}

	if p.TotalAmount != nil {
		total, err := money.Parse(*p.TotalAmount)
		if err != nil {
			return nil, service.InvalidInputf("invalid total amount: %v", err)
		}
		input.TotalAmount = &total
	}
	converted, err := parseOptionalAmount(p.ConvertedAmount)
	if err != nil {
		return nil, service.InvalidInputf("invalid converted amount: %v", err)
	}
	input.ConvertedAmount = converted
	if p.Date != nil {
		date, err := time.Parse(dateFormat, *p.Date)
		if err != nil {
			return nil, service.InvalidInputf("invalid date %q: expected YYYY-MM-DD", *p.Date)
		}
		input.Date = &date
	}
	if p.Payers != nil {
		payers, err := parsePayers(p.Payers)
		if err != nil {
			return nil, err
		}
		input.Payers = payers
	}
	if p.Participants != nil {
		participants, err := parseParticipants(p.Participants)
		if err != nil {
			return nil, err
		}
		input.Participants = participants
	}
	return input, nil
}

func parseOptionalAmount(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := money.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parsePayers(payloads []payerPayload) ([]service.PayerInput, error) {
	payers := make([]service.PayerInput, 0, len(payloads))
	for _, p := range payloads {
		amount, err := money.Parse(p.Amount)
		if err != nil {
			return nil, service.InvalidInputf("invalid payer amount: %v", err)
		}
		converted, err := parseOptionalAmount(p.ConvertedAmount)
		if err != nil {
			return nil, service.InvalidInputf("invalid payer converted amount: %v", err)
		}
		payers = append(payers, service.PayerInput{
			MemberID:        p.MemberID,
			Amount:          amount,
			ConvertedAmount: converted,
		})
	}
	return payers, nil
}

func parseParticipants(payloads []participantPayload) ([]service.ParticipantInput, error) {
	participants := make([]service.ParticipantInput, 0, len(payloads))
	for _, p := range payloads {
		share, err := money.Parse(p.Share)
		if err != nil {
			return nil, service.InvalidInputf("invalid participant share: %v", err)
		}
		participants = append(participants, service.ParticipantInput{
			MemberID: p.MemberID,
			Share:    share,
		})
	}
	return participants, nil
}
