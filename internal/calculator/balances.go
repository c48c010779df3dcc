package calculator

import (
	"sort"

	"github.com/google/uuid"

	"github.com/mmynk/groupexpenses/internal/models"
)

// Balance is one person's position within a group.
type Balance struct {
	PersonID uuid.UUID
	Paid     int // Sum of the person's expenses
	Share    int // Fair share of the group total, weighted by resources
	Net      int // Paid - Share. Positive = owed money, Negative = owes money
}

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   uuid.UUID // Person who owes
	To     uuid.UUID // Person who is owed
	Amount int
}

// GroupBalances computes every person's balance for a group.
//
// Algorithm:
// - Each expense credits its payer with the full amount
// - The group total is split across persons in proportion to resources
// - Net = paid - share; nets always sum to zero
//
// Balances are returned in the order of persons. Expenses paid by someone
// not in persons are ignored.
func GroupBalances(persons []*models.Person, expenses []*models.Expense) []Balance {
	index := make(map[uuid.UUID]int, len(persons))
	balances := make([]Balance, len(persons))
	weights := make([]int, len(persons))
	for i, p := range persons {
		index[p.ID] = i
		balances[i].PersonID = p.ID
		weights[i] = p.Resources
	}

	total := 0
	for _, e := range expenses {
		i, ok := index[e.PersonID]
		if !ok {
			continue
		}
		balances[i].Paid += e.Amount
		total += e.Amount
	}

	for i, share := range Split(total, weights) {
		balances[i].Share = share
		balances[i].Net = balances[i].Paid - share
	}
	return balances
}

// Settle turns balances into a short list of payments that zeroes every net.
// Greedy: the largest debtor pays the largest creditor until one side is
// settled, then moves on. Ties keep the input order.
func Settle(balances []Balance) []DebtEdge {
	type position struct {
		id     uuid.UUID
		amount int
	}

	var creditors, debtors []position
	for _, b := range balances {
		if b.Net > 0 {
			creditors = append(creditors, position{b.PersonID, b.Net})
		} else if b.Net < 0 {
			debtors = append(debtors, position{b.PersonID, -b.Net})
		}
	}
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := min(debtors[i].amount, creditors[j].amount)
		edges = append(edges, DebtEdge{
			From:   debtors[i].id,
			To:     creditors[j].id,
			Amount: amount,
		})

		debtors[i].amount -= amount
		creditors[j].amount -= amount

		// Move to next debtor/creditor if fully settled
		if debtors[i].amount == 0 {
			i++
		}
		if creditors[j].amount == 0 {
			j++
		}
	}
	return edges
}
