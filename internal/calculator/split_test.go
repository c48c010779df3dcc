package calculator

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/mmynk/groupexpenses/internal/models"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		weights []int
		want    []int
	}{
		{
			name:    "proportional exact",
			total:   300,
			weights: []int{1, 2},
			want:    []int{100, 200},
		},
		{
			name:    "largest remainder gets the leftover",
			total:   100,
			weights: []int{1, 1, 1},
			want:    []int{34, 33, 33},
		},
		{
			name:    "remainder goes to the biggest fraction",
			total:   10,
			weights: []int{1, 2},
			// 3.33 and 6.67
			want: []int{3, 7},
		},
		{
			name:    "zero weights split equally",
			total:   9,
			weights: []int{0, 0, 0},
			want:    []int{3, 3, 3},
		},
		{
			name:    "zero weight pays nothing",
			total:   50,
			weights: []int{0, 5},
			want:    []int{0, 50},
		},
		{
			name:    "no weights",
			total:   50,
			weights: nil,
			want:    []int{},
		},
		{
			name:    "large amounts and weights",
			total:   3 * math.MaxInt32,
			weights: []int{math.MaxInt32, 1},
			want:    []int{3*math.MaxInt32 - 3, 3},
		},
		{
			name:    "negative total",
			total:   -10,
			weights: []int{1, 2},
			want:    []int{-3, -7},
		},
		{
			name:    "zero total",
			total:   0,
			weights: []int{3, 4},
			want:    []int{0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.total, tt.weights)
			if len(got) != len(tt.want) {
				t.Fatalf("Split(%d, %v) = %v, want %v", tt.total, tt.weights, got, tt.want)
			}
			sum := 0
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Split(%d, %v) = %v, want %v", tt.total, tt.weights, got, tt.want)
					break
				}
				sum += got[i]
			}
			if len(got) > 0 && sum != tt.total {
				t.Errorf("parts sum to %d, want %d", sum, tt.total)
			}
		})
	}
}

func TestGroupBalances(t *testing.T) {
	groupID := uuid.New()
	alice := models.NewPerson(groupID, "Alice", 3000)
	bob := models.NewPerson(groupID, "Bob", 1000)
	carol := models.NewPerson(groupID, "Carol", 0)
	persons := []*models.Person{alice, bob, carol}

	expenses := []*models.Expense{
		models.NewExpense(groupID, bob.ID, "Rent", 1000),
		models.NewExpense(groupID, carol.ID, "Groceries", 200),
		models.NewExpense(groupID, uuid.New(), "Stranger", 999),
	}

	balances := GroupBalances(persons, expenses)
	if len(balances) != 3 {
		t.Fatalf("expected 3 balances, got %d", len(balances))
	}

	want := []Balance{
		{PersonID: alice.ID, Paid: 0, Share: 900, Net: -900},
		{PersonID: bob.ID, Paid: 1000, Share: 300, Net: 700},
		{PersonID: carol.ID, Paid: 200, Share: 0, Net: 200},
	}
	netSum := 0
	for i, b := range balances {
		if b != want[i] {
			t.Errorf("balance %d = %+v, want %+v", i, b, want[i])
		}
		netSum += b.Net
	}
	if netSum != 0 {
		t.Errorf("nets sum to %d, want 0", netSum)
	}
}

func TestGroupBalancesLargeValues(t *testing.T) {
	groupID := uuid.New()
	rich := models.NewPerson(groupID, "Rich", math.MaxInt32)
	poor := models.NewPerson(groupID, "Poor", 1)
	var expenses []*models.Expense
	for i := 0; i < 3; i++ {
		expenses = append(expenses, models.NewExpense(groupID, rich.ID, "Yacht", math.MaxInt32))
	}

	balances := GroupBalances([]*models.Person{rich, poor}, expenses)

	want := []Balance{
		{PersonID: rich.ID, Paid: 3 * math.MaxInt32, Share: 3*math.MaxInt32 - 3, Net: 3},
		{PersonID: poor.ID, Paid: 0, Share: 3, Net: -3},
	}
	netSum := 0
	for i, b := range balances {
		if b != want[i] {
			t.Errorf("balance %d = %+v, want %+v", i, b, want[i])
		}
		if b.Share < 0 {
			t.Errorf("balance %d has negative share %d", i, b.Share)
		}
		netSum += b.Net
	}
	if netSum != 0 {
		t.Errorf("nets sum to %d, want 0", netSum)
	}
}

func TestGroupBalancesEmpty(t *testing.T) {
	if got := GroupBalances(nil, nil); len(got) != 0 {
		t.Errorf("expected no balances, got %v", got)
	}
}

func TestSettle(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	t.Run("settles every net", func(t *testing.T) {
		balances := []Balance{
			{PersonID: a, Net: -900},
			{PersonID: b, Net: 700},
			{PersonID: c, Net: 200},
			{PersonID: d, Net: 0},
		}
		edges := Settle(balances)

		want := []DebtEdge{
			{From: a, To: b, Amount: 700},
			{From: a, To: c, Amount: 200},
		}
		if len(edges) != len(want) {
			t.Fatalf("Settle() = %+v, want %+v", edges, want)
		}
		for i := range want {
			if edges[i] != want[i] {
				t.Errorf("edge %d = %+v, want %+v", i, edges[i], want[i])
			}
		}
	})

	t.Run("applying edges zeroes balances", func(t *testing.T) {
		balances := []Balance{
			{PersonID: a, Net: -50},
			{PersonID: b, Net: -25},
			{PersonID: c, Net: 60},
			{PersonID: d, Net: 15},
		}
		net := map[uuid.UUID]int{}
		for _, bal := range balances {
			net[bal.PersonID] = bal.Net
		}
		for _, e := range Settle(balances) {
			if e.Amount <= 0 {
				t.Errorf("non-positive edge %+v", e)
			}
			net[e.From] += e.Amount
			net[e.To] -= e.Amount
		}
		for id, n := range net {
			if n != 0 {
				t.Errorf("person %s left with %d", id, n)
			}
		}
	})

	t.Run("all settled", func(t *testing.T) {
		if edges := Settle([]Balance{{PersonID: a}}); len(edges) != 0 {
			t.Errorf("expected no edges, got %+v", edges)
		}
	})
}
