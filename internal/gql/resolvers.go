package gql

import (
	"context"

	"github.com/mmynk/groupexpenses/internal/calculator"
	"github.com/mmynk/groupexpenses/internal/models"
	"github.com/mmynk/groupexpenses/internal/service"
)

// Query is the root query type.
type Query interface {
	Login(ctx context.Context, rc *service.RequestContext, email, password string) (string, error)
	Viewer(ctx context.Context, rc *service.RequestContext) (*models.User, error)
	Group(ctx context.Context, rc *service.RequestContext, id string) (*models.Group, error)
}

// Mutation is the root mutation type.
type Mutation interface {
	Signup(ctx context.Context, rc *service.RequestContext, email, password string) (string, error)

	AddGroup(ctx context.Context, rc *service.RequestContext, name string) (*models.Group, error)
	UpdateGroup(ctx context.Context, rc *service.RequestContext, in service.UpdateGroupInput) (*models.Group, error)
	DeleteGroup(ctx context.Context, rc *service.RequestContext, id string) (bool, error)

	AddPerson(ctx context.Context, rc *service.RequestContext, in service.AddPersonInput) (*models.Person, error)
	UpdatePerson(ctx context.Context, rc *service.RequestContext, in service.UpdatePersonInput) (*models.Person, error)
	DeletePerson(ctx context.Context, rc *service.RequestContext, groupID, id string) (bool, error)

	AddExpense(ctx context.Context, rc *service.RequestContext, in service.AddExpenseInput) (*models.Expense, error)
	UpdateExpense(ctx context.Context, rc *service.RequestContext, in service.UpdateExpenseInput) (*models.Expense, error)
	DeleteExpense(ctx context.Context, rc *service.RequestContext, groupID, id string) (bool, error)
}

// Graph resolves the fields that hang off returned objects.
type Graph interface {
	GroupsOf(ctx context.Context, rc *service.RequestContext, user *models.User) ([]*models.Group, error)
	PersonsOf(ctx context.Context, rc *service.RequestContext, group *models.Group) ([]*models.Person, error)
	ExpensesOf(ctx context.Context, rc *service.RequestContext, group *models.Group) ([]*models.Expense, error)
	ExpensesOfPerson(ctx context.Context, rc *service.RequestContext, person *models.Person) ([]*models.Expense, error)
	BalancesOf(ctx context.Context, rc *service.RequestContext, group *models.Group) ([]calculator.Balance, error)
	SettlementsOf(ctx context.Context, rc *service.RequestContext, group *models.Group) ([]calculator.DebtEdge, error)
}

// Resolvers is everything the schema needs.
type Resolvers interface {
	Query
	Mutation
	Graph
}

var _ Resolvers = (*service.Resolver)(nil)
