package gql

import (
	"context"

	"github.com/graphql-go/graphql"

	"github.com/mmynk/groupexpenses/internal/calculator"
	"github.com/mmynk/groupexpenses/internal/models"
	"github.com/mmynk/groupexpenses/internal/service"
)

// NewSchema builds the executable schema on top of r.
func NewSchema(r Resolvers) (graphql.Schema, error) {
	expenseType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Expense",
		Description: "An amount paid by one person on behalf of the group.",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: nonNull(graphql.ID), Resolve: field(func(e *models.Expense) interface{} { return e.ID.String() })},
			"name":     &graphql.Field{Type: nonNull(graphql.String), Resolve: field(func(e *models.Expense) interface{} { return e.Name })},
			"amount":   &graphql.Field{Type: nonNull(graphql.Int), Resolve: field(func(e *models.Expense) interface{} { return e.Amount })},
			"personId": &graphql.Field{Type: nonNull(graphql.ID), Resolve: field(func(e *models.Expense) interface{} { return e.PersonID.String() })},
		},
	})

	personType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Person",
		Description: "A member of a group.",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: nonNull(graphql.ID), Resolve: field(func(p *models.Person) interface{} { return p.ID.String() })},
			"name":      &graphql.Field{Type: nonNull(graphql.String), Resolve: field(func(p *models.Person) interface{} { return p.Name })},
			"resources": &graphql.Field{Type: nonNull(graphql.Int), Resolve: field(func(p *models.Person) interface{} { return p.Resources })},
			"expenses": &graphql.Field{
				Type:    listOf(expenseType),
				Resolve: nested(r.ExpensesOfPerson),
			},
		},
	})

	balanceType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Balance",
		Description: "A person's position: what they paid against their resource-weighted share.",
		Fields: graphql.Fields{
			"personId": &graphql.Field{Type: nonNull(graphql.ID), Resolve: field(func(b calculator.Balance) interface{} { return b.PersonID.String() })},
			"paid":     &graphql.Field{Type: nonNull(graphql.Int), Resolve: field(func(b calculator.Balance) interface{} { return b.Paid })},
			"share":    &graphql.Field{Type: nonNull(graphql.Int), Resolve: field(func(b calculator.Balance) interface{} { return b.Share })},
			"net":      &graphql.Field{Type: nonNull(graphql.Int), Resolve: field(func(b calculator.Balance) interface{} { return b.Net })},
		},
	})

	settlementType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Settlement",
		Description: "A suggested payment between two persons.",
		Fields: graphql.Fields{
			"from":   &graphql.Field{Type: nonNull(graphql.ID), Resolve: field(func(d calculator.DebtEdge) interface{} { return d.From.String() })},
			"to":     &graphql.Field{Type: nonNull(graphql.ID), Resolve: field(func(d calculator.DebtEdge) interface{} { return d.To.String() })},
			"amount": &graphql.Field{Type: nonNull(graphql.Int), Resolve: field(func(d calculator.DebtEdge) interface{} { return d.Amount })},
		},
	})

	groupType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Group",
		Description: "A set of persons sharing expenses.",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: nonNull(graphql.ID), Resolve: field(func(g *models.Group) interface{} { return g.ID.String() })},
			"name":        &graphql.Field{Type: nonNull(graphql.String), Resolve: field(func(g *models.Group) interface{} { return g.Name })},
			"persons":     &graphql.Field{Type: listOf(personType), Resolve: nested(r.PersonsOf)},
			"expenses":    &graphql.Field{Type: listOf(expenseType), Resolve: nested(r.ExpensesOf)},
			"balances":    &graphql.Field{Type: listOf(balanceType), Resolve: nested(r.BalancesOf)},
			"settlements": &graphql.Field{Type: listOf(settlementType), Resolve: nested(r.SettlementsOf)},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "User",
		Description: "The authenticated user.",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: nonNull(graphql.ID), Resolve: field(func(u *models.User) interface{} { return u.ID.String() })},
			"email":  &graphql.Field{Type: nonNull(graphql.String), Resolve: field(func(u *models.User) interface{} { return u.Email })},
			"groups": &graphql.Field{Type: listOf(groupType), Resolve: nested(r.GroupsOf)},
		},
	})

	signupInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "SignupInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"email":    &graphql.InputObjectFieldConfig{Type: nonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: nonNull(graphql.String)},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"login": &graphql.Field{
				Type:        nonNull(graphql.String),
				Description: "Log in a user and return a bearer token.",
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: nonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: nonNull(graphql.String)},
				},
				Resolve: root(func(ctx context.Context, rc *service.RequestContext, a args) (interface{}, error) {
					return r.Login(ctx, rc, a.str("email"), a.str("password"))
				}),
			},
			"viewer": &graphql.Field{
				Type:        nonNull(userType),
				Description: "The authenticated user.",
				Resolve: root(func(ctx context.Context, rc *service.RequestContext, a args) (interface{}, error) {
					return orNil(r.Viewer(ctx, rc))
				}),
			},
			"group": &graphql.Field{
				Type:        nonNull(groupType),
				Description: "One of the authenticated user's groups.",
				Args:        graphql.FieldConfigArgument{"id": idArg()},
				Resolve: root(func(ctx context.Context, rc *service.RequestContext, a args) (interface{}, error) {
					return orNil(r.Group(ctx, rc, a.str("id")))
				}),
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"signup": &graphql.Field{
				Type:        nonNull(graphql.String),
				Description: "Create an account with a default group and return a bearer token.",
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(signupInput)},
				},
				Resolve: root(func(ctx context.Context, rc *service.RequestContext, a args) (interface{}, error) {
					in := a.object("input")
					return r.Signup(ctx, rc, in.str("email"), in.str("password"))
				}),
			},

			"addGroup": &graphql.Field{
				Type: nonNull(groupType),
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: nonNull(graphql.String)},
				},
				Resolve: root(func(ctx context.Context, rc *service.RequestContext, a args) (interface{}, error) {
					return orNil(r.AddGroup(ctx, rc, a.str("name")))
				}),
			},
			"updateGroup": &graphql.Field{
				Type: nonNull(groupType),
				Args: graphql.FieldConfigArgument{
					"id":   idArg(),
					"name": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: root(func(ctx context.Context, rc *service.RequestContext, a args) (interface{}, error) {
					return orNil(r.UpdateGroup(ctx, rc, service.UpdateGroupInput{
						ID:   a.str("id"),
						Name: a.optStr("name"),
					}))
				}),
			},
			"deleteGroup": &graphql.Field{
				Type: nonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{"id": idArg()},
				Resolve: root(func(ctx context.Context, rc *service.RequestContext, a args) (interface{}, error) {
					return r.DeleteGroup(ctx, rc, a.str("id"))
				}),
			},

			"addPerson": &graphql.Field{
				Type: nonNull(personType),
				Args: graphql.FieldConfigArgument{
					"groupId":   idArg(),
					"name":      &graphql.ArgumentConfig{Type: nonNull(graphql.String)},
					"resources": &graphql.ArgumentConfig{Type: nonNull(graphql.Int)},
				},
				Resolve: root(func(ctx context.Context, rc *service.RequestContext, a args) (interface{}, error) {
					return orNil(r.AddPerson(ctx, rc, service.AddPersonInput{
						GroupID:   a.str("groupId"),
						Name:      a.str("name"),
						Resources: a.int("resources"),
					}))
				}),
			},
			"updatePerson": &graphql.Field{
				Type: nonNull(personType),
				Args: graphql.FieldConfigArgument{
					"groupId":   idArg(),
					"id":        idArg(),
					"name":      &graphql.ArgumentConfig{Type: graphql.String},
					"resources": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: root(func(ctx context.Context, rc *service.RequestContext, a args) (interface{}, error) {
					return orNil(r.UpdatePerson(ctx, rc, service.UpdatePersonInput{
						GroupID:   a.str("groupId"),
						ID:        a.str("id"),
						Name:      a.optStr("name"),
						Resources: a.optInt("resources"),
					}))
				}),
			},
			"deletePerson": &graphql.Field{
				Type: nonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{"groupId": idArg(), "id": idArg()},
				Resolve: root(func(ctx context.Context, rc *service.RequestContext, a args) (interface{}, error) {
					return r.DeletePerson(ctx, rc, a.str("groupId"), a.str("id"))
				}),
			},

			"addExpense": &graphql.Field{
				Type: nonNull(expenseType),
				Args: graphql.FieldConfigArgument{
					"groupId":  idArg(),
					"personId": idArg(),
					"name":     &graphql.ArgumentConfig{Type: nonNull(graphql.String)},
					"amount":   &graphql.ArgumentConfig{Type: nonNull(graphql.Int)},
				},
				Resolve: root(func(ctx context.Context, rc *service.RequestContext, a args) (interface{}, error) {
					return orNil(r.AddExpense(ctx, rc, service.AddExpenseInput{
						GroupID:  a.str("groupId"),
						PersonID: a.str("personId"),
						Name:     a.str("name"),
						Amount:   a.int("amount"),
					}))
				}),
			},
			"updateExpense": &graphql.Field{
				Type: nonNull(expenseType),
				Args: graphql.FieldConfigArgument{
					"groupId":  idArg(),
					"id":       idArg(),
					"personId": &graphql.ArgumentConfig{Type: graphql.ID},
					"name":     &graphql.ArgumentConfig{Type: graphql.String},
					"amount":   &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: root(func(ctx context.Context, rc *service.RequestContext, a args) (interface{}, error) {
					return orNil(r.UpdateExpense(ctx, rc, service.UpdateExpenseInput{
						GroupID:  a.str("groupId"),
						ID:       a.str("id"),
						PersonID: a.optStr("personId"),
						Name:     a.optStr("name"),
						Amount:   a.optInt("amount"),
					}))
				}),
			},
			"deleteExpense": &graphql.Field{
				Type: nonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{"groupId": idArg(), "id": idArg()},
				Resolve: root(func(ctx context.Context, rc *service.RequestContext, a args) (interface{}, error) {
					return r.DeleteExpense(ctx, rc, a.str("groupId"), a.str("id"))
				}),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

func nonNull(t graphql.Output) graphql.Output {
	return graphql.NewNonNull(t)
}

func listOf(t graphql.Output) graphql.Output {
	return graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t)))
}

func idArg() *graphql.ArgumentConfig {
	return &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)}
}

// field resolves a scalar straight from the parent object.
func field[T any](get func(T) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		src, ok := p.Source.(T)
		if !ok {
			return nil, nil
		}
		return get(src), nil
	}
}

// nested resolves a field through the resolver, handing it the parent.
func nested[T, R any](fn func(context.Context, *service.RequestContext, T) (R, error)) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		src, ok := p.Source.(T)
		if !ok {
			return nil, nil
		}
		out, err := fn(p.Context, requestContext(p.Context), src)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

// root adapts a root field to graphql-go.
func root(fn func(context.Context, *service.RequestContext, args) (interface{}, error)) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		return fn(p.Context, requestContext(p.Context), args(p.Args))
	}
}

// orNil keeps a typed nil pointer out of the result when err is set.
func orNil[T any](v *T, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

// args reads coerced argument values. Absent optional arguments are missing
// from the map.
type args map[string]interface{}

func (a args) str(name string) string {
	s, _ := a[name].(string)
	return s
}

func (a args) optStr(name string) *string {
	s, ok := a[name].(string)
	if !ok {
		return nil
	}
	return &s
}

func (a args) int(name string) int {
	n, _ := a[name].(int)
	return n
}

func (a args) optInt(name string) *int {
	n, ok := a[name].(int)
	if !ok {
		return nil
	}
	return &n
}

func (a args) object(name string) args {
	m, _ := a[name].(map[string]interface{})
	return args(m)
}
