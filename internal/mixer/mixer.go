// Package mixer turns drink orders like "please two gin and tonic" into an
// ingredient list.
//
// Every rule consumes the words it understands and records what it saw in
// the mixer's current order, so a phrase is fully understood when the
// engine has reduced it to whitespace.
package mixer

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/roach88/rewrite/internal/engine"
	"github.com/roach88/rewrite/internal/pattern"
)

// Ingredient is one line of an order.
type Ingredient struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

// Order is the result of mixing a phrase.
type Order struct {
	Ingredients []Ingredient `json:"ingredients"`
}

// String renders the order as "2 gin, 1 tonic".
func (o Order) String() string {
	parts := make([]string, len(o.Ingredients))
	for i, ing := range o.Ingredients {
		parts[i] = strconv.Itoa(ing.Amount) + " " + ing.Name
	}
	return strings.Join(parts, ", ")
}

const (
	single      = `(?:one|an?|single)`
	double      = `(?:double|twice|two)`
	triple      = `(?:triple|three)`
	conjunction = `\b(?:with|and)\b`
	ingredient  = `\w+`
)

// Mixer interprets drink orders. It is safe for concurrent use; calls to
// Mix are serialized.
type Mixer struct {
	mu     sync.Mutex
	engine *engine.Engine
	order  Order
}

// New builds a mixer. Engine options (tracing, limits, logger) are passed
// through to the underlying engine.
func New(opts ...engine.Option) *Mixer {
	m := &Mixer{}
	opts = append([]engine.Option{engine.WithName("mixer")}, opts...)
	m.engine = engine.New(m.rules(), opts...)
	return m
}

// Engine returns the underlying engine.
func (m *Mixer) Engine() *engine.Engine { return m.engine }

// Mix interprets phrase and returns the ingredients it named, in order.
func (m *Mixer) Mix(ctx context.Context, phrase string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order = Order{}
	if _, err := m.engine.Execute(ctx, phrase); err != nil {
		return Order{}, err
	}
	return m.order, nil
}

func (m *Mixer) rules() []engine.Rule {
	opt := engine.PatternOptions(pattern.WithEngine(pattern.EngineBacktrack), pattern.WithIgnoreCase())
	return []engine.Rule{
		engine.MustRule("request", `\bplease\b`+pattern.Space, consume, opt),
		engine.MustRule("conjunction", conjunction+pattern.Space, consume, opt),
		engine.MustRule("double", `^\s*`+double+`\s+(`+ingredient+`)\s*`, m.add(2), opt),
		engine.MustRule("triple", `^\s*`+triple+`\s+(`+ingredient+`)\s*`, m.add(3), opt),
		engine.MustRule("single", `^\s*`+single+`\s+(`+ingredient+`)\s*`, m.add(1), opt),
		engine.MustRule("ingredient", `^\s*(`+ingredient+`)\s*`, m.add(1), opt),
	}
}

func consume(_ *engine.Scope, _ []pattern.Match) engine.Result {
	return engine.Changed("")
}

func (m *Mixer) add(amount int) engine.Action {
	return func(_ *engine.Scope, ms []pattern.Match) engine.Result {
		name := strings.ToLower(ms[0].Group(0))
		m.order.Ingredients = append(m.order.Ingredients, Ingredient{Name: name, Amount: amount})
		return engine.Changed("")
	}
}
