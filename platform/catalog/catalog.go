// Package catalog supplies problems (starter code plus test cases) to the grader.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/robbyt/go-polygrade/platform"
)

var (
	ErrProblemNotFound = errors.New("problem not found")
	ErrInvalidProblem  = errors.New("invalid problem")
)

// Problem is one catalog entry.
type Problem struct {
	ID          string              `json:"id"           yaml:"id"           validate:"required"`
	Title       string              `json:"title"        yaml:"title"`
	Language    string              `json:"language"     yaml:"language"     validate:"omitempty,oneof=starlark risor"`
	StarterCode string              `json:"starter_code" yaml:"starter_code"`
	TestCases   []platform.TestCase `json:"test_cases"   yaml:"test_cases"   validate:"required,min=1"`
}

// Provider looks problems up by ID.
type Provider interface {
	GetProblem(ctx context.Context, id string) (*Problem, error)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks the problem's required fields.
func (p *Problem) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidProblem, p.ID, err)
	}
	return nil
}

// StaticProvider serves problems from memory.
type StaticProvider struct {
	problems map[string]*Problem
}

// NewStaticProvider validates and indexes problems. Duplicate IDs are an error.
func NewStaticProvider(problems ...*Problem) (*StaticProvider, error) {
	p := &StaticProvider{problems: make(map[string]*Problem, len(problems))}
	for _, problem := range problems {
		if problem == nil {
			return nil, fmt.Errorf("%w: nil problem", ErrInvalidProblem)
		}
		if err := problem.Validate(); err != nil {
			return nil, err
		}
		if _, dup := p.problems[problem.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidProblem, problem.ID)
		}
		p.problems[problem.ID] = problem
	}
	return p, nil
}

func (p *StaticProvider) GetProblem(_ context.Context, id string) (*Problem, error) {
	problem, ok := p.problems[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProblemNotFound, id)
	}
	return problem, nil
}

// IDs lists the known problem IDs in no particular order.
func (p *StaticProvider) IDs() []string {
	ids := make([]string, 0, len(p.problems))
	for id := range p.problems {
		ids = append(ids, id)
	}
	return ids
}

// CompositeProvider asks each provider in turn, moving on only when a provider does not
// know the problem. Any other error stops the lookup.
type CompositeProvider struct {
	providers []Provider
}

func NewCompositeProvider(providers ...Provider) *CompositeProvider {
	return &CompositeProvider{providers: providers}
}

func (c *CompositeProvider) GetProblem(ctx context.Context, id string) (*Problem, error) {
	for _, p := range c.providers {
		problem, err := p.GetProblem(ctx, id)
		switch {
		case err == nil:
			return problem, nil
		case errors.Is(err, ErrProblemNotFound):
			continue
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrProblemNotFound, id)
}
