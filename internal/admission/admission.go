// Package admission decides whether a new adoption request may be created.
//
// Eligibility policy is a list of Rule values held by a Chain. New policy is
// added by registering another Rule; the chain itself never changes.
package admission

import (
	"context"
	"errors"
	"fmt"

	"adopet/internal/domain"
)

// Candidate is a proposed adoption request that has not been persisted.
type Candidate struct {
	PetID   string
	TutorID string
	Reason  string
}

// Rule is a single admission check. Validate returns nil to admit the
// candidate, a *Violation to refuse it, or any other error when the check
// itself could not run.
type Rule interface {
	Name() string
	Validate(ctx context.Context, c Candidate) error
}

// Violation is the refusal reported by one rule.
type Violation struct {
	Rule   string
	Reason string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Reason)
}

func violation(rule, reason string) error {
	return &Violation{Rule: rule, Reason: reason}
}

// Chain runs every registered rule against a candidate.
type Chain struct {
	rules []Rule
}

func NewChain(rules ...Rule) *Chain {
	c := &Chain{}
	for _, r := range rules {
		c.Register(r)
	}
	return c
}

// Register appends r to the chain; nil rules are ignored.
func (c *Chain) Register(r Rule) {
	if r == nil {
		return
	}
	c.rules = append(c.rules, r)
}

// Names lists registered rules in evaluation order.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		names = append(names, r.Name())
	}
	return names
}

// Run evaluates all rules and aggregates every violation into a single
// *domain.ValidationError. A non-violation error aborts the run.
func (c *Chain) Run(ctx context.Context, cand Candidate) error {
	var reasons []string
	for _, r := range c.rules {
		err := r.Validate(ctx, cand)
		if err == nil {
			continue
		}
		var v *Violation
		if !errors.As(err, &v) {
			return fmt.Errorf("rule %s: %w", r.Name(), err)
		}
		reasons = append(reasons, v.Reason)
	}
	if len(reasons) > 0 {
		return domain.NewValidationError(reasons...)
	}
	return nil
}
