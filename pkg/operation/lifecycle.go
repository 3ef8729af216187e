// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
	"github.com/walteh/replacerc/pkg/rule"
	"gitlab.com/tozd/go/errors"
)

func (o *operator) Create(opts rule.Options) (rule.Rule, error) {
	return rule.New(opts)
}

func (o *operator) ValidatePattern(pattern string, isRegex bool) rule.Validation {
	return rule.ValidatePattern(pattern, isRegex)
}

// 📥 load reads the collection a scope addresses
func (o *operator) load(ctx context.Context, scope rule.Scope, bookKey string) ([]rule.Rule, error) {
	switch scope {
	case rule.ScopeGlobal:
		rules, err := o.store.GlobalRules(ctx)
		if err != nil {
			return nil, errors.Errorf("loading library rules: %w", err)
		}
		return rules, nil
	case rule.ScopeBook, rule.ScopeSingle:
		rules, err := o.store.BookRules(ctx, bookKey)
		if err != nil {
			return nil, errors.Errorf("loading rules for book %q: %w", bookKey, err)
		}
		return rules, nil
	}
	return nil, errors.Errorf("unknown scope %q", scope)
}

// 📤 save writes the collection a scope addresses
func (o *operator) save(ctx context.Context, scope rule.Scope, bookKey string, rules []rule.Rule) error {
	var err error
	if scope == rule.ScopeGlobal {
		err = o.store.SaveGlobalRules(ctx, rules)
	} else {
		err = o.store.SaveBookRules(ctx, bookKey, rules)
	}
	if err != nil {
		return errors.Errorf("saving %s rules: %w", scope, err)
	}

	zerolog.Ctx(ctx).Debug().Str("scope", string(scope)).Str("book", bookKey).Int("rules", len(rules)).Msg("saved rules")
	return nil
}

func (o *operator) Rules(ctx context.Context, scope rule.Scope, bookKey string) ([]rule.Rule, error) {
	return o.load(ctx, scope, bookKey)
}

// idTaken reports whether id is used by the scope's collection or by the
// collection it is merged with when a book is processed. Library adds only
// see book rules when a book key is given.
func (o *operator) idTaken(ctx context.Context, scope rule.Scope, bookKey string, rules []rule.Rule, id string) (bool, error) {
	has := func(rs []rule.Rule) bool {
		return slices.ContainsFunc(rs, func(existing rule.Rule) bool { return existing.ID == id })
	}
	if has(rules) {
		return true, nil
	}

	var (
		other []rule.Rule
		err   error
	)
	switch {
	case scope != rule.ScopeGlobal:
		other, err = o.store.GlobalRules(ctx)
	case bookKey != "":
		other, err = o.store.BookRules(ctx, bookKey)
		if errors.Is(err, rule.ErrBookNotFound) {
			return false, nil
		}
	}
	if err != nil {
		return false, errors.Errorf("checking rule id %s: %w", id, err)
	}
	return has(other), nil
}

func (o *operator) Add(ctx context.Context, scope rule.Scope, bookKey string, r rule.Rule) (rule.Rule, error) {
	rules, err := o.load(ctx, scope, bookKey)
	if err != nil {
		return rule.Rule{}, err
	}

	// the scope decides where the rule lives
	r.Global = scope == rule.ScopeGlobal
	r.SingleInstance = scope == rule.ScopeSingle

	if v := rule.ValidatePattern(r.Pattern, r.IsRegex); !v.Valid {
		return rule.Rule{}, v.Err
	}

	if r.ID == "" {
		return rule.Rule{}, errors.Errorf("adding to %s scope: %w", scope, rule.ErrMissingID)
	}
	taken, err := o.idTaken(ctx, scope, bookKey, rules, r.ID)
	if err != nil {
		return rule.Rule{}, err
	}
	if taken {
		return rule.Rule{}, errors.Errorf("adding rule %s to %s scope: %w", r.ID, scope, rule.ErrDuplicateID)
	}

	stored := r
	merged := false
	if !r.SingleInstance {
		for i, existing := range rules {
			if existing.SingleInstance || existing.Pattern != r.Pattern || existing.IsRegex != r.IsRegex {
				continue
			}
			rules[i].Replacement = r.Replacement
			rules[i].Enabled = r.Enabled
			rules[i].Order = r.Order
			stored = rules[i]
			merged = true
			break
		}
	}
	if !merged {
		rules = append(rules, r)
	}

	if err := o.save(ctx, scope, bookKey, rules); err != nil {
		return rule.Rule{}, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("rule_id", stored.ID).
		Str("scope", string(scope)).
		Bool("merged", merged).
		Msg("added rule")

	return stored, nil
}

// 🔍 find locates a rule by id in a collection
func find(rules []rule.Rule, scope rule.Scope, ruleID string) (int, error) {
	i := slices.IndexFunc(rules, func(r rule.Rule) bool { return r.ID == ruleID })
	if i < 0 {
		return -1, errors.Errorf("rule %s in %s scope: %w", ruleID, scope, rule.ErrRuleNotFound)
	}
	return i, nil
}

func (o *operator) Remove(ctx context.Context, scope rule.Scope, bookKey, ruleID string) error {
	rules, err := o.load(ctx, scope, bookKey)
	if err != nil {
		return err
	}

	i, err := find(rules, scope, ruleID)
	if err != nil {
		return err
	}

	return o.save(ctx, scope, bookKey, slices.Delete(rules, i, i+1))
}

func (o *operator) Update(ctx context.Context, scope rule.Scope, bookKey, ruleID string, patch rule.Patch) (rule.Rule, error) {
	rules, err := o.load(ctx, scope, bookKey)
	if err != nil {
		return rule.Rule{}, err
	}

	i, err := find(rules, scope, ruleID)
	if err != nil {
		return rule.Rule{}, err
	}

	updated, err := patch.Apply(rules[i])
	if err != nil {
		return rule.Rule{}, errors.Errorf("updating rule %s: %w", ruleID, err)
	}
	rules[i] = updated

	if err := o.save(ctx, scope, bookKey, rules); err != nil {
		return rule.Rule{}, err
	}
	return updated, nil
}

func (o *operator) Toggle(ctx context.Context, scope rule.Scope, bookKey, ruleID string) (rule.Rule, error) {
	rules, err := o.load(ctx, scope, bookKey)
	if err != nil {
		return rule.Rule{}, err
	}

	i, err := find(rules, scope, ruleID)
	if err != nil {
		return rule.Rule{}, err
	}
	rules[i].Enabled = !rules[i].Enabled

	if err := o.save(ctx, scope, bookKey, rules); err != nil {
		return rule.Rule{}, err
	}
	return rules[i], nil
}

func (o *operator) MergedRules(ctx context.Context, bookKey string) ([]rule.Rule, error) {
	global, err := o.load(ctx, rule.ScopeGlobal, "")
	if err != nil {
		return nil, err
	}
	book, err := o.load(ctx, rule.ScopeBook, bookKey)
	if err != nil {
		return nil, err
	}
	return rule.Merge(global, book), nil
}
