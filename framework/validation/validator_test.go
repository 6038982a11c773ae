package validation_test

import (
	"errors"
	"testing"

	"github.com/km-arc/go-boot/framework/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

// pass asserts the validator passes for the given data/rules.
func pass(t *testing.T, label string, data map[string]string, rules validation.Rules) {
	t.Helper()
	t.Run(label, func(t *testing.T) {
		v := validation.Make(data, rules)
		if v.Fails() {
			t.Errorf("expected PASS, got FAIL, errors: %+v", v.Errors().Bag)
		}
	})
}

// fail asserts the validator fails with an error on the given field.
func fail(t *testing.T, label, field string, data map[string]string, rules validation.Rules) {
	t.Helper()
	t.Run(label, func(t *testing.T) {
		v := validation.Make(data, rules)
		if v.Passes() {
			t.Errorf("expected FAIL on field %q, but validator PASSED", field)
		}
		if v.Errors().First(field) == "" {
			t.Errorf("expected error on field %q, but none found. Errors: %+v", field, v.Errors().Bag)
		}
	})
}

// ── required / nullable ──────────────────────────────────────────────────────

func TestValidation_Required(t *testing.T) {
	r := validation.Rules{"id": "required"}

	pass(t, "non-empty value", map[string]string{"id": "cat"}, r)
	fail(t, "empty string", "id", map[string]string{"id": ""}, r)
	fail(t, "whitespace only", "id", map[string]string{"id": "   "}, r)
	fail(t, "missing key", "id", map[string]string{}, r)
}

func TestValidation_Required_MessageFormat(t *testing.T) {
	v := validation.Make(map[string]string{"id": ""}, validation.Rules{"id": "required"})
	_ = v.Fails()
	msg := v.Errors().First("id")
	expected := "The id field is required."
	if msg != expected {
		t.Errorf("message: got %q want %q", msg, expected)
	}
}

func TestValidation_Nullable(t *testing.T) {
	r := validation.Rules{"scope": "nullable|in:singleton,request"}

	pass(t, "empty skips the rest", map[string]string{"scope": ""}, r)
	pass(t, "allowed value", map[string]string{"scope": "request"}, r)
	fail(t, "disallowed value", "scope", map[string]string{"scope": "session"}, r)
}

// ── exclusive fields ─────────────────────────────────────────────────────────

func TestValidation_ExactlyOne(t *testing.T) {
	r := validation.Rules{
		"class":    "required_without:provider|prohibited_with:provider",
		"provider": "required_without:class",
	}

	pass(t, "class only", map[string]string{"class": "Cat"}, r)
	pass(t, "provider only", map[string]string{"provider": "clock"}, r)
	fail(t, "neither", "class", map[string]string{}, r)
	fail(t, "both", "class", map[string]string{"class": "Cat", "provider": "clock"}, r)
}

// ── formats ──────────────────────────────────────────────────────────────────

func TestValidation_AlphaDash(t *testing.T) {
	r := validation.Rules{"id": "alpha_dash"}

	pass(t, "letters and dashes", map[string]string{"id": "log-service_2"}, r)
	fail(t, "colon", "id", map[string]string{"id": "zoo:cat"}, r)
	fail(t, "space", "id", map[string]string{"id": "log service"}, r)
}

func TestValidation_Identifier(t *testing.T) {
	r := validation.Rules{"init": "nullable|identifier"}

	pass(t, "method name", map[string]string{"init": "Setup"}, r)
	pass(t, "absent", map[string]string{}, r)
	fail(t, "leading digit", "init", map[string]string{"init": "1Setup"}, r)
}

func TestValidation_InCaseInsensitive(t *testing.T) {
	r := validation.Rules{"scope": "in_ci:singleton,request,prototype"}

	pass(t, "upper case", map[string]string{"scope": "Singleton"}, r)
	fail(t, "unknown", "scope", map[string]string{"scope": "global"}, r)
}

func TestValidation_MinMax(t *testing.T) {
	r := validation.Rules{"id": "min:2|max:5"}

	pass(t, "in range", map[string]string{"id": "cat"}, r)
	fail(t, "too short", "id", map[string]string{"id": "c"}, r)
	fail(t, "too long", "id", map[string]string{"id": "catdog"}, r)
}

func TestValidation_UnknownRuleFails(t *testing.T) {
	v := validation.Make(map[string]string{"id": "cat"}, validation.Rules{"id": "requird"})
	if v.Passes() {
		t.Error("unknown rule should fail validation")
	}
}

func TestValidation_OnlyListedRulesAreSupported(t *testing.T) {
	for _, rule := range []string{"integer", "not_in:a,b", "regex:^c"} {
		fail(t, rule, "id", map[string]string{"id": "cat"}, validation.Rules{"id": rule})
	}
}

// ── error bag ────────────────────────────────────────────────────────────────

func TestValidate_ReturnsBag(t *testing.T) {
	v := validation.Make(map[string]string{"id": ""}, validation.Rules{
		"id":    "required",
		"scope": "in:singleton",
	})
	err := v.Validate()

	var bag *validation.Errors
	if !errors.As(err, &bag) {
		t.Fatalf("expected *validation.Errors, got %T", err)
	}
	got := bag.Messages()
	want := []string{"The id field is required.", "The selected scope is invalid."}
	if len(got) != len(want) {
		t.Fatalf("messages: got %q want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestValidate_NilWhenValid(t *testing.T) {
	v := validation.Make(map[string]string{"id": "cat"}, validation.Rules{"id": "required"})
	if err := v.Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
