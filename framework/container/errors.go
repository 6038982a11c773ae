package container

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes shared by every container error.
const (
	CodeCommon             = "AUTOWIRED_10000"
	CodeMissingResolver    = "AUTOWIRED_10001"
	CodeDefinitionNotFound = "AUTOWIRED_10002"
	CodeSingletonInject    = "AUTOWIRED_10003"
	CodeUseWrongMethod     = "AUTOWIRED_10004"
	CodeDuplicateClassName = "AUTOWIRED_10005"
	CodeInvalidConfig      = "AUTOWIRED_10006"
)

// Sentinels for errors.Is.
var (
	ErrDefinitionNotFound = errors.New("definition not found")
	ErrScopeSafety        = errors.New("singleton holds request scoped dependency")
	ErrResolverMissing    = errors.New("resolver missing")
	ErrUseWrongMethod     = errors.New("wrong resolution method")
	ErrDuplicateClassName = errors.New("duplicate class name")
	ErrInvalidConfig      = errors.New("invalid config")
	ErrNotReady           = errors.New("deferred object is not ready")
)

// Coded is implemented by every error raised by the container.
type Coded interface {
	error
	Code() string
}

// ── DefinitionNotFoundError ───────────────────────────────────────────────────

// DefinitionNotFoundError means nothing in the container chain can build
// Identifier. Classes lists the owning classes the lookup happened in,
// innermost first.
type DefinitionNotFoundError struct {
	Identifier string
	Classes    []string
}

func (e *DefinitionNotFoundError) Error() string {
	var b strings.Builder
	b.WriteString(e.Identifier)
	for _, c := range e.Classes {
		b.WriteString(" in class ")
		b.WriteString(c)
	}
	b.WriteString(" is not valid in current context")
	return b.String()
}

func (e *DefinitionNotFoundError) Code() string         { return CodeDefinitionNotFound }
func (e *DefinitionNotFoundError) Is(target error) bool { return target == ErrDefinitionNotFound }

func (e *DefinitionNotFoundError) annotate(class string) {
	e.Classes = append(e.Classes, class)
}

// ── ScopeSafetyError ──────────────────────────────────────────────────────────

// ScopeSafetyError is raised when a singleton declares a direct reference to
// a request scoped definition that does not allow downgrade.
type ScopeSafetyError struct {
	Singleton string
	Request   string
}

func (e *ScopeSafetyError) Error() string {
	return fmt.Sprintf(
		"%s with singleton scope can't implicitly inject %s with request scope directly, "+
			"declare %s with AllowDowngrade() or resolve it from a request container",
		e.Singleton, e.Request, e.Request)
}

func (e *ScopeSafetyError) Code() string         { return CodeSingletonInject }
func (e *ScopeSafetyError) Is(target error) bool { return target == ErrScopeSafety }

// ── ResolverMissingError ──────────────────────────────────────────────────────

// ResolverMissingError means a reference uses a tag no resolver serves.
type ResolverMissingError struct {
	Type string
}

func (e *ResolverMissingError) Error() string        { return e.Type + " resolver is not exists!" }
func (e *ResolverMissingError) Code() string         { return CodeMissingResolver }
func (e *ResolverMissingError) Is(target error) bool { return target == ErrResolverMissing }

// ── UseWrongMethodError ───────────────────────────────────────────────────────

// UseWrongMethodError is raised when an async-only definition is resolved
// through the sync path.
type UseWrongMethodError struct {
	Wrong       string
	Replacement string
	Key         string
}

func (e *UseWrongMethodError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s not valid by %s, Use %s instead!", e.Key, e.Wrong, e.Replacement)
	}
	return fmt.Sprintf("You should not invoked by %s, Use %s instead!", e.Wrong, e.Replacement)
}

func (e *UseWrongMethodError) Code() string         { return CodeUseWrongMethod }
func (e *UseWrongMethodError) Is(target error) bool { return target == ErrUseWrongMethod }

// ── DuplicateClassNameError ───────────────────────────────────────────────────

// DuplicateClassNameError reports two sources declaring the same class name.
type DuplicateClassNameError struct {
	Name      string
	ExistPath string
	OtherPath string
}

func (e *DuplicateClassNameError) Error() string {
	return fmt.Sprintf("%q duplicated between %q and %q", e.Name, e.ExistPath, e.OtherPath)
}

func (e *DuplicateClassNameError) Code() string         { return CodeDuplicateClassName }
func (e *DuplicateClassNameError) Is(target error) bool { return target == ErrDuplicateClassName }

// ── InvalidConfigError ────────────────────────────────────────────────────────

// InvalidConfigError reports a definition source that cannot be bound.
type InvalidConfigError struct {
	Source  string
	Reasons []string
}

func (e *InvalidConfigError) Error() string {
	return "Invalid config " + e.Source + "\n" + strings.Join(e.Reasons, "\n")
}

func (e *InvalidConfigError) Code() string         { return CodeInvalidConfig }
func (e *InvalidConfigError) Is(target error) bool { return target == ErrInvalidConfig }

// ── CreateError ───────────────────────────────────────────────────────────────

// CreateError wraps a failure raised by user code while building ID.
// Op is one of construct, inject, handle, init or destroy.
type CreateError struct {
	ID  string
	Op  string
	Err error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("container: %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *CreateError) Code() string  { return CodeCommon }
func (e *CreateError) Unwrap() error { return e.Err }

// wrapCreate leaves container errors untouched so the innermost failing edge
// stays visible, and wraps anything else in a CreateError.
func wrapCreate(id, op string, err error) error {
	if err == nil {
		return nil
	}
	var coded Coded
	if errors.As(err, &coded) {
		return err
	}
	return &CreateError{ID: id, Op: op, Err: err}
}
