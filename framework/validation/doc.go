// Package validation checks flat string maps against pipe-separated rules.
// The manifest loader uses it to validate definition entries before binding.
//
//	v := validation.Make(map[string]string{
//	    "id":    "logService",
//	    "scope": "singleton",
//	}, validation.Rules{
//	    "id":    "required|alpha_dash",
//	    "scope": "nullable|in_ci:singleton,request,prototype",
//	})
//	if err := v.Validate(); err != nil {
//	    // err is *validation.Errors
//	}
//
// # Rules
//
//   - required: non-empty after trimming
//   - nullable: an empty value skips the remaining rules
//   - required_without:other: required when other is empty
//   - prohibited_with:other: must be empty when other is set
//   - min:n, max:n
//   - in:a,b / in_ci:a,b (case-insensitive)
//   - alpha_dash, identifier (Go identifier)
//
// Rules run in order and stop at the first failure of a field. Unknown
// rules fail, so a typo never validates silently.
package validation
