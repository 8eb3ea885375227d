// Package schema parses compact schema expressions and validates untyped data
// against them.
//
// A schema is written in YAML. Scalars are expressions, mappings are objects and
// sequences are arrays:
//
//	name?str&default="world": your name
//	age?int&min=0&max=150&optional: age in years
//	user@user: a shared definition
//	tags:
//	    - "&minlen=1&unique"
//	    - str
//	address:
//	    $self: "&optional&desc=postal address"
//	    city?str: city
//
// An expression is [name][?validator|@shared](&key[=value])*. Values are JSON
// literals; anything that does not decode as JSON is taken as a string and a key
// without value means true. The keys optional, default and desc are understood
// by every validator.
//
// Validation coerces values (numbers and booleans may arrive as strings from
// form bodies), fills defaults, drops unknown object keys and reports the first
// failure as an *Invalid carrying the path of the offending value.
package schema
