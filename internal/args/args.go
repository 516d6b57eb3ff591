// Package args reconciles the raw token stream of the run command: it splits
// flag-set-bound tokens from passthrough, and resolves descriptor flags into
// config overrides for the engine.
package args

import (
	"strings"

	"github.com/spf13/pflag"

	"snk/internal/codec"
	"snk/internal/options"
)

// Override is one resolved config override. For a nested original key the
// Key is the top-level segment and the Value the re-nested remainder.
type Override struct {
	Key   string
	Value any
}

// Reconcile scans the residual token stream left to right. Tokens matching a
// descriptor flag consume the following token as the value; values equal to
// the descriptor's default are dropped. Everything else, including unmatched
// flags and their values, passes through to the engine verbatim and in order.
//
// Boolean descriptors never reach this scanner: they take no value token and
// are bound by the flag set instead.
//
// The returned set records which descriptors received a value, whether or
// not an override was emitted for them.
func Reconcile(tokens []string, descriptors []options.Descriptor) (passthrough []string, overrides []Override, seen map[string]bool, err error) {
	byName := make(map[string]*options.Descriptor, len(descriptors))
	for i := range descriptors {
		byName[descriptors[i].Name] = &descriptors[i]
	}

	passthrough = []string{}
	overrides = []Override{}
	seen = make(map[string]bool)

	var pending *options.Descriptor
	for _, token := range tokens {
		if pending != nil {
			override, changed, err := resolve(pending, token)
			if err != nil {
				return nil, nil, nil, err
			}
			if changed {
				overrides = append(overrides, override)
			}
			pending = nil
			continue
		}

		if name, value, hasValue, ok := flagName(token); ok {
			if d, match := byName[name]; match && !d.Bool() {
				seen[d.Name] = true
				if hasValue {
					override, changed, err := resolve(d, value)
					if err != nil {
						return nil, nil, nil, err
					}
					if changed {
						overrides = append(overrides, override)
					}
					continue
				}
				pending = d
				continue
			}
		}

		passthrough = append(passthrough, token)
	}
	return passthrough, overrides, seen, nil
}

// resolve turns a raw value token into an override, reporting changed=false
// when the value serializes equal to the descriptor's default.
func resolve(d *options.Descriptor, raw string) (Override, bool, error) {
	defaultString, err := codec.Format(d.Default)
	if err != nil {
		return Override{}, false, err
	}
	if raw == defaultString {
		return Override{}, false, nil
	}
	return MakeOverride(*d, codec.Coerce(raw)), true, nil
}

// MakeOverride builds the engine-facing override for a descriptor. Delimited
// original keys are re-nested so the override key is a plain top-level
// identifier.
func MakeOverride(d options.Descriptor, value any) Override {
	if strings.Contains(d.OriginalKey, codec.Delimiter) {
		nested := codec.UnflattenKey(d.OriginalKey, value)
		top := d.OriginalKey[:strings.Index(d.OriginalKey, codec.Delimiter)]
		return Override{Key: top, Value: nested[top]}
	}
	return Override{Key: d.Name, Value: value}
}

// flagName strips the flag prefix from a token. The second return carries an
// inline "=value" when present.
func flagName(token string) (name, value string, hasValue, ok bool) {
	if !strings.HasPrefix(token, "-") || token == "-" || token == "--" {
		return "", "", false, false
	}
	name = strings.TrimLeft(token, "-")
	if i := strings.Index(name, "="); i >= 0 {
		return name[:i], name[i+1:], true, true
	}
	return name, "", false, true
}

// Split partitions the raw run arguments into tokens the flag set parses
// (static run flags plus boolean descriptor flags) and the residual stream
// handed to Reconcile. manual names flags registered on the set that the
// scanner resolves instead.
func Split(tokens []string, fs *pflag.FlagSet, manual map[string]bool) (bound, residual []string) {
	bound = []string{}
	residual = []string{}

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		flag, inline := lookup(fs, token)
		if flag == nil || manual[flag.Name] {
			residual = append(residual, token)
			continue
		}

		bound = append(bound, token)
		if inline || flag.Value.Type() == "bool" {
			continue
		}
		// Value-taking flag: the next token belongs to it.
		if i+1 < len(tokens) {
			i++
			bound = append(bound, tokens[i])
		}
	}
	return bound, residual
}

// lookup resolves a token to a registered flag, handling --name, --name=v
// and -s shorthand forms.
func lookup(fs *pflag.FlagSet, token string) (flag *pflag.Flag, inline bool) {
	if !strings.HasPrefix(token, "-") || token == "-" || token == "--" {
		return nil, false
	}

	name := token
	if i := strings.Index(token, "="); i >= 0 {
		name = token[:i]
		inline = true
	}

	if strings.HasPrefix(name, "--") {
		return fs.Lookup(name[2:]), inline
	}
	// Shorthand: only single-letter forms resolve; combined shorthand is
	// left to the residual stream.
	if len(name) == 2 {
		return fs.ShorthandLookup(name[1:]), inline
	}
	return nil, false
}
