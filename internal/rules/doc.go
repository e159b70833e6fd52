// Package rules holds the declarative ignore-rule engine.
//
// A rule set describes which parts of a package are known producer noise
// (timestamps, application versions, calc chains) and which parts are
// legitimately reorder-tolerant (shared strings, style records,
// relationship lists). Rules are data, not code: the differ never needs to
// change when a new volatile element shows up - a new rule does.
//
// Rules are evaluated in declaration order and the first match wins. A
// rule set is loaded once and immutable afterwards, which is what makes
// concurrent comparisons safe without locking.
package rules
