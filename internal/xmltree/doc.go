// Package xmltree parses XML package entries into namespace-resolved node
// trees and canonicalizes them for comparison.
//
// Two producers never serialize the same spreadsheet identically: attribute
// order, namespace prefix spelling, numeric formatting, and insignificant
// whitespace all vary without changing meaning. Canonicalization strips
// that variation so the differ only sees semantic structure:
//
//   - element and attribute names are resolved to (namespace URI, local
//     name) pairs; prefix spelling is discarded at parse time
//   - attributes are sorted by resolved name
//   - text that parses as a floating-point number is re-serialized to a
//     single canonical form ("1", "1.0" and "1.00000" become equal)
//   - insignificant whitespace is collapsed; elements whose only children
//     are whitespace text nodes become empty elements
//
// Canonicalization is idempotent: canonicalizing a canonical tree is a
// no-op. Child element order is preserved - whether order is semantic for
// a given part is the rule engine's decision, not the canonicalizer's.
package xmltree
