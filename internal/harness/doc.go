// Package harness drives functional test cases end to end: invoke an
// external generator executable, locate its candidate output and the
// matching reference fixture, and run the package comparison.
//
// The naming convention follows the generator suite: test case
// "test_chart_bar01" runs the executable of the same name, which writes
// "test_chart_bar01.xlsx" into the working directory, compared against the
// reference fixture "chart_bar01.xlsx". Every piece of the convention is
// an explicit, overridable field on TestCase rather than implicit string
// concatenation, so one generator's output can be checked against a
// differently-named reference.
//
// Generator failure (nonzero exit, or no candidate file produced) is a
// distinct outcome from a content mismatch: triage needs to separate
// "generator crashed" from "generator produced wrong output".
package harness
