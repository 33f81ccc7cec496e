// Package errors provides coded, actionable errors for the ango CLI.
//
// Each error has a code (e.g. "A003") that maps to a registered template
// with a category, a short message and a longer explanation. Errors from
// the library packages are mapped to codes by Classify:
//
//	err := errors.Classify(doc.DecodeFile(path))
//	errors.Fprint(os.Stderr, err)
//	// ERROR A003: Invalid tree document
//	//
//	//   tree.yaml:4:5
//	//
//	//      3 │   - tag: p
//	//   →  4 │   - [x]
//	//        │     ^
//	//
//	//   A tree document decoded but does not describe a tree.
//	//
//	//   Hint: Every node needs exactly one of tag, component or text.
package errors
