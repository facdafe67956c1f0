// Package scoring decides whether a generated causal or stock-and-flow model
// satisfies its ground truth.
//
// Every check is a pure function of a model.Model and one expectation shape
// and returns an ordered []model.Failure; an empty result is a pass. Inputs
// are copied before they are sorted or normalized, nothing is cached between
// calls and all functions are safe for concurrent use.
package scoring
