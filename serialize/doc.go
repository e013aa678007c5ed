// Package serialize implements functionality to render numeric arrays as
// Lua table literals and write them to disk as Lua modules.
//
// Each rendered module has the form
//
//	return {...}
//
// where numbers are written in fixed-point notation with at most six
// fractional digits. Non-finite values are never written.
package serialize
