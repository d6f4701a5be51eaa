// Package vm implements the value representation and memory management
// core of the corvid runtime: fixed-size tagged value handles, a
// reference-counted heap arena with a trial-deletion cycle collector,
// and a refcounted atom table for interned strings.
//
// Values come in three selectable physical layouts chosen at build time.
// The default is a two-word struct; the corvid_nanbox tag selects a
// single-word NaN-boxed encoding; the corvid_checked tag makes owning
// and borrowed handles distinct types so flavor misuse fails to compile.
// All three expose the same API and the same observable behavior.
//
// Ownership is explicit. A Value is an owning handle that the holder
// must release exactly once with Free or hand off to a consuming
// operation; a Const is a borrowed handle that must not outlive its
// source. Inspectors take Const; constructors and Dup return Value.
package vm
