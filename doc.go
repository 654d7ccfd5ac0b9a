/*
Package breadboard evaluates logic circuits described as plain node and
connection lists.

A circuit is a snapshot: nodes (gates, terminals, pin bars and module
instances) plus directed single-bit connections between pin positions.
Evaluate turns such a snapshot, a library of module definitions and the
previous pass's result into a fresh result mapping every node to its output
bits.

Feedback loops are legal and useful. Nodes on a loop are evaluated against a
frozen snapshot of the previous pass, so each call to Evaluate advances every
loop by exactly one step, like a network of gates clocked by the caller.
Acyclic parts of the circuit always settle within the pass.

The engine is a pure function of its inputs: it keeps no state between calls
and never mutates its arguments. State, when wanted, lives in the caller, as
the board package does for interactive editing.
*/
package breadboard
