// Package bytecode provides a register-based compiler and virtual machine
// for a small subset of a dynamic scripting language.
//
// # Architecture Overview
//
//   - Opcodes: a closed set of register instructions (LOAD, BIND and the
//     two-register arithmetic family ADD, SUB, MUL, DIV, MOD)
//
//   - Program: the ordered Instruction sequence produced by one compile
//     pass. Programs are immutable and can be run any number of times.
//
//   - Compiler: walks an ast.Tree depth first. Every compile call receives
//     the base register its result must land in; a binary operator puts its
//     left operand in base, its right operand in base+1 and combines them
//     into base. An expression whose right spine is deeper than the register
//     file fails with ErrRegisterOverflow instead of wrapping.
//
//   - VM: executes a Program against a fixed register file and a
//     realm.Environment. The value left in register 0 is the result.
//
// # Register Clearing
//
// Every instruction that consumes a register resets it to undefined before
// storing its result, so no register keeps a reference to a value that has
// already been handed on to an operation or an environment.
//
// # Bindings
//
// BIND declares a new mutable function-scoped binding the first time a name
// is seen and assigns to the existing binding afterwards. Faults stop the
// run but leave earlier bindings committed.
package bytecode
