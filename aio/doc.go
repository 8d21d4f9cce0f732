// Package aio bridges interrupt-driven peripherals to awaitable operations.
//
// Each peripheral resource statically owns one Op per operation direction.
// Task code arms the Op and receives a Future; the peripheral's interrupt
// handler calls Finish, which publishes the result and notifies the wake
// Cell; the next Poll observes the completed result. The interrupt path
// never allocates, never blocks, and tolerates firing when no operation is
// outstanding (absorbed as spurious and counted).
//
// At most one operation may be outstanding per Op; arming a non-idle Op
// fails with errcode.Busy. Abandoning a Future cancels its operation and
// disables the completion interrupt in the same step, so a later unrelated
// arm never observes a stale completion.
package aio
