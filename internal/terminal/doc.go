// Package terminal multiplexes shell sessions over a process backend.
//
// A Multiplexer owns an ordered list of Sessions shown as tabs, with one
// active tab. Each Session wraps one backend shell process:
//
//	Spawning -> Ready -> Closed
//	Spawning -> Errored
//	Ready    -> Errored
//
// Sessions are addressed by a local key ("term-0", "term-1", ...) assigned
// when the spawn is requested; the backend id arrives later. Input written
// before the session is Ready is buffered and delivered in order once it
// is. Output, exit and error notifications are pushed by the backend and
// re-enter the owning loop; nothing is delivered for a session after it was
// closed.
//
// The Backend interface abstracts the process layer. ptybackend implements
// it with real pseudo-terminals.
package terminal
