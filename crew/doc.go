// Package crew runs small sequences of tasks under a shared span, with
// each task's output feeding the next task's input. The reasoning step is
// a pluggable Engine; the default engine invokes tool bodies directly.
package crew
