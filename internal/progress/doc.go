// Package progress models a video's watch state as a fixed number of equally sized segments.
//
// A [Segments] store holds one watched flag per segment. Flags only ever move from false to true,
// so progress recorded in a session can't be lost by a later seek backwards or a reload.
//
// [Compute] derives the aggregate percentage from the flags and [Segments.Reconcile] resolves the
// starting state once from the server's percentage and the persisted client snapshot:
//
//  1. server reports 100 : every segment watched, snapshot persisted immediately
//  2. snapshot present   : adopted verbatim (the server may lag behind the client)
//  3. server reports > 0 : watched prefix of floor(p/100 × N) segments
//  4. otherwise          : nothing watched
package progress
