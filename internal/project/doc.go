// Package project manages projects and their tasks, scoped to the owning
// account.
//
// Every lookup is owner-scoped in a single query: a project that does not
// exist and a project owned by someone else both produce ErrNotFound, so a
// caller cannot probe for other tenants' IDs. Tasks have no owner column;
// a task is reachable only through a project the caller owns.
//
// Mutations run the owner-scoped lookup and the write in one transaction,
// so a concurrent delete is seen either before the lookup (ErrNotFound) or
// not at all.
package project
