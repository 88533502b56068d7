// SPDX-License-Identifier: Apache-2.0

package stage

// statementIter orders a fixed set of statements for application, healing as
// it goes: a statement that fails to apply is parked in a failed queue
// rather than lost, and the queue is rotated through until either every
// parked statement succeeds or a full rotation makes no progress at all.
//
// next tries, in order: the first pending statement whose declared
// dependencies are all already applied; failing that, the first pending
// statement that does not itself depend on anything still pending (it may
// be blocked on something the extractor never saw, so it is worth trying);
// failing that, whatever is first in the pending list, on the theory that a
// database error will at least narrow down what is missing.
type statementIter struct {
	pending              []*Statement
	completedObjects     map[string]bool
	failedStatements     []*Statement
	initialFailedCount   int
	failedStatementIndex int
}

func newStatementIter(statements []*Statement) *statementIter {
	pending := make([]*Statement, len(statements))
	copy(pending, statements)
	return &statementIter{
		pending:          pending,
		completedObjects: make(map[string]bool),
	}
}

// addBackFailed returns a statement to the failed queue after an apply
// attempt, un-completing the object it would have created so that anything
// depending on it is not falsely considered satisfied.
func (it *statementIter) addBackFailed(s *Statement) {
	delete(it.completedObjects, s.Object.String())
	it.failedStatements = append(it.failedStatements, s)
}

func (it *statementIter) hasRemaining() bool {
	return len(it.pending) > 0 || len(it.failedStatements) > 0
}

// takeRemaining drains and returns every statement that never applied
// successfully, for reporting once the iterator gives up.
func (it *statementIter) takeRemaining() []*Statement {
	remaining := make([]*Statement, 0, len(it.pending)+len(it.failedStatements))
	remaining = append(remaining, it.pending...)
	remaining = append(remaining, it.failedStatements...)
	it.pending = nil
	it.failedStatements = nil
	return remaining
}

func findStatementIndex(statements []*Statement, pred func(*Statement) bool) int {
	for i, s := range statements {
		if pred(s) {
			return i
		}
	}
	return -1
}

func (it *statementIter) removePending(index int) *Statement {
	s := it.pending[index]
	it.pending = append(it.pending[:index], it.pending[index+1:]...)
	return s
}

func (it *statementIter) next() (*Statement, bool) {
	if len(it.pending) == 0 && len(it.failedStatements) == 0 {
		return nil, false
	}

	if len(it.pending) > 0 {
		if idx := findStatementIndex(it.pending, func(s *Statement) bool {
			return s.HasDependenciesMet(it.completedObjects)
		}); idx >= 0 {
			s := it.removePending(idx)
			it.completedObjects[s.Object.String()] = true
			return s, true
		}
		if idx := findStatementIndex(it.pending, func(s *Statement) bool {
			for _, other := range it.pending {
				if s.DependsOn(other.Object) {
					return false
				}
			}
			return true
		}); idx >= 0 {
			s := it.removePending(idx)
			it.completedObjects[s.Object.String()] = true
			return s, true
		}
		s := it.removePending(0)
		it.completedObjects[s.Object.String()] = true
		return s, true
	}

	if it.initialFailedCount == 0 {
		it.initialFailedCount = len(it.failedStatements)
		return it.removeFailed(it.failedStatementIndex), true
	}

	it.failedStatementIndex++
	if it.failedStatementIndex > len(it.failedStatements)-1 {
		it.failedStatementIndex = len(it.failedStatements) - 1
	}
	if it.failedStatementIndex == 0 {
		if it.initialFailedCount == len(it.failedStatements) {
			return nil, false
		}
		it.initialFailedCount = len(it.failedStatements)
	}
	return it.removeFailed(it.failedStatementIndex), true
}

func (it *statementIter) removeFailed(index int) *Statement {
	s := it.failedStatements[index]
	it.failedStatements = append(it.failedStatements[:index], it.failedStatements[index+1:]...)
	return s
}
